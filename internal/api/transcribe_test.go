package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cozyplate/backend/internal/service"
)

func postAudio(t *testing.T, env *testEnv, path, token string, audio []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if audio != nil {
		part, err := writer.CreateFormFile("audio", "clip.wav")
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

func TestTranscribeReturnsTextAndWords(t *testing.T) {
	env := setupTestEnv(t)

	env.Transcribe.Result = &service.TranscriptionResult{
		Text:     "two cups of flour",
		Duration: 2.5,
		Words: []service.TranscribedWord{
			{Word: "two", Start: 0, End: 0.4},
			{Word: "cups", Start: 0.4, End: 0.9},
		},
	}

	// Dictation happens before sign-in; no token needed.
	w := postAudio(t, env, "/api/transcribe", "", []byte("fake-wav-bytes"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "two cups of flour", data["text"])
	assert.Equal(t, 2.5, data["duration"])
	assert.Len(t, data["words"], 2)
}

func TestTranscribeRequiresAudio(t *testing.T) {
	env := setupTestEnv(t)

	w := postAudio(t, env, "/api/transcribe", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranscribeStreamEmitsWordsThenComplete(t *testing.T) {
	env := setupTestEnv(t)

	env.Transcribe.Result = &service.TranscriptionResult{
		Text:     "mix well",
		Duration: 1.1,
		Words: []service.TranscribedWord{
			{Word: "mix", Start: 0, End: 0.5},
			{Word: "well", Start: 0.5, End: 1.1},
		},
	}

	w := postAudio(t, env, "/api/transcribe/stream", "", []byte("fake-wav-bytes"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	events := parseSSE(t, w.Body.String())
	types := eventTypes(events)
	assert.Equal(t, []string{"word", "word", "complete"}, types)

	assert.Equal(t, "mix", events[0]["word"])
	assert.Equal(t, "mix well", events[2]["text"])
	assert.Equal(t, 1.1, events[2]["duration"])
}
