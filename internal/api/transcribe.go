package api

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cozyplate/backend/internal/service"
)

// maxAudioBytes caps uploaded audio at 25MB, the Whisper API's own limit.
const maxAudioBytes = 25 << 20

// TranscribeHandler turns uploaded audio into text for the analyze flow.
// The routes take no session: dictation happens before sign-in is required,
// and the audio never touches the store.
type TranscribeHandler struct {
	transcribeService service.ITranscribeService
}

func NewTranscribeHandler(transcribeService service.ITranscribeService) *TranscribeHandler {
	return &TranscribeHandler{
		transcribeService: transcribeService,
	}
}

func (h *TranscribeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/transcribe", h.Transcribe)
	router.POST("/transcribe/stream", h.TranscribeStream)
}

// Transcribe returns the full transcription with word timestamps.
func (h *TranscribeHandler) Transcribe(c *gin.Context) {
	filename, audio, ok := h.readAudio(c)
	if !ok {
		return
	}

	result, err := h.transcribeService.Transcribe(c.Request.Context(), filename, audio)
	if err != nil {
		log.Printf("[TranscribeHandler] transcription failed: %v", err)
		respondError(c, http.StatusInternalServerError, "Failed to transcribe audio")
		return
	}

	respondOK(c, gin.H{
		"text":     result.Text,
		"words":    result.Words,
		"duration": result.Duration,
	})
}

// TranscribeStream replays the transcription word by word over SSE, then a
// terminal complete event. The upstream API is not streaming; this just lets
// the client render words as they "arrive".
func (h *TranscribeHandler) TranscribeStream(c *gin.Context) {
	filename, audio, ok := h.readAudio(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, flusherOK := c.Writer.(http.Flusher)
	if !flusherOK {
		respondError(c, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	result, err := h.transcribeService.Transcribe(c.Request.Context(), filename, audio)
	if err != nil {
		log.Printf("[TranscribeHandler] transcription failed: %v", err)
		sendEvent(c, flusher, gin.H{"type": "error", "error": "Failed to transcribe audio"})
		return
	}

	for _, word := range result.Words {
		if c.Request.Context().Err() != nil {
			return
		}
		sendEvent(c, flusher, gin.H{
			"type":  "word",
			"word":  word.Word,
			"start": word.Start,
			"end":   word.End,
		})
	}

	sendEvent(c, flusher, gin.H{
		"type":     "complete",
		"text":     result.Text,
		"duration": result.Duration,
	})
}

func (h *TranscribeHandler) readAudio(c *gin.Context) (string, []byte, bool) {
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No audio file provided")
		return "", nil, false
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Failed to read audio file")
		return "", nil, false
	}
	if len(audio) > maxAudioBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "Audio file exceeds the 25MB limit")
		return "", nil, false
	}
	if len(audio) == 0 {
		respondError(c, http.StatusBadRequest, "No audio file provided")
		return "", nil, false
	}

	return header.Filename, audio, true
}
