package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cozyplate/backend/config"
)

// TranscribedWord is one word with its timestamps in seconds.
type TranscribedWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// TranscriptionResult is the verbose transcription of an audio clip.
type TranscriptionResult struct {
	Text     string            `json:"text"`
	Words    []TranscribedWord `json:"words"`
	Duration float64           `json:"duration"`
}

// TranscribeService sends audio to a Whisper-compatible transcription API.
type TranscribeService struct {
	apiKey string
	apiURL string
	client *http.Client
}

func NewTranscribeService(cfg *config.Config) *TranscribeService {
	return &TranscribeService{
		apiKey: cfg.OpenAIAPIKey,
		apiURL: cfg.OpenAITranscribeURL,
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Transcribe submits the audio bytes and returns text with word timestamps.
func (s *TranscribeService) Transcribe(ctx context.Context, filename string, audio []byte) (*TranscriptionResult, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio data is empty")
	}
	if filename == "" {
		filename = "audio.wav"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.WriteField("model", "whisper-1"); err != nil {
		return nil, err
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, err
	}
	if err := writer.WriteField("timestamp_granularities[]", "word"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("transcription API returned status %d: %s", resp.StatusCode, string(errBody))
	}

	var result TranscriptionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}
	return &result, nil
}
