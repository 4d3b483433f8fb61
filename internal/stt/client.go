// Package stt is a thin HTTP client for a Whisper-compatible transcription
// server. The transcript passes through the lexical normalizer before it is
// handed to the answer pipeline.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"reog-rag/internal/config"
	"reog-rag/internal/models"
	"reog-rag/internal/normalizer"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	normalizer *normalizer.Normalizer
}

func NewClient(cfg *config.STTConfig, norm *normalizer.Normalizer) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		normalizer: norm,
	}
}

// transcribeResponse mirrors the whisper server's JSON shape.
type transcribeResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads the audio file and returns the normalized transcript.
// Failures produce a Transcript with Success=false plus the error.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (*models.Transcript, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return failedTranscript(err), err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return failedTranscript(err), err
	}
	if _, err := part.Write(audio); err != nil {
		return failedTranscript(err), err
	}
	if c.model != "" {
		_ = writer.WriteField("model", c.model)
	}
	if err := writer.Close(); err != nil {
		return failedTranscript(err), err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return failedTranscript(err), err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("STT request failed")
		return failedTranscript(err), err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("stt request failed: %d, %s", resp.StatusCode, string(data))
		log.Error().Err(err).Msg("STT request failed")
		return failedTranscript(err), err
	}

	var decoded transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return failedTranscript(err), err
	}

	segments := make([]models.TranscriptSegment, 0, len(decoded.Segments))
	for _, s := range decoded.Segments {
		segments = append(segments, models.TranscriptSegment{Start: s.Start, End: s.End, Text: s.Text})
	}

	text := c.normalizer.Normalize(decoded.Text)
	log.Info().
		Str("language", decoded.Language).
		Int("chars", len(text)).
		Msg("Transcription complete")

	return &models.Transcript{
		Text:     text,
		Language: decoded.Language,
		Segments: segments,
		Success:  true,
	}, nil
}

func failedTranscript(err error) *models.Transcript {
	return &models.Transcript{
		Language: "unknown",
		Success:  false,
		Error:    err.Error(),
	}
}
