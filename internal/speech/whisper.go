package speech

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/voice_posts/internal/ai"
	openai "github.com/sashabaranov/go-openai"
)

const TranscriptionModel = openai.Whisper1

type TranscriptionResult struct {
	Text string
	Raw  openai.AudioResponse
}

type WhisperClient struct {
	client *openai.Client
}

func NewWhisperClient(client *openai.Client) *WhisperClient {
	return &WhisperClient{client: client}
}

// Transcribe без ретраев, повтор решает вызывающий.
func (c *WhisperClient) Transcribe(ctx context.Context, src Source) (*TranscriptionResult, error) {
	name, rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("open audio source: %w", err)
	}
	defer rc.Close()

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    TranscriptionModel,
		FilePath: name,
		Reader:   rc,
	})
	if err != nil {
		return nil, ai.ProviderError("transcription", err)
	}

	return &TranscriptionResult{Text: resp.Text, Raw: resp}, nil
}
