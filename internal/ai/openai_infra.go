package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Vovarama1992/voice_posts/internal/apperr"
	openai "github.com/sashabaranov/go-openai"
)

const CompletionModel = openai.GPT3TextDavinci003

// NewProviderClient: общий клиент OpenAI для completion и whisper.
// baseURL пустой → api.openai.com.
func NewProviderClient(apiKey, baseURL string, httpClient *http.Client) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return openai.NewClientWithConfig(cfg)
}

type CompletionResult struct {
	Text string
	Raw  openai.CompletionResponse
}

type OpenAIClient struct {
	client *openai.Client
}

func NewOpenAIClient(client *openai.Client) *OpenAIClient {
	return &OpenAIClient{client: client}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (*CompletionResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, &apperr.ProviderError{
			Op:         "completion",
			StatusCode: http.StatusBadRequest,
			Payload:    "prompt is required",
			Err:        errors.New("empty prompt"),
		}
	}

	resp, err := c.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:  CompletionModel,
		Prompt: prompt,
	})
	if err != nil {
		return nil, ProviderError("completion", err)
	}
	if len(resp.Choices) == 0 {
		return nil, &apperr.ProviderError{
			Op:         "completion",
			StatusCode: http.StatusBadGateway,
			Payload:    "no choices returned",
			Err:        errors.New("empty completion"),
		}
	}

	return &CompletionResult{Text: resp.Choices[0].Text, Raw: resp}, nil
}

// ProviderError переводит ошибку go-openai в apperr.ProviderError
// со статусом и телом ответа провайдера.
func ProviderError(op string, err error) error {
	pe := &apperr.ProviderError{Op: op, Payload: err.Error(), Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.HTTPStatusCode
		if b, mErr := json.Marshal(apiErr); mErr == nil {
			pe.Payload = string(b)
		}
	case errors.As(err, &reqErr):
		pe.StatusCode = reqErr.HTTPStatusCode
	}
	return pe
}
