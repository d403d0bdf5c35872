package llm_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// OpenRouterService calls an OpenRouter-compatible chat-completions
// endpoint. One attempt per request: a failure surfaces immediately as a
// BackendError instead of being retried.
type OpenRouterService struct {
	httpClient  *http.Client
	logger      *slog.Logger
	apiURL      string
	apiKey      string
	model       string
	temperature float64
}

type Options struct {
	APIURL      string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

func NewOpenRouterService(logger *slog.Logger, opts Options) *OpenRouterService {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &OpenRouterService{
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
		apiURL:      opts.APIURL,
		apiKey:      opts.APIKey,
		model:       opts.Model,
		temperature: opts.Temperature,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *OpenRouterService) CallLLM(ctx context.Context, prompt string) (string, error) {
	requestBody, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: s.temperature,
	})
	if err != nil {
		return "", &BackendError{Message: "error marshaling request body", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", &BackendError{Message: "error creating request", Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("Error calling completion backend",
			slog.String("error", err.Error()))
		return "", &BackendError{Message: "error making request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &BackendError{Message: "error reading response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("Completion backend returned error status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", string(body)))
		return "", &BackendError{Message: fmt.Sprintf("unexpected status code %d", resp.StatusCode)}
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &BackendError{Message: "error unmarshaling response", Err: err}
	}

	if len(result.Choices) == 0 {
		return "", &BackendError{Message: "no choices in completion response"}
	}

	return result.Choices[0].Message.Content, nil
}
