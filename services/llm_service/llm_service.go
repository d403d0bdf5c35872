package llm_service

import "context"

// LLMService is the text-completion backend the orchestrator talks to.
type LLMService interface {
	CallLLM(ctx context.Context, prompt string) (string, error)
}

// BackendError marks a transport or auth failure against the completion
// backend. These are never retried; the request fails immediately.
type BackendError struct {
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
