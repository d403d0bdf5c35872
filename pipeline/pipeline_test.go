package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"docfields/chunker"
	"docfields/extraction"
	"docfields/fieldconfig"
	"docfields/prompt"
	"docfields/services/llm_service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOrchestrator(llm llm_service.LLMService) *Orchestrator {
	logger := testLogger()
	opts := chunker.DefaultOptions()
	opts.MinChunkLength = 10 // keep short test documents
	return NewOrchestrator(
		extraction.NewExtractor(logger, extraction.DefaultOptions()),
		chunker.New(opts),
		prompt.NewBuilder(15000),
		llm,
		logger,
		500,
	)
}

func policyConfig() *fieldconfig.ExtractionConfig {
	return &fieldconfig.ExtractionConfig{
		Fields: []fieldconfig.FieldSpec{
			{Name: "policy_id", Keywords: []string{"policy", "ID"}},
		},
	}
}

func TestProcessSuccess(t *testing.T) {
	var gotPrompt string
	llm := &llm_service.MockLLMService{
		CallLLMFunc: func(ctx context.Context, p string) (string, error) {
			gotPrompt = p
			return `Here is the result:
{"results": [{"field": "policy_id", "value": "12345", "type": "concise", "confidence": 0.95}]}`, nil
		},
	}

	o := testOrchestrator(llm)
	outcome, err := o.Process(context.Background(), policyConfig(), []Upload{
		{Filename: "policy.txt", Data: []byte("Policy ID: 12345. Coverage details follow here.")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Status != StatusSuccess {
		t.Fatalf("expected success, got %q (%s)", outcome.Status, outcome.Message)
	}
	results, ok := outcome.Data["results"].([]interface{})
	if !ok || len(results) != 1 {
		t.Fatalf("unexpected results payload: %+v", outcome.Data)
	}
	entry := results[0].(map[string]interface{})
	if entry["field"] != "policy_id" || entry["value"] != "12345" {
		t.Errorf("unexpected result entry: %+v", entry)
	}
	if !strings.Contains(outcome.TextSample, "Policy ID: 12345") {
		t.Errorf("unexpected text sample: %q", outcome.TextSample)
	}
	if !strings.Contains(gotPrompt, "- policy_id: Keywords: policy, ID") {
		t.Errorf("prompt missing field bullet:\n%s", gotPrompt)
	}
	if outcome.Report.Processed != 1 {
		t.Errorf("unexpected batch report: %+v", outcome.Report)
	}
}

func TestProcessPartialSuccess(t *testing.T) {
	llm := &llm_service.MockLLMService{
		CallLLMFunc: func(ctx context.Context, p string) (string, error) {
			return "I could not find any structured data, sorry.", nil
		},
	}

	o := testOrchestrator(llm)
	outcome, err := o.Process(context.Background(), policyConfig(), []Upload{
		{Filename: "policy.txt", Data: []byte("Policy ID: 12345. Coverage details follow here.")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Status != StatusPartialSuccess {
		t.Fatalf("expected partial_success, got %q", outcome.Status)
	}
	if outcome.RawResponse != "I could not find any structured data, sorry." {
		t.Errorf("raw response not carried verbatim: %q", outcome.RawResponse)
	}
}

func TestProcessNoUsableDocuments(t *testing.T) {
	llm := &llm_service.MockLLMService{
		CallLLMFunc: func(ctx context.Context, p string) (string, error) {
			t.Fatal("LLM must not be called when extraction yields nothing")
			return "", nil
		},
	}

	o := testOrchestrator(llm)
	_, err := o.Process(context.Background(), policyConfig(), []Upload{
		{Filename: "image.png", Data: []byte("not a document")},
	})

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected *ExtractionError, got %v", err)
	}
}

func TestProcessEmptyAfterFiltering(t *testing.T) {
	llm := &llm_service.MockLLMService{
		CallLLMFunc: func(ctx context.Context, p string) (string, error) {
			t.Fatal("LLM must not be called when filtered text is empty")
			return "", nil
		},
	}

	logger := testLogger()
	// default filter thresholds: a tiny document is all noise
	o := NewOrchestrator(
		extraction.NewExtractor(logger, extraction.DefaultOptions()),
		chunker.New(chunker.DefaultOptions()),
		prompt.NewBuilder(15000),
		llm,
		logger,
		500,
	)

	_, err := o.Process(context.Background(), policyConfig(), []Upload{
		{Filename: "tiny.txt", Data: []byte("short")},
	})

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected *ExtractionError, got %v", err)
	}
}

func TestProcessBackendFailure(t *testing.T) {
	llm := &llm_service.MockLLMService{
		CallLLMFunc: func(ctx context.Context, p string) (string, error) {
			return "", &llm_service.BackendError{Message: "upstream down"}
		},
	}

	o := testOrchestrator(llm)
	_, err := o.Process(context.Background(), policyConfig(), []Upload{
		{Filename: "policy.txt", Data: []byte("Policy ID: 12345. Coverage details follow here.")},
	})

	var backendErr *llm_service.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected *BackendError, got %v", err)
	}
}

func TestProcessRemovesWorkspace(t *testing.T) {
	llm := &llm_service.MockLLMService{}

	countWorkspaces := func() int {
		entries, err := os.ReadDir(os.TempDir())
		if err != nil {
			t.Fatalf("failed to read temp dir: %v", err)
		}
		n := 0
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), "docfields-") {
				n++
			}
		}
		return n
	}

	before := countWorkspaces()

	o := testOrchestrator(llm)
	// success path
	if _, err := o.Process(context.Background(), policyConfig(), []Upload{
		{Filename: "policy.txt", Data: []byte("Policy ID: 12345. Coverage details follow here.")},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// error path
	if _, err := o.Process(context.Background(), policyConfig(), []Upload{
		{Filename: "image.png", Data: []byte("junk")},
	}); err == nil {
		t.Fatal("expected error")
	}

	if after := countWorkspaces(); after != before {
		t.Errorf("temporary workspaces leaked: before=%d after=%d", before, after)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\docs\file.docx`, "file.docx"},
		{"..", ""},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLocateJSON(t *testing.T) {
	data, ok := locateJSON(`noise before {"results": []} noise after`)
	if !ok {
		t.Fatal("expected JSON to be located")
	}
	if _, exists := data["results"]; !exists {
		t.Errorf("unexpected payload: %+v", data)
	}

	if _, ok := locateJSON("no braces at all"); ok {
		t.Error("expected failure without braces")
	}
	if _, ok := locateJSON("{not valid json}"); ok {
		t.Error("expected failure on invalid JSON")
	}
}
