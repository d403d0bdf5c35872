// Package pipeline sequences one document-analysis request: extract text
// from the uploaded files, chunk and filter it, build the prompt, call the
// completion backend and parse its output.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"docfields/chunker"
	"docfields/extraction"
	"docfields/fieldconfig"
	"docfields/prompt"
	"docfields/services/llm_service"
)

const (
	StatusSuccess        = "success"
	StatusPartialSuccess = "partial_success"
)

// Upload is one file received with a document-analysis request. It exists
// only for the duration of that request.
type Upload struct {
	Filename string
	Data     []byte
}

// Outcome is the result of one processed request. Status is success when
// the model output parsed into the expected JSON envelope; partial_success
// carries the raw model text instead of failing the request.
type Outcome struct {
	Status      string
	Data        map[string]interface{}
	TextSample  string
	RawResponse string
	Message     string
	Report      *extraction.BatchReport
}

// ExtractionError means the uploaded batch produced no usable text. It is a
// client error, not a server fault.
type ExtractionError struct {
	Message string
}

func (e *ExtractionError) Error() string {
	return e.Message
}

type Orchestrator struct {
	extractor        *extraction.Extractor
	chunker          *chunker.Chunker
	builder          *prompt.Builder
	llm              llm_service.LLMService
	logger           *slog.Logger
	textSampleLength int
}

func NewOrchestrator(extractor *extraction.Extractor, c *chunker.Chunker, builder *prompt.Builder, llm llm_service.LLMService, logger *slog.Logger, textSampleLength int) *Orchestrator {
	return &Orchestrator{
		extractor:        extractor,
		chunker:          c,
		builder:          builder,
		llm:              llm,
		logger:           logger,
		textSampleLength: textSampleLength,
	}
}

// Process runs the full pipeline for one request. All file I/O happens in a
// private temporary workspace that is removed on every exit path.
func (o *Orchestrator) Process(ctx context.Context, cfg *fieldconfig.ExtractionConfig, uploads []Upload) (*Outcome, error) {
	tempDir, err := os.MkdirTemp("", "docfields-")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer os.RemoveAll(tempDir)

	var paths []string
	for _, upload := range uploads {
		name := sanitizeFilename(upload.Filename)
		if name == "" {
			continue
		}
		path := filepath.Join(tempDir, name)
		if err := os.WriteFile(path, upload.Data, 0600); err != nil {
			o.logger.Warn("Failed to stage uploaded file, skipping",
				slog.String("filename", name),
				slog.String("error", err.Error()))
			continue
		}
		paths = append(paths, path)
	}

	documents, report := o.extractor.ExtractBatch(paths)
	if len(documents) == 0 {
		return nil, &ExtractionError{Message: "no valid content extracted from documents"}
	}

	chunks := o.chunker.Split(documents)
	filtered := o.chunker.Filter(chunks)
	text := o.chunker.Join(filtered)

	// The original behavior here was to call the model with an empty body;
	// failing fast avoids a wasted call that cannot produce field values.
	if strings.TrimSpace(text) == "" {
		return nil, &ExtractionError{Message: "no usable text after noise filtering"}
	}

	o.logger.Debug("Pipeline text assembled",
		slog.Int("documents", len(documents)),
		slog.Int("chunks", len(chunks)),
		slog.Int("chunks_kept", len(filtered)),
		slog.Int("text_length", len(text)))

	p := o.builder.Build(cfg.Fields, text)
	response, err := o.llm.CallLLM(ctx, p)
	if err != nil {
		return nil, err
	}

	if data, ok := locateJSON(response); ok {
		return &Outcome{
			Status:     StatusSuccess,
			Data:       data,
			TextSample: o.textSample(text),
			Report:     report,
		}, nil
	}

	return &Outcome{
		Status:      StatusPartialSuccess,
		RawResponse: response,
		Message:     "Could not parse LLM response as JSON",
		Report:      report,
	}, nil
}

// locateJSON finds the first '{' and the last '}' in the model output and
// tries to parse the substring between them.
func locateJSON(response string) (map[string]interface{}, bool) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(response[start:end+1]), &data); err != nil {
		return nil, false
	}
	return data, true
}

func (o *Orchestrator) textSample(text string) string {
	runes := []rune(text)
	if len(runes) <= o.textSampleLength {
		return text
	}
	return string(runes[:o.textSampleLength]) + "..."
}

// sanitizeFilename strips any path components from a client-supplied name.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
