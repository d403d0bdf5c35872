// Package extraction turns uploaded document files into normalized text
// documents. Each supported format has its own extraction path; PDF falls
// back to OCR when the text layer is too thin.
package extraction

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Document is one unit of normalized text extracted from a source file.
type Document struct {
	PageContent string
	Metadata    map[string]string
}

// Options are the extraction tunables. MinTextLength is the average number
// of characters per PDF page below which the text layer is considered
// unusable and OCR kicks in. OCRDPI is the raster resolution for the OCR
// fallback.
type Options struct {
	MinTextLength int
	OCRDPI        int
}

func DefaultOptions() Options {
	return Options{
		MinTextLength: 50,
		OCRDPI:        200,
	}
}

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".xlsx": true,
	".csv":  true,
}

// IsSupported reports whether filename carries an accepted document extension.
func IsSupported(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

type Extractor struct {
	opts   Options
	logger *slog.Logger
	ocr    OCREngine
	render PageRenderer
}

func NewExtractor(logger *slog.Logger, opts Options) *Extractor {
	return &Extractor{
		opts:   opts,
		logger: logger,
		ocr:    &TesseractEngine{},
		render: renderWithPdftoppm,
	}
}

// SetOCREngine replaces the OCR engine, used by tests to avoid a tesseract
// dependency.
func (e *Extractor) SetOCREngine(engine OCREngine) {
	e.ocr = engine
}

// SetPageRenderer replaces the PDF page renderer, used by tests to avoid a
// poppler dependency.
func (e *Extractor) SetPageRenderer(render PageRenderer) {
	e.render = render
}

// SkippedFile records one file that contributed nothing to the batch.
type SkippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// BatchReport summarizes a batch extraction: how many files yielded
// documents and which were skipped, with reasons.
type BatchReport struct {
	Processed int           `json:"processed"`
	Skipped   []SkippedFile `json:"skipped,omitempty"`
}

// ExtractFile extracts normalized documents from a single file. The result
// may be empty (e.g. an OCR run that found no text); that is not an error.
func (e *Extractor) ExtractFile(path string) ([]Document, error) {
	filename := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDF(path, filename)
	case ".docx":
		return e.extractDOCX(path, filename)
	case ".txt":
		return e.extractTXT(path, filename)
	case ".csv":
		return e.extractCSV(path, filename)
	case ".xlsx":
		return e.extractXLSX(path, filename)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filename)
	}
}

// ExtractBatch extracts every file in paths, skipping unsupported and
// failing files without aborting the batch. Skips are reported, not raised.
func (e *Extractor) ExtractBatch(paths []string) ([]Document, *BatchReport) {
	var documents []Document
	report := &BatchReport{}

	for _, path := range paths {
		filename := filepath.Base(path)
		if !IsSupported(filename) {
			e.logger.Debug("Skipping unsupported file",
				slog.String("filename", filename))
			report.Skipped = append(report.Skipped, SkippedFile{
				Filename: filename,
				Reason:   "unsupported file type",
			})
			continue
		}

		docs, err := e.ExtractFile(path)
		if err != nil {
			e.logger.Warn("Skipping file after extraction failure",
				slog.String("filename", filename),
				slog.String("error", err.Error()))
			report.Skipped = append(report.Skipped, SkippedFile{
				Filename: filename,
				Reason:   err.Error(),
			})
			continue
		}
		if len(docs) == 0 {
			report.Skipped = append(report.Skipped, SkippedFile{
				Filename: filename,
				Reason:   "no text content",
			})
			continue
		}

		documents = append(documents, docs...)
		report.Processed++
	}

	return documents, report
}

func (e *Extractor) extractTXT(path, filename string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}
	return []Document{{
		PageContent: string(data),
		Metadata:    map[string]string{"source": filename},
	}}, nil
}
