package extraction

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF tries the native text layer first, one document per page. The
// OCR fallback takes over when the text layer fails outright or when the
// average characters per page fall below MinTextLength, which is how
// image-only scans with a vestigial text layer present themselves.
func (e *Extractor) extractPDF(path, filename string) ([]Document, error) {
	pages, err := e.pdfTextLayer(path)
	if err != nil {
		e.logger.Warn("PDF text layer extraction failed, falling back to OCR",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return e.ocrDocuments(path, filename)
	}

	total := 0
	for _, page := range pages {
		total += len(page)
	}
	if total < e.opts.MinTextLength*len(pages) {
		e.logger.Info("PDF text layer below density threshold, falling back to OCR",
			slog.String("filename", filename),
			slog.Int("total_chars", total),
			slog.Int("pages", len(pages)))
		return e.ocrDocuments(path, filename)
	}

	documents := make([]Document, 0, len(pages))
	for i, page := range pages {
		documents = append(documents, Document{
			PageContent: page,
			Metadata: map[string]string{
				"source": filename,
				"page":   fmt.Sprintf("%d", i+1),
			},
		})
	}
	return documents, nil
}

// pdfTextLayer returns the text of every page. Individual bad pages are
// skipped and logged; only a document-level failure is an error.
func (e *Extractor) pdfTextLayer(path string) (pages []string, err error) {
	// ledongthuc/pdf panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("panic reading PDF: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	totalPage := reader.NumPage()
	if totalPage == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			e.logger.Warn("Null page encountered",
				slog.Int("page_number", pageIndex))
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("Failed to extract text from page",
				slog.Int("page_number", pageIndex),
				slog.String("error", err.Error()))
			pages = append(pages, "")
			continue
		}

		pages = append(pages, text)
	}

	return pages, nil
}

// ocrDocuments wraps the whole-document OCR run into the normalized
// document shape. No recognizable text means zero documents, not an error.
func (e *Extractor) ocrDocuments(path, filename string) ([]Document, error) {
	text, err := e.ocrPDF(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		e.logger.Warn("OCR yielded no text",
			slog.String("filename", filename))
		return nil, nil
	}
	return []Document{{
		PageContent: text,
		Metadata:    map[string]string{"source": filename},
	}}, nil
}
