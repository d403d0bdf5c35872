package extraction

import (
	"fmt"
	"log/slog"
	"os"

	"code.sajari.com/docconv/v2"
)

const docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func (e *Extractor) extractDOCX(path, filename string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer f.Close()

	result, err := docconv.Convert(f, docxMimeType, false)
	if err != nil {
		return nil, fmt.Errorf("failed to convert DOCX: %w", err)
	}

	e.logger.Debug("Extracted text from DOCX",
		slog.String("filename", filename),
		slog.Int("text_length", len(result.Body)))

	return []Document{{
		PageContent: result.Body,
		Metadata:    map[string]string{"source": filename},
	}}, nil
}
