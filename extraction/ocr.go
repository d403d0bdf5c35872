package extraction

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// OCRMarker prefixes every OCR-derived page so downstream consumers can
// distinguish recognized text from native text layers.
const OCRMarker = "[OCR EXTRACTED]"

// OCREngine recognizes text in a raster image file.
type OCREngine interface {
	ImageToText(imagePath string) (string, error)
}

// TesseractEngine runs tesseract through gosseract.
type TesseractEngine struct{}

func (t *TesseractEngine) ImageToText(imagePath string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("failed to set OCR image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR recognition failed: %w", err)
	}
	return text, nil
}

// PageRenderer rasterizes every page of a PDF into outDir and returns the
// image paths in page order.
type PageRenderer func(pdfPath, outDir string, dpi int) ([]string, error)

// renderWithPdftoppm shells out to poppler's pdftoppm, one PNG per page.
func renderWithPdftoppm(pdfPath, outDir string, dpi int) ([]string, error) {
	prefix := filepath.Join(outDir, "page")
	cmd := exec.Command("pdftoppm", "-r", strconv.Itoa(dpi), "-png", pdfPath, prefix)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm execution failed: %w: %s", err, strings.TrimSpace(string(output)))
	}

	images, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(images)
	return images, nil
}

// ocrPDF renders every page at the configured DPI and runs OCR over each
// one. A page that fails OCR contributes empty text; the run keeps going
// for the remaining pages.
func (e *Extractor) ocrPDF(path string) (string, error) {
	outDir, err := os.MkdirTemp("", "ocr-pages-")
	if err != nil {
		return "", fmt.Errorf("failed to create OCR workspace: %w", err)
	}
	defer os.RemoveAll(outDir)

	images, err := e.render(path, outDir, e.opts.OCRDPI)
	if err != nil {
		return "", err
	}

	pages := make([]string, 0, len(images))
	recognized := false
	for _, image := range images {
		text, err := e.ocr.ImageToText(image)
		if err != nil {
			e.logger.Warn("OCR failed for page, continuing",
				slog.String("image", filepath.Base(image)),
				slog.String("error", err.Error()))
			text = ""
		}
		if strings.TrimSpace(text) != "" {
			recognized = true
		}
		pages = append(pages, text)
	}

	// The marker alone is not content; only recognized text counts.
	if !recognized {
		return "", nil
	}

	return assembleOCRPages(pages), nil
}

func assembleOCRPages(pages []string) string {
	marked := make([]string, 0, len(pages))
	for _, page := range pages {
		marked = append(marked, fmt.Sprintf("%s\n%s\n", OCRMarker, page))
	}
	return strings.Join(marked, "\n\n")
}
