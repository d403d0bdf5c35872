package extraction

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/olekukonko/tablewriter"
	"github.com/xuri/excelize/v2"
)

// extractCSV renders the file as a Markdown table. An empty CSV still
// yields a document, just with a minimal body.
func (e *Extractor) extractCSV(path, filename string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	var content string
	if len(records) > 0 {
		content = renderTable(records[0], records[1:])
	}

	return []Document{{
		PageContent: content,
		Metadata:    map[string]string{"source": filename},
	}}, nil
}

// extractXLSX loads the first sheet, drops rows and columns that are
// entirely empty, and renders the rest as a Markdown table. A sheet that is
// empty after cleaning yields zero documents.
func (e *Extractor) extractXLSX(path, filename string) ([]Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	rows = dropEmptyRowsAndColumns(rows)
	if len(rows) == 0 {
		e.logger.Warn("XLSX sheet is empty after cleaning",
			slog.String("filename", filename),
			slog.String("sheet", sheet))
		return nil, nil
	}

	content := renderTable(rows[0], rows[1:])
	return []Document{{
		PageContent: content,
		Metadata:    map[string]string{"source": filename},
	}}, nil
}

// dropEmptyRowsAndColumns removes rows and columns whose every cell is
// blank, padding ragged rows to a uniform width first.
func dropEmptyRowsAndColumns(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return nil
	}

	var kept [][]string
	for _, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		empty := true
		for _, cell := range padded {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if !empty {
			kept = append(kept, padded)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	usedColumns := make([]bool, width)
	for _, row := range kept {
		for i, cell := range row {
			if strings.TrimSpace(cell) != "" {
				usedColumns[i] = true
			}
		}
	}

	var out [][]string
	for _, row := range kept {
		var cells []string
		for i, cell := range row {
			if usedColumns[i] {
				cells = append(cells, cell)
			}
		}
		out = append(out, cells)
	}
	return out
}

// renderTable produces a Markdown table, falling back to a plain
// fixed-width rendering if the Markdown writer blows up on the input.
func renderTable(header []string, rows [][]string) (content string) {
	defer func() {
		if r := recover(); r != nil {
			content = renderPlainTable(header, rows)
		}
	}()
	return renderMarkdownTable(header, rows)
}

func renderMarkdownTable(header []string, rows [][]string) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.AppendBulk(rows)
	table.Render()
	return buf.String()
}

func renderPlainTable(header []string, rows [][]string) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
	return buf.String()
}
