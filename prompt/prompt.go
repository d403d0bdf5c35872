// Package prompt renders a field schema and normalized document text into
// the single instruction prompt sent to the completion backend.
package prompt

import (
	"fmt"
	"strings"

	"docfields/fieldconfig"
)

const promptTemplate = `Analyze this document and extract information:

FIELDS TO EXTRACT:
%s

DOCUMENT CONTENT:
%s

INSTRUCTIONS:
1. For each field, determine appropriate response format:
   - Concise: For IDs, numbers, simple facts
   - Detailed: For policies, conditions
2. Return JSON with this structure:
{
  "results": [
    {
      "field": "field_name",
      "value": "extracted_value",
      "type": "concise/detailed",
      "confidence": 0.0-1.0
    }
  ]
}

OUTPUT:`

// Builder assembles prompts. MaxDocumentChars caps the embedded document
// text to protect the model's context budget; the cut is a hard one, not
// sentence-aware.
type Builder struct {
	MaxDocumentChars int
}

func NewBuilder(maxDocumentChars int) *Builder {
	return &Builder{MaxDocumentChars: maxDocumentChars}
}

// Build is pure and deterministic: identical inputs produce byte-identical
// output.
func (b *Builder) Build(fields []fieldconfig.FieldSpec, text string) string {
	lines := make([]string, 0, len(fields))
	for i, field := range fields {
		responseType := field.ResponseType
		if responseType == "" {
			responseType = "auto"
		}
		description := field.Description
		if description == "" {
			description = "N/A"
		}
		lines = append(lines, fmt.Sprintf("- %s: Keywords: %s\n  Response type: %s\n  Description: %s",
			field.DisplayName(i),
			strings.Join(field.Keywords, ", "),
			responseType,
			description))
	}

	return fmt.Sprintf(promptTemplate, strings.Join(lines, "\n"), b.truncate(text))
}

func (b *Builder) truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= b.MaxDocumentChars {
		return text
	}
	return string(runes[:b.MaxDocumentChars])
}
