// Package chunker splits normalized documents into overlapping windows and
// discards fragments that look like layout noise rather than prose.
package chunker

import (
	"strings"

	"docfields/extraction"
)

// Chunk is one bounded window of a document's text.
type Chunk struct {
	Content string
	Source  string
}

// Options are the splitting and filtering tunables. They encode extraction
// policy and must come from configuration, not call sites.
type Options struct {
	ChunkSize    int
	ChunkOverlap int

	// A chunk survives filtering only if its trimmed length exceeds
	// MinChunkLength and its underscore/period densities stay under the
	// ratios. Underscore runs are form-field placeholders; period runs are
	// dot leaders from tables of contents.
	MinChunkLength     int
	MaxUnderscoreRatio float64
	MaxPeriodRatio     float64
}

func DefaultOptions() Options {
	return Options{
		ChunkSize:          2000,
		ChunkOverlap:       400,
		MinChunkLength:     100,
		MaxUnderscoreRatio: 0.3,
		MaxPeriodRatio:     0.1,
	}
}

type Chunker struct {
	opts Options
}

func New(opts Options) *Chunker {
	if opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = opts.ChunkSize / 2
	}
	return &Chunker{opts: opts}
}

// Split cuts each document into windows of ChunkSize characters advancing
// by ChunkSize-ChunkOverlap, so consecutive chunks share ChunkOverlap
// characters and no leading or trailing content is dropped.
func (c *Chunker) Split(docs []extraction.Document) []Chunk {
	var chunks []Chunk
	step := c.opts.ChunkSize - c.opts.ChunkOverlap

	for _, doc := range docs {
		runes := []rune(doc.PageContent)
		if len(runes) == 0 {
			continue
		}
		source := doc.Metadata["source"]

		for start := 0; ; start += step {
			end := start + c.opts.ChunkSize
			if end > len(runes) {
				end = len(runes)
			}
			chunks = append(chunks, Chunk{
				Content: string(runes[start:end]),
				Source:  source,
			})
			if end == len(runes) {
				break
			}
		}
	}

	return chunks
}

// Filter drops chunks that fail the noise heuristics.
func (c *Chunker) Filter(chunks []Chunk) []Chunk {
	kept := make([]Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if c.isNoise(chunk.Content) {
			continue
		}
		kept = append(kept, chunk)
	}
	return kept
}

func (c *Chunker) isNoise(content string) bool {
	trimmed := strings.TrimSpace(content)
	length := len([]rune(trimmed))
	if length <= c.opts.MinChunkLength {
		return true
	}
	if float64(strings.Count(trimmed, "_")) > c.opts.MaxUnderscoreRatio*float64(length) {
		return true
	}
	if float64(strings.Count(trimmed, ".")) > c.opts.MaxPeriodRatio*float64(length) {
		return true
	}
	return false
}

// Join concatenates chunk contents in their original order, blank-line
// separated, into the single body consumed by the prompt builder.
func (c *Chunker) Join(chunks []Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Content)
	}
	return strings.Join(parts, "\n\n")
}
