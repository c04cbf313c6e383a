// Package document holds the loaded document and the read-only tools the
// evaluator calls against it: regex grep, fuzzy line search, stats, line
// ranges, and a per-line full-text search view.
package document

import (
	"strings"
)

// sampleLines is how many lines each of the start/middle/end samples holds.
const sampleLines = 3

// Document is an immutable sequence of bytes interpreted as text lines. Line
// numbers are 1-based everywhere in the engine.
type Document struct {
	text  string
	lines []string
}

// New creates a document from raw text.
func New(text string) *Document {
	return &Document{
		text:  text,
		lines: strings.Split(text, "\n"),
	}
}

// Text returns the raw document, unmodified.
func (d *Document) Text() string { return d.text }

// Len returns the total length in bytes.
func (d *Document) Len() int { return len(d.text) }

// LineCount returns the number of lines.
func (d *Document) LineCount() int { return len(d.lines) }

// Line returns the 1-based line n, or "" when n is out of range.
func (d *Document) Line(n int) string {
	if n < 1 || n > len(d.lines) {
		return ""
	}
	return d.lines[n-1]
}

// Lines returns the inclusive 1-based range [start, end], clamped to the
// document. An inverted or fully out-of-range request yields an empty slice.
func (d *Document) Lines(start, end int) []string {
	if start < 1 {
		start = 1
	}
	if end > len(d.lines) {
		end = len(d.lines)
	}
	if start > end {
		return nil
	}
	out := make([]string, end-start+1)
	copy(out, d.lines[start-1:end])
	return out
}

// Sample is a small excerpt from the start, middle, and end of the document.
type Sample struct {
	Start  []string
	Middle []string
	End    []string
}

// Stats is the derived summary view of a document.
type Stats struct {
	Length    int
	LineCount int
	Sample    Sample
}

// Stats computes the summary view.
func (d *Document) Stats() Stats {
	n := len(d.lines)
	mid := n / 2

	return Stats{
		Length:    len(d.text),
		LineCount: n,
		Sample: Sample{
			Start:  d.Lines(1, sampleLines),
			Middle: d.Lines(mid-sampleLines/2, mid+sampleLines/2),
			End:    d.Lines(n-sampleLines+1, n),
		},
	}
}
