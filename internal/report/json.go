package report

import (
	"bytes"
	"encoding/json"
	"io"
)

// JSONWriter renders a Report as a single JSON document for scripts and
// dashboards.
type JSONWriter struct {
	baseWriter
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values by indent. An empty string keeps the
// document on one line.
func WithIndent(indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = indent
	}
}

// WithPrettyPrint indents by two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("  ")
}

// NewJSONWriter creates a JSONWriter writing to output.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes report followed by a newline. URLs in recent entries are
// written as-is, without HTML escaping.
func (w *JSONWriter) Write(report *Report) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent != "" {
		enc.SetIndent("", w.indent)
	}
	if err := enc.Encode(report); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
