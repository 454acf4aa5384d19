package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/harvester/internal/database"
)

// JSONWriter outputs exports in JSON format.
type JSONWriter struct {
	baseWriter

	// indentString enables pretty-printed output when non-empty.
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonCollection adds the per-rule breakdown to a Collection.
type jsonCollection struct {
	*Collection
	Breakdown []RuleCount `json:"breakdown"`
}

// WriteCollection writes the collection with its per-rule breakdown.
func (w *JSONWriter) WriteCollection(c *Collection) (int, error) {
	return w.writeJSON(jsonCollection{Collection: c, Breakdown: c.Breakdown()})
}

// WriteHistory writes the records as a JSON array.
func (w *JSONWriter) WriteHistory(records []database.ScanRecord) (int, error) {
	if records == nil {
		records = []database.ScanRecord{}
	}
	return w.writeJSON(records)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indentString != "" {
		data, err = json.MarshalIndent(v, "", w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')
	return w.output.Write(data)
}
