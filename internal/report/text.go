package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nao1215/harvester/internal/database"
)

// TextWriter writes plain text.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// WriteCollection writes the items joined by newlines.
func (w *TextWriter) WriteCollection(c *Collection) (int, error) {
	return io.WriteString(w.output, strings.Join(c.Items, "\n"))
}

// WriteHistory writes one aligned row per scan.
func (w *TextWriter) WriteHistory(records []database.ScanRecord) (int, error) {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tOUTCOME\tFOUND\tELAPSED\tURL")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			r.ID,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.Outcome,
			r.Found,
			r.Elapsed.Round(time.Millisecond),
			r.URL,
		)
	}
	if err := tw.Flush(); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
