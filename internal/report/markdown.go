package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/harvester/internal/database"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs exports in GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteCollection writes a summary, a per-rule chart and the item list.
func (w *MarkdownWriter) WriteCollection(c *Collection) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Harvested Items")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", c.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Status", string(c.Status)},
			{"Items", strconv.Itoa(len(c.Items))},
			{"Rules", strconv.Itoa(len(c.Rules))},
		},
	})
	md.PlainText("")

	if len(c.Items) == 0 {
		md.Note("No items have been collected yet.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	breakdown := c.Breakdown()
	md.H2("Items by Rule")
	md.PlainText("")
	w.writePieChart(md, "Items by Rule", breakdown)

	md.H2("Items")
	md.PlainText("")
	md.BulletList(c.Items...)
	md.PlainText("")

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteHistory writes the records as a table with an outcome chart.
func (w *MarkdownWriter) WriteHistory(records []database.ScanRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Scan History")
	md.PlainText("")

	if len(records) == 0 {
		md.Note("No scans have been recorded yet.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(records))
	outcomes := make(map[string]int)
	var order []string
	for i, r := range records {
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Outcome,
			strconv.Itoa(r.Found),
			r.Elapsed.Round(time.Millisecond).String(),
			"`" + truncateString(r.URL, 60) + "`",
		}
		if _, ok := outcomes[r.Outcome]; !ok {
			order = append(order, r.Outcome)
		}
		outcomes[r.Outcome]++
	}

	counts := make([]RuleCount, 0, len(order))
	for _, o := range order {
		counts = append(counts, RuleCount{Rule: o, Count: outcomes[o]})
	}
	w.writePieChart(md, "Scan Outcomes", counts)

	md.Table(markdown.TableSet{
		Header: []string{"ID", "Time", "Outcome", "Found", "Elapsed", "URL"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writePieChart writes a mermaid pie chart of counts.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, title string, counts []RuleCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(title),
		piechart.WithShowData(true),
	)
	for _, c := range counts {
		chart.LabelAndIntValue(c.Rule, uint64(c.Count)) //nolint:gosec // counts are never negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by [harvester](https://github.com/nao1215/harvester)*")
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
