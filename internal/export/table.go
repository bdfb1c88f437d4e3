package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-metric-engine/internal/model"
	"go-metric-engine/internal/pipeline"
	"go-metric-engine/pkg/utils"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(3)
)

// maxCell bounds the summary column width.
const maxCell = 60

// WriteTable prints a styled summary: one line per metric with its status and a short value.
func WriteTable(w io.Writer, results *pipeline.Results) error {
	statuses := make(map[string]model.MetricStatus, len(results.Report.Metrics))
	for _, s := range results.Report.Metrics {
		statuses[s.ID] = s
	}

	ids := results.IDs()
	cols := [3][]string{{"Metric"}, {"Status"}, {"Value"}}
	styles := []lipgloss.Style{headerStyle}
	for _, id := range ids {
		value, _ := results.Get(id)
		status := statuses[id].Status
		if status == "" {
			status = model.StatusOK
		}
		summary := summarize(value)
		if e := results.Err(id); e != nil {
			summary = e.Message
		}
		cols[0] = append(cols[0], id)
		cols[1] = append(cols[1], status)
		cols[2] = append(cols[2], truncate(summary, maxCell))
		styles = append(styles, styleFor(status))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d metrics", len(ids))))
	b.WriteString("\n\n")
	for row := range cols[0] {
		line := make([]string, len(cols))
		for c := range cols {
			width := 0
			for _, cell := range cols[c] {
				width = max(width, lipgloss.Width(cell))
			}
			style := cellStyle.Width(width + 3)
			if c == 1 || row == 0 {
				style = style.Inherit(styles[row])
			}
			line[c] = style.Render(cols[c][row])
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, line...))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(dimStyle.Render(fmt.Sprintf("run %s  records %d  ok %d  failed %d  hidden %d  skipped %d",
		results.Report.RunID, results.Report.Records,
		results.Report.Count(model.StatusOK), results.Report.Count(model.StatusFailed),
		results.Report.Count(model.StatusHidden), results.Report.Count(model.StatusSkipped))))
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

func styleFor(status string) lipgloss.Style {
	switch status {
	case model.StatusOK:
		return okStyle
	case model.StatusFailed:
		return failStyle
	default:
		return dimStyle
	}
}

// summarize renders scalars directly and collections as an item count.
func summarize(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "-"
	case []model.Row:
		return fmt.Sprintf("%d rows", len(v))
	case []interface{}:
		return fmt.Sprintf("%d items", len(v))
	case []map[string]interface{}:
		return fmt.Sprintf("%d rows", len(v))
	}
	return utils.Stringify(value)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
