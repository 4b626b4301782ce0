package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/yourusername/quickdl-go/internal/domain"
)

// terminalSink prints notifications as they are shown
type terminalSink struct {
	mu       sync.Mutex
	w        io.Writer
	colorize bool
}

// Deliver implements domain.NotificationSink
func (s *terminalSink) Deliver(n domain.Notification) {
	if n.Message == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, renderNotification(n, s.colorize))
}

func renderNotification(n domain.Notification, colorize bool) string {
	label, color := "OK", text.FgGreen
	if n.Severity == domain.SeverityError {
		label, color = "ERROR", text.FgRed
	}
	line := fmt.Sprintf("[%s] %s", label, n.Message)
	if colorize {
		return color.Sprint(line)
	}
	return line
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderFields prints label/value pairs as a two-column table
func renderFields(fields [][2]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	for _, f := range fields {
		tw.AppendRow(table.Row{f[0], f[1]})
	}
	return tw.Render()
}

// truncate shortens s to maxLen display columns without splitting a rune
func truncate(s string, maxLen int) string {
	return text.Snip(s, maxLen, "...")
}
