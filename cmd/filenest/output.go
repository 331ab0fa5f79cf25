package main

import (
	"fmt"
	"io"
	"strings"

	"filenest/internal/journal"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// theme holds the terminal colors for command output.
type theme struct {
	Success text.Colors
	Error   text.Colors
	Warning text.Colors
	Info    text.Colors
	Header  text.Colors
	Dim     text.Colors
	style   table.Style
}

var (
	colorTheme = theme{
		Success: text.Colors{text.FgGreen},
		Error:   text.Colors{text.FgRed},
		Warning: text.Colors{text.FgYellow},
		Info:    text.Colors{text.FgBlue},
		Header:  text.Colors{text.FgCyan, text.Bold},
		Dim:     text.Colors{text.FgHiBlack},
		style:   table.StyleRounded,
	}

	// No escape codes, for pipes and --no-color
	plainTheme = theme{style: table.StyleLight}
)

func (t theme) paint(c text.Colors, s string) string {
	if len(c) == 0 {
		return s
	}
	return c.Sprint(s)
}

func (t theme) success(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, t.paint(t.Success, "✓ "+fmt.Sprintf(format, args...)))
}

func (t theme) warning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, t.paint(t.Warning, "! "+fmt.Sprintf(format, args...)))
}

func (t theme) info(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, t.paint(t.Info, fmt.Sprintf(format, args...)))
}

func (t theme) header(w io.Writer, title string) {
	fmt.Fprintln(w, t.paint(t.Header, title))
	fmt.Fprintln(w, t.paint(t.Header, strings.Repeat("─", len([]rune(title)))))
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func (t theme) renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(t.style)

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

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// actionColors picks the color of a record's label.
func (t theme) actionColors(rec journal.Record) text.Colors {
	if rec.Simulated {
		return t.Dim
	}
	switch rec.Action {
	case journal.ActionError:
		return t.Error
	case journal.ActionSkipped:
		return t.Warning
	case journal.ActionCreatedFolder, journal.ActionRemovedFolder:
		return t.Info
	default:
		return t.Success
	}
}

// recordTable renders records as Action | File | Destination or reason.
func (t theme) recordTable(records []journal.Record) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			t.paint(t.actionColors(rec), rec.Label()),
			rec.Name,
			rec.Detail(),
		})
	}
	return t.renderTable([]string{"Action", "File", "Destination / Reason"}, rows, nil)
}

// logLine colors a raw log line by its action.
func (t theme) logLine(rec journal.Record, raw string, malformed bool) string {
	if malformed {
		return t.paint(t.Dim, raw)
	}
	return t.paint(t.actionColors(rec), raw)
}
