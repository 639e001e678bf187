package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws rows with rounded borders. A nil headers slice yields a
// headerless table; aligns may be shorter than the column count and
// defaults to left.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		for _, row := range rows {
			if len(row) > columns {
				columns = len(row)
			}
		}
	}
	if columns == 0 {
		return "[]"
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	if len(headers) > 0 {
		header := make(table.Row, columns)
		for i, name := range headers {
			header[i] = name
		}
		tw.AppendHeader(header)
	}
	for _, row := range rows {
		cells := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				cells[i] = row[i]
			} else {
				cells[i] = ""
			}
		}
		tw.AppendRow(cells)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
