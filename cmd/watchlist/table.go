package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/narwhalmedia/watchlist/internal/catalog/codec"
	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
)

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

func renderTitles(titles []domain.Title) string {
	if len(titles) == 0 {
		return "No titles"
	}
	headers := []string{"Name", "Kind", "Year", "Genre", "Rating", "Status", "Progress"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignRight}

	rows := make([][]string, 0, len(titles))
	for _, t := range titles {
		rows = append(rows, []string{
			t.Name,
			string(t.Kind),
			strconv.Itoa(t.ReleaseYear),
			truncate(t.Genre, 32),
			codec.FormatRating(t.UserRating),
			string(t.Status),
			fmt.Sprintf("%d/%d", t.Progress, t.TotalUnits),
		})
	}
	return renderTable(headers, rows, aligns)
}

func renderTitle(t domain.Title) string {
	rows := [][]string{
		{"Name", t.Name},
		{"Kind", string(t.Kind)},
		{"Year", strconv.Itoa(t.ReleaseYear)},
		{"Genre", t.Genre},
		{"Rating", codec.FormatRating(t.UserRating)},
		{"Status", string(t.Status)},
		{"Progress", fmt.Sprintf("%d/%d", t.Progress, t.TotalUnits)},
		{"Description", truncate(t.Description, 80)},
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

func truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
