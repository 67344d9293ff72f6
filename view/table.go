// Package view renders search results for the terminal.
package view

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"

	"github.com/xeptore/sadl/slavart"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
)

var headers = []string{"No", "Id", "Title", "isrc", "Performer"}

// Table lays tracks out one per row, numbered from 1 in their given order.
func Table(tracks []slavart.Track) string {
	rows := lo.Map(tracks, func(t slavart.Track, i int) []string {
		return []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(t.ID, 10),
			t.Title,
			t.ISRC,
			t.Performer.String(),
		}
	})

	return table.
		New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
