package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/okian/kartelo/internal/domain/types"
)

// RenderLeaderboard prints entries as a rounded table.
func RenderLeaderboard(w io.Writer, entries []types.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleRounded
	style.Format.Header = text.FormatDefault // headers print as written
	t.SetStyle(style)
	t.AppendHeader(table.Row{"#", "Player", "Rating", "Peak", "Races"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Rank, e.Player, fmt.Sprintf("%.1f", e.Rating), fmt.Sprintf("%.1f", e.Peak), e.Races})
	}
	t.Render()
}
