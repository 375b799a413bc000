package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/noah-isme/festival-live-api/internal/models"
)

const clearScreen = "\033[H\033[2J"

// TerminalRenderer draws a View as text tables.
type TerminalRenderer struct {
	out   io.Writer
	clear bool

	title  *color.Color
	accent *color.Color
	muted  *color.Color
	winner *color.Color
	podium [3]*color.Color
}

// NewTerminalRenderer writes to out. With plain set, no colours or screen
// clearing codes are emitted.
func NewTerminalRenderer(out io.Writer, plain bool) *TerminalRenderer {
	r := &TerminalRenderer{
		out:    out,
		clear:  !plain,
		title:  color.New(color.FgHiWhite, color.Bold),
		accent: color.New(color.FgHiCyan, color.Bold),
		muted:  color.New(color.FgHiBlack),
		winner: color.New(color.FgHiYellow, color.Bold),
		podium: [3]*color.Color{
			color.New(color.FgYellow),
			color.New(color.FgWhite),
			color.New(color.FgRed),
		},
	}
	if plain {
		for _, c := range []*color.Color{r.title, r.accent, r.muted, r.winner, r.podium[0], r.podium[1], r.podium[2]} {
			c.DisableColor()
		}
	}
	return r
}

// Render draws one frame of the board.
func (r *TerminalRenderer) Render(v View) {
	var b strings.Builder
	if r.clear {
		b.WriteString(clearScreen)
	}

	status := "LIVE"
	if v.Finalized {
		status = "FINAL"
	}
	fmt.Fprintf(&b, "%s  %s\n\n", r.title.Sprint("FESTIVAL RESULTS"), r.accent.Sprint(status))

	switch v.State {
	case StateTransitioning:
		fmt.Fprintf(&b, "%s\n%s\n\n", r.accent.Sprint("Now announcing"), r.title.Sprint(strings.ToUpper(v.Headline)))
	case StateFinalizedScrolling:
		r.writeTracks(&b, v.Tracks)
	case StateFinalizedWinner:
		if v.Winner != nil {
			fmt.Fprintf(&b, "%s\n%s  %s pts\n\n", r.winner.Sprint("CHAMPIONS"), r.winner.Sprint(v.Winner.DisplayName), formatPoints(v.Winner.TotalPoints))
		}
	default:
		if v.Latest != nil {
			fmt.Fprintf(&b, "%s %s\n", r.accent.Sprint("Latest:"), r.title.Sprint(v.Latest.EventName))
			r.writePodium(&b, v.Latest.Placements)
			b.WriteString("\n")
		} else {
			fmt.Fprintf(&b, "%s\n\n", r.muted.Sprint("Waiting for results..."))
		}
	}

	r.writeLeaderboard(&b, v.Leaderboard)
	if v.State != StateFinalizedWinner {
		r.writeRecent(&b, v.Recent)
	}
	io.WriteString(r.out, b.String())
}

func (r *TerminalRenderer) writeTracks(b *strings.Builder, tracks []TrackView) {
	for _, t := range tracks {
		progress := "done"
		if !t.Finished && t.Total > 0 {
			progress = fmt.Sprintf("%d/%d", t.Position, t.Total)
		}
		fmt.Fprintf(b, "%s %s\n", r.accent.Sprint(t.Label), r.muted.Sprint(progress))
		if t.Current != nil {
			fmt.Fprintf(b, "%s\n", r.title.Sprint(t.Current.EventName))
			r.writePodium(b, t.Current.Placements)
		}
		b.WriteString("\n")
	}
}

func (r *TerminalRenderer) writePodium(b *strings.Builder, placements []models.EnrichedPlacement) {
	for _, p := range placements {
		line := fmt.Sprintf("  %d. %-24s %-10s %s", p.Rank, p.StudentName, p.InstitutionName, formatPoints(p.Points))
		if p.Rank >= 1 && p.Rank <= len(r.podium) {
			line = r.podium[p.Rank-1].Sprint(line)
		}
		b.WriteString(line + "\n")
	}
}

func (r *TerminalRenderer) writeLeaderboard(b *strings.Builder, entries []models.StandingsEntry) {
	table := tablewriter.NewWriter(b)
	table.SetHeader([]string{"#", "House", "Points"})
	table.SetBorder(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for i, e := range entries {
		table.Append([]string{strconv.Itoa(i + 1), e.DisplayName, formatPoints(e.TotalPoints)})
	}
	table.Render()
	b.WriteString("\n")
}

func (r *TerminalRenderer) writeRecent(b *strings.Builder, recent []models.EnrichedResult) {
	if len(recent) == 0 {
		return
	}
	table := tablewriter.NewWriter(b)
	table.SetHeader([]string{"Event", "Level", "Winner"})
	table.SetBorder(false)
	for _, res := range recent {
		lvl := ""
		if res.EventLevel != nil {
			lvl = levelLabel(*res.EventLevel)
		}
		winner := ""
		for _, p := range res.Placements {
			if p.Rank == 1 {
				winner = p.InstitutionName
			}
		}
		table.Append([]string{res.EventName, lvl, winner})
	}
	table.Render()
}

func formatPoints(points float64) string {
	return strconv.FormatFloat(points, 'f', -1, 64)
}
