package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/tallr-app/tallr/internal/core"
)

// Row is one task prepared for display.
type Row struct {
	TaskID  string
	Project string
	Agent   string
	Title   string
	State   core.TaskState
	Details string
	Pinned  bool
	Age     time.Duration
}

// BuildRows flattens a snapshot into display rows: pinned tasks first, then
// oldest to newest. Age is measured from the task's last update.
func BuildRows(snap *core.Snapshot, now time.Time) []Row {
	if snap == nil {
		return nil
	}

	rows := make([]Row, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		project := t.ProjectID
		if p, ok := snap.Projects[t.ProjectID]; ok {
			project = p.Name
		}
		details := ""
		if t.Details != nil {
			details = *t.Details
		}
		rows = append(rows, Row{
			TaskID:  t.ID,
			Project: project,
			Agent:   t.Agent,
			Title:   t.Title,
			State:   t.State,
			Details: details,
			Pinned:  t.Pinned,
			Age:     now.Sub(time.Unix(t.UpdatedAt, 0)),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Pinned != rows[j].Pinned {
			return rows[i].Pinned
		}
		if rows[i].Age != rows[j].Age {
			return rows[i].Age > rows[j].Age
		}
		return rows[i].TaskID < rows[j].TaskID
	})

	return rows
}

// Filter keeps rows fuzzy-matching the query on project, agent, and title,
// best matches first. An empty query keeps everything.
func Filter(rows []Row, query string) []Row {
	if query == "" {
		return rows
	}

	haystack := make([]string, len(rows))
	for i, r := range rows {
		haystack[i] = r.Project + " " + r.Agent + " " + r.Title
	}

	matches := fuzzy.Find(query, haystack)
	out := make([]Row, 0, len(matches))
	for _, m := range matches {
		out = append(out, rows[m.Index])
	}
	return out
}

const (
	stateColWidth   = 8
	maxProjectWidth = 20
	maxAgentWidth   = 12
	maxTitleWidth   = 40
)

var cellStyle = lipgloss.NewStyle()

// RenderTable renders rows as an aligned, state-colored table. Returns the
// placeholder line when there is nothing to show.
func RenderTable(rows []Row) string {
	if len(rows) == 0 {
		return MutedStyle.Render("No active sessions") + "\n"
	}

	projectW := columnWidth(rows, "PROJECT", maxProjectWidth, func(r Row) string { return r.Project })
	agentW := columnWidth(rows, "AGENT", maxAgentWidth, func(r Row) string { return r.Agent })
	titleW := columnWidth(rows, "TITLE", maxTitleWidth, func(r Row) string { return r.Title })

	// Width pads by visible width, so styled cells stay aligned.
	cell := func(style lipgloss.Style, s string, w int) string {
		return style.Width(w + 2).Render(truncate(s, w))
	}

	var b strings.Builder

	b.WriteString("  ")
	b.WriteString(cell(HeaderStyle, "STATE", stateColWidth))
	b.WriteString(cell(HeaderStyle, "PROJECT", projectW))
	b.WriteString(cell(HeaderStyle, "AGENT", agentW))
	b.WriteString(cell(HeaderStyle, "TITLE", titleW))
	b.WriteString(HeaderStyle.Render("AGE"))
	b.WriteString("\n")

	for _, r := range rows {
		if r.Pinned {
			b.WriteString(PinStyle.Render("*") + " ")
		} else {
			b.WriteString("  ")
		}
		b.WriteString(cell(StateStyle(r.State), r.State.String(), stateColWidth))
		b.WriteString(cell(cellStyle, r.Project, projectW))
		b.WriteString(cell(cellStyle, r.Agent, agentW))
		b.WriteString(cell(cellStyle, r.Title, titleW))
		b.WriteString(MutedStyle.Render(FormatAge(r.Age)))
		b.WriteString("\n")
	}

	return b.String()
}

func columnWidth(rows []Row, header string, max int, get func(Row) string) int {
	w := utf8.RuneCountInString(header)
	for _, r := range rows {
		if n := utf8.RuneCountInString(get(r)); n > w {
			w = n
		}
	}
	if w > max {
		return max
	}
	return w
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// FormatAge formats a duration for display.
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%02ds", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%02dm", hours, mins)
}
