package render

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/trebuchet-org/deltasim/internal/domain"
	"github.com/trebuchet-org/deltasim/internal/usecase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HealthRenderer renders a server health report
type HealthRenderer struct {
	out io.Writer
}

// NewHealthRenderer creates a new health renderer
func NewHealthRenderer(out io.Writer) *HealthRenderer {
	return &HealthRenderer{out: out}
}

// Render renders the overall status followed by one row per fork
func (r *HealthRenderer) Render(report *usecase.HealthReport) error {
	uptime := formatDuration(time.Duration(report.Uptime) * time.Second)
	if report.Status == domain.HealthHealthy {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Server healthy (up %s)", uptime)))
	} else {
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("Server %s (up %s)", report.Status, uptime)))
	}

	if len(report.Forks) == 0 {
		fmt.Fprintln(r.out, "No forks started yet")
		return nil
	}
	fmt.Fprintln(r.out)

	t := newTable(r.out, table.Row{"Network", "Status", "Port", "Block", "Last Activity", "Error"})
	ids := lo.Keys(report.Forks)
	slices.Sort(ids)
	for _, id := range ids {
		f := report.Forks[id]
		lastActivity := "-"
		if f.LastActivity != nil {
			lastActivity = f.LastActivity.Local().Format(time.TimeOnly)
		}
		t.AppendRow(table.Row{id, formatStatus(f.Status), f.Port, f.BlockNumber, lastActivity, f.Error})
	}
	t.Render()

	return nil
}

func formatStatus(status domain.ForkStatus) string {
	label := cases.Title(language.English).String(string(status))
	switch status {
	case domain.ForkStatusRunning:
		return color.GreenString(label)
	case domain.ForkStatusStarting, domain.ForkStatusRefreshing:
		return color.YellowString(label)
	case domain.ForkStatusError:
		return color.RedString(label)
	default:
		return label
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

var _ Renderer[*usecase.HealthReport] = (*HealthRenderer)(nil)
