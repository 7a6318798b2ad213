package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"NewsRanker/internal/domain"
)

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorGreen   = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	entityStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			MarginTop(1)

	scoreStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// RenderText writes a terminal digest of reports.
func RenderText(w io.Writer, reports ...domain.Report) error {
	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		writeReport(&b, r)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeReport(b *strings.Builder, r domain.Report) {
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s · %s", r.Vertical, r.ReportDate)))
	b.WriteString("\n")
	b.WriteString(metaStyle.Render(fmt.Sprintf(
		"candidates %d · clusters %d · seen before %d · entities %d/%d",
		r.Stats.TotalCandidates, r.Stats.Clusters, r.Stats.RemovedFreshOnly,
		len(r.Entities), r.Stats.EntitiesProcessed,
	)))
	b.WriteString("\n")

	if len(r.Entities) == 0 {
		b.WriteString(metaStyle.Render("Nothing newsworthy."))
		b.WriteString("\n")
		return
	}

	for _, res := range r.Entities {
		b.WriteString(entityStyle.Render(res.Entity))
		b.WriteString("\n")
		for _, s := range res.Top {
			fmt.Fprintf(b, "  %s %s\n", scoreStyle.Render(fmt.Sprintf("%5.1f", s.Score)), s.Cluster.Title)
			fmt.Fprintf(b, "        %s\n", metaStyle.Render(s.Cluster.SourceKey+" · "+s.Cluster.URL))
			fmt.Fprintf(b, "        %s\n", metaStyle.Render(s.WhyRanked))
		}
		if len(res.Glance) > 0 {
			b.WriteString("  " + metaStyle.Render("At a glance:") + "\n")
			for _, s := range res.Glance {
				fmt.Fprintf(b, "  %s %s\n", metaStyle.Render(fmt.Sprintf("%5.1f", s.Score)), s.Cluster.Title)
			}
		}
	}
}
