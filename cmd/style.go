package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stupside/pitchside/internal/catalog"
)

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorGreen   = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorRed     = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F87"}
	colorCyan    = lipgloss.AdaptiveColor{Light: "#0E7C86", Dark: "#5FD7FF"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	categoryStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Width(5)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	streamStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	failStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	byeStyle = lipgloss.NewStyle().
			Foreground(colorCyan)
)

func printMatch(w io.Writer, m catalog.Match) {
	fmt.Fprintln(w, titleStyle.Render(m.DisplayName))
	if m.Category != "" || m.Time != "" {
		fmt.Fprintln(w, dimStyle.Render(strings.TrimSpace(m.Category+"  "+m.Time)))
	}
	if len(m.Links) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  no broadcasts listed"))
		return
	}
	for i, l := range m.Links {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, l.Name, dimStyle.Render(l.Href))
	}
}

func printCatalogLine(w io.Writer, m catalog.Match) {
	fmt.Fprintf(w, "%s%s %s\n",
		categoryStyle.Render(m.Category),
		m.DisplayName,
		dimStyle.Render(fmt.Sprintf("(%d links)", len(m.Links))),
	)
}
