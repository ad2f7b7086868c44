package commands

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"truthtrack-assistant/internal/assistant"
	"truthtrack-assistant/internal/state"
)

var (
	accent = lipgloss.Color("#00ff9f")
	dim    = lipgloss.Color("#6e7681")
	warn   = lipgloss.Color("#ffb86c")
	bad    = lipgloss.Color("#ff5555")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	helpStyle     = lipgloss.NewStyle().Foreground(dim)
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(bad)
	responseStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1)
)

func phaseStyle(p state.Phase) lipgloss.Style {
	switch p {
	case state.PhaseListening:
		return lipgloss.NewStyle().Bold(true).Foreground(accent)
	case state.PhaseProcessing:
		return lipgloss.NewStyle().Bold(true).Foreground(warn)
	case state.PhaseError:
		return lipgloss.NewStyle().Bold(true).Foreground(bad)
	}
	return lipgloss.NewStyle().Foreground(dim)
}

func renderBanner() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TruthTrack voice assistant"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Try asking:"))
	b.WriteString("\n")
	for i, s := range assistant.Suggestions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
	}
	b.WriteString(helpStyle.Render(replHelp))
	return b.String()
}

// renderState draws one status update. Transcript and response lines are
// only shown when present.
func renderState(s assistant.State) string {
	var lines []string

	status := "[" + strings.ToLower(s.Phase.String()) + "]"
	if s.Speaking {
		status += " speaking"
	}
	lines = append(lines, phaseStyle(s.Phase).Render(status))

	if s.Transcript != "" {
		lines = append(lines, labelStyle.Render("You: ")+s.Transcript)
	}
	if s.Error != "" {
		lines = append(lines, errorStyle.Render(s.Error))
	}
	if s.Response != "" && s.Phase == state.PhaseIdle {
		body := s.Response
		if s.RelevantFeature != "" {
			body += "\n" + helpStyle.Render("Feature: "+s.RelevantFeature)
		}
		if s.SuggestedAction != "" {
			body += "\n" + helpStyle.Render("Next: "+s.SuggestedAction)
		}
		lines = append(lines, responseStyle.Render(body))
	}

	return strings.Join(lines, "\n")
}

// printer writes state updates as they arrive. Consecutive Listening
// updates only print the interim transcript.
type printer struct {
	out io.Writer

	mu   sync.Mutex
	last state.Phase
	seen bool
}

func (p *printer) Print(s assistant.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.seen && s.Phase == state.PhaseListening && p.last == state.PhaseListening {
		if s.Transcript != "" {
			fmt.Fprintln(p.out, helpStyle.Render("... "+s.Transcript))
		}
		return
	}
	p.last, p.seen = s.Phase, true
	fmt.Fprintln(p.out, renderState(s))
}
