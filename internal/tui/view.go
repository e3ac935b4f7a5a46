package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"kderelay/internal/relay"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))

	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	faintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	availableStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	unavailableStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	warnStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Status labels shown for the selected device.
const (
	LabelAvailable   = "Available"
	LabelUnavailable = "Unavailable"
	LabelNoDevice    = "No active device"
)

// StatusLabel returns the status line for a snapshot.
func StatusLabel(snap relay.Snapshot) string {
	if len(snap.Endpoints) == 0 {
		return LabelNoDevice
	}
	if snap.Ready() {
		return LabelAvailable
	}
	return LabelUnavailable
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("kderelay"))
	b.WriteString(faintStyle.Render("  type to send keys to the selected device"))
	b.WriteString("\n\n")

	b.WriteString(m.deviceList())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m Model) deviceList() string {
	if !m.haveSnap {
		return boxStyle.Render(faintStyle.Render("looking for devices..."))
	}
	if len(m.snap.Endpoints) == 0 {
		return boxStyle.Render(faintStyle.Render(LabelNoDevice))
	}

	lines := make([]string, 0, len(m.snap.Endpoints))
	for i, ep := range m.snap.Endpoints {
		label := ep.Label()
		if ep.Name == "" {
			label = faintStyle.Render(label)
		}
		if i == m.snap.Selected {
			lines = append(lines, cursorStyle.Render("> ")+label)
		} else {
			lines = append(lines, "  "+label)
		}
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) statusLine() string {
	label := StatusLabel(m.snap)
	var parts []string
	switch label {
	case LabelAvailable:
		parts = append(parts, availableStyle.Render(label))
	case LabelUnavailable:
		parts = append(parts, unavailableStyle.Render(label))
	default:
		parts = append(parts, faintStyle.Render(label))
	}

	if m.snap.Pending > 0 {
		parts = append(parts, fmt.Sprintf("%d pending", m.snap.Pending))
	}
	if m.snap.FailureStreak > 0 {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("retrying (%d failed)", m.snap.FailureStreak)))
	}
	if m.dropped > 0 {
		parts = append(parts, faintStyle.Render(fmt.Sprintf("%d ignored", m.dropped)))
	}
	return strings.Join(parts, faintStyle.Render(" · "))
}
