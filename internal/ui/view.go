package ui

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	buttonStyle = lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder())
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// Indexes into sections of the clickable parts
const (
	logoSection   = 2
	buttonSection = 6
)

// sections are the stacked blocks of the view, top to bottom
func (m model) sections() []string {
	accent := lipgloss.Color(m.opts.Color)

	logo := lipgloss.NewStyle().Foreground(accent).Bold(true).Render(logoFrame(m.angle))

	label := "Play"
	if m.playing {
		label = "Pause"
	}
	button := buttonStyle.BorderForeground(accent).Render(label)

	help := helpStyle.Render(fmt.Sprintf("p/space %s • 1 schedule • 2 chart • 3 site • q quit", label))

	return []string{
		titleStyle.Render(m.opts.AppName),
		"",
		logo,
		"",
		m.title,
		"",
		button,
		"",
		help,
	}
}

func (m model) View() string {
	body := lipgloss.JoinVertical(lipgloss.Center, m.sections()...)

	if m.width == 0 || m.height == 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

// onControl reports whether terminal row y falls on the logo or the button
func (m model) onControl(y int) bool {
	sections := m.sections()

	bodyHeight := 0
	for _, s := range sections {
		bodyHeight += lipgloss.Height(s)
	}

	// Same vertical split lipgloss.Place uses for centered content
	row := 0
	if m.width > 0 && m.height > 0 {
		if gap := m.height - bodyHeight; gap > 0 {
			row = gap - int(math.Round(float64(gap)*0.5))
		}
	}

	for i, s := range sections {
		h := lipgloss.Height(s)
		if (i == logoSection || i == buttonSection) && y >= row && y < row+h {
			return true
		}
		row += h
	}
	return false
}
