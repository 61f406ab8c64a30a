package ui

import (
	"github.com/charmbracelet/lipgloss"

	"library-search/library"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	activeTab    = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	inactiveTab  = lipgloss.NewStyle().Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)

	statusStyles = map[library.Availability]lipgloss.Style{
		library.AvailabilityAvailable: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		library.AvailabilityLoaned:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		library.AvailabilityUnknown:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
)

// StatusStyle returns the style for a holding status string.
func StatusStyle(status string) lipgloss.Style {
	return statusStyles[library.ClassifyStatus(status)]
}
