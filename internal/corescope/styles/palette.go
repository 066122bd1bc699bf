package styles

import (
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

const (
	Foreground = "#D4D4D4"
	InlineCode = "#EACD53"
	Muted      = "#858585"
	ErrorRed   = "#F44747"
)

// Console styles.
var (
	Prompt   = lipgloss.NewStyle().Foreground(lipgloss.Color(charmtone.Malibu.Hex())).Bold(true)
	Echo     = lipgloss.NewStyle().Foreground(lipgloss.Color(Muted))
	Error    = lipgloss.NewStyle().Foreground(lipgloss.Color(ErrorRed))
	Title    = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).MarginLeft(2)
	Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	Normal   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	MenuBar  = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)
