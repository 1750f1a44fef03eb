package output

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Console palette.
var (
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorSuccess = lipgloss.Color("#04B575")
	ColorDanger  = lipgloss.Color("#FF5F87")
	ColorWarning = lipgloss.Color("#FFB454")
	ColorMuted   = lipgloss.Color("#6C6C6C")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Width(26)

	ValueStyle = lipgloss.NewStyle().
			Bold(true)

	PositiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	NegativeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorDanger)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	NoteStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)
)

// FormatCurrency renders a dollar amount with thousands separators.
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	neg := v < 0
	s := fmt.Sprintf("%.0f", math.Abs(v))
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// FormatPercent renders percent points with one decimal.
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v)
}

// deltaStyle picks the positive or negative style by sign.
func deltaStyle(v float64) lipgloss.Style {
	if v < 0 {
		return NegativeStyle
	}
	return PositiveStyle
}
