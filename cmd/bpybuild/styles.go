// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette for dark terminals. Task results use the status colors, paths and
// commands the highlight color.
const (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorMuted     = lipgloss.Color("#6B7280")
	colorSuccess   = lipgloss.Color("#10B981")
	colorError     = lipgloss.Color("#EF4444")
	colorWarning   = lipgloss.Color("#F59E0B")
	colorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle renders report headings.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	// SubtitleStyle renders counts, hints and other secondary text.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// SuccessStyle marks tasks that succeeded.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	// ErrorStyle marks failed builds and packages.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError)

	// WarningStyle marks failed smoke tests, which do not fail the run.
	WarningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	// CmdStyle renders artifact, wheel and log paths.
	CmdStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	summaryPairStyle = lipgloss.NewStyle().
				Width(28)

	summaryElapsedStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Width(10).
				Align(lipgloss.Right)
)

const (
	iconSuccess = "✓"
	iconFailure = "✗"
	iconWarning = "!"
)
