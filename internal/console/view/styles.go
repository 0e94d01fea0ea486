// Package view renders console output: aligned tables and status banners.
package view

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the console.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Body   lipgloss.Style
	Muted  lipgloss.Style
	Good   lipgloss.Style
	Warn   lipgloss.Style
	Bad    lipgloss.Style
}

// DefaultStyles returns the console palette. Colour is dropped automatically
// when output is not a terminal.
func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header: lipgloss.NewStyle().Bold(true),
		Body:   lipgloss.NewStyle(),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Good:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Bad:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Banner renders a one-line message in the given style.
func Banner(style lipgloss.Style, msg string) string {
	return style.Render(msg) + "\n"
}
