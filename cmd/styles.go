// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import "github.com/charmbracelet/lipgloss"

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("12")).
	Background(lipgloss.Color("235")).
	Padding(0, 1)

var headerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("241"))

var labelStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("12")).
	Bold(true).
	Width(14)

var valueStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("10"))

var errorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("9")).
	Bold(true)

var warningStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("11"))

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(0, 1)

func field(label, value string) string {
	return labelStyle.Render(label) + " " + valueStyle.Render(value)
}
