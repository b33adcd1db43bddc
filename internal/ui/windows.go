package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bnema/wltoplevel/internal/client"
	"github.com/bnema/wltoplevel/internal/toplevel"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// stateStyles colors the STATE column.
var stateStyles = map[string]lipgloss.Style{
	toplevel.Maximized.String():  InfoStyle,
	toplevel.Minimized.String():  SubtleStyle,
	toplevel.Fullscreen.String(): lipgloss.NewStyle().Foreground(ColorSecondary),
}

// WindowTable renders windows as a bordered table.
func WindowTable(windows []client.Window) string {
	rows := make([][]string, 0, len(windows))
	for _, w := range windows {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(w.ID), 10),
			placeholder(w.Title),
			placeholder(w.AppID),
			w.State,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorSubtle)).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return base.Foreground(ColorPrimary).Bold(true)
			case col == 0:
				return base.Foreground(ColorInfo).Bold(true)
			case col == 3 && row >= 0 && row < len(rows):
				if s, ok := stateStyles[rows[row][3]]; ok {
					return base.Inherit(s)
				}
			}
			return base.Foreground(ColorText)
		}).
		Headers("ID", "TITLE", "APP ID", "STATE").
		Rows(rows...)

	return t.String()
}

// FormatCount summarizes the number of windows listed.
func FormatCount(n int) string {
	if n == 0 {
		return SubtleStyle.Render("No windows")
	}
	return SubtleStyle.Render(fmt.Sprintf("Total: %d window(s)", n))
}

// FormatSignal renders one service signal as a log line.
func FormatSignal(at time.Time, s client.Signal) string {
	line := SubtleStyle.Render(at.Format("15:04:05")) + " " +
		signalStyle(s.Kind).Render(fmt.Sprintf("%-12s", s.Kind)) + " " +
		ControlKeyStyle.Render(strconv.FormatUint(uint64(s.ID), 10))
	if s.Kind == toplevel.ChangeTitle || s.Kind == toplevel.ChangeAppID {
		line += " " + TextStyle.Render(strconv.Quote(s.Value))
	}
	return line
}

func signalStyle(k toplevel.ChangeKind) lipgloss.Style {
	switch k {
	case toplevel.ChangeOpened:
		return SuccessStyle
	case toplevel.ChangeClosed:
		return ErrorStyle
	case toplevel.ChangeActivated:
		return WarningStyle
	default:
		return InfoStyle
	}
}

func placeholder(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
