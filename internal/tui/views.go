package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/felixgeelhaar/oneway/internal/model"
)

// MembersTable renders members with their derived status.
func MembersTable(members []model.Member, color bool) string {
	styles := NewStyles(color)

	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{m.FirstName, m.LastName, m.Email, m.Role, m.Status()})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("FIRST NAME", "LAST NAME", "EMAIL", "ROLE", "STATUS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			if col == 4 && row >= 0 && row < len(members) {
				if members[row].PasswordSet {
					return styles.Cell.Inherit(styles.Success)
				}
				return styles.Cell.Inherit(styles.Warning)
			}
			return styles.Cell
		})
	if color {
		t = t.BorderStyle(lipgloss.NewStyle().Foreground(styles.Border))
	}
	return t.String()
}

// Dashboard renders the greeting and, when present, the members list.
func Dashboard(message string, members []model.Member, color bool) string {
	styles := NewStyles(color)

	var b strings.Builder
	b.WriteString(styles.Title.Render(message))
	b.WriteString("\n")

	if members == nil {
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(styles.Title.Render("Your Members"))
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("Add and remove team members that will use OneWay"))
	b.WriteString("\n")
	if len(members) == 0 {
		b.WriteString(styles.Muted.Render("No members yet. Add one with 'oneway members add'."))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(MembersTable(members, color))
	b.WriteString("\n")
	return b.String()
}

// Notice renders a one-line status message.
func Notice(kind, message string, color bool) string {
	styles := NewStyles(color)
	switch kind {
	case "success":
		return styles.Success.Render("✓ ") + message
	case "error":
		return styles.Error.Render("✗ ") + message
	case "warning":
		return styles.Warning.Render("! ") + message
	default:
		return message
	}
}

// KeyValues renders aligned label/value pairs.
func KeyValues(pairs [][2]string, color bool) string {
	styles := NewStyles(color)

	width := 0
	for _, p := range pairs {
		width = max(width, len(p[0]))
	}

	var b strings.Builder
	for _, p := range pairs {
		label := fmt.Sprintf("%-*s", width+1, p[0]+":")
		b.WriteString(styles.Muted.Render(label))
		b.WriteString(" ")
		b.WriteString(p[1])
		b.WriteString("\n")
	}
	return b.String()
}
