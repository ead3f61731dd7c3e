package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Rani367/Hativon-sub000/internal/autosave"
	"github.com/Rani367/Hativon-sub000/internal/draft"
	"github.com/Rani367/Hativon-sub000/internal/model"
)

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	outputStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyles = map[autosave.Status]lipgloss.Style{
		autosave.StatusIdle:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		autosave.StatusSaving:   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		autosave.StatusSaved:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		autosave.StatusError:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		autosave.StatusConflict: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
	}
)

// ui serialises terminal output from the status callback and the command loop.
type ui struct {
	mu  sync.Mutex
	out io.Writer
}

func (u *ui) println(s string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintln(u.out, s)
}

func (u *ui) info(format string, args ...any) {
	u.println(outputStyle.Render(fmt.Sprintf(format, args...)))
}

func (u *ui) prompt() {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprint(u.out, promptStyle.Render("> "))
}

func renderStatus(o autosave.Outcome) string {
	label := statusStyles[o.Status].Render(fmt.Sprintf("[%s]", o.Status))
	stamp := mutedStyle.Render(time.Now().Format("15:04:05"))

	switch o.Status {
	case autosave.StatusSaved:
		if o.Response == nil {
			break
		}
		return fmt.Sprintf("%s %s version %s", stamp, label, o.Response.UpdatedAt)
	case autosave.StatusError:
		hint := "type 'retry' to resend"
		if !draft.IsRetryable(o.Err) {
			hint = "fix the document and save again"
		}
		return fmt.Sprintf("%s %s %v (%s)", stamp, label, o.Err, hint)
	case autosave.StatusConflict:
		if o.Conflict == nil {
			break
		}
		return fmt.Sprintf("%s %s %s\n%s", stamp, label,
			"someone else saved this draft since you opened it",
			describeConflict(o.Snapshot, o.Conflict))
	}
	return fmt.Sprintf("%s %s", stamp, label)
}

func describeConflict(local model.Fields, c *draft.ConflictError) string {
	s := fmt.Sprintf("  server version: %s\n", c.ServerVersion)
	diff := func(name string, mine, theirs *string) {
		if mine == nil || theirs == nil || *mine == *theirs {
			return
		}
		s += fmt.Sprintf("  %s differs (yours %d chars, server %d chars)\n", name, len(*mine), len(*theirs))
	}
	diff("title", local.Title, c.ServerContent.Title)
	diff("content", local.Content, c.ServerContent.Content)
	diff("description", local.Description, c.ServerContent.Description)
	diff("cover", local.CoverImage, c.ServerContent.CoverImage)
	diff("byline", local.CustomAuthor, c.ServerContent.CustomAuthor)
	s += "  answer with 'overwrite', 'reload' or 'continue'"
	return s
}
