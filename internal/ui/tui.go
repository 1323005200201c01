// Package ui provides an optional terminal interface for browsing resolved
// tasks.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskmill/taskmill/internal/config"
)

// RunViewer starts a read-only TUI over a resolved task map.
func RunViewer(ctx context.Context, watch config.Watch, tasks map[config.TaskID]config.ResolvedTask) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := newViewerModel(watch, tasks)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

// IsTTY returns true if the writer is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, _ := f.Stat()
	return (info.Mode() & os.ModeCharDevice) != 0
}

type viewerModel struct {
	watch  config.Watch
	tasks  map[config.TaskID]config.ResolvedTask
	ids    []config.TaskID
	cursor int
	width  int
	height int
}

func newViewerModel(watch config.Watch, tasks map[config.TaskID]config.ResolvedTask) *viewerModel {
	ids := make([]config.TaskID, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return &viewerModel{watch: watch, tasks: tasks, ids: ids}
}

func (m *viewerModel) Init() tea.Cmd {
	return nil
}

func (m *viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.ids)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			if len(m.ids) > 0 {
				m.cursor = len(m.ids) - 1
			}
		}
	}
	return m, nil
}

func (m *viewerModel) View() string {
	var b strings.Builder

	b.WriteString("taskmill: resolved tasks")
	if m.watch.Enabled {
		b.WriteString("  (watch on")
		if m.watch.ForcePoll {
			b.WriteString(", polling")
		}
		b.WriteString(")")
	}
	b.WriteString("\n\n")

	if len(m.ids) == 0 {
		b.WriteString("  no tasks defined\n")
		b.WriteString("\nq quit\n")
		return b.String()
	}

	for i, id := range m.ids {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		task := m.tasks[id]
		status := ""
		if !task.Enabled {
			status = "  [disabled]"
		}
		fmt.Fprintf(&b, "%s%s%s\n", marker, id, status)
	}

	b.WriteString("\n")
	b.WriteString(m.detailView(m.ids[m.cursor]))
	b.WriteString("\nj/k move · q quit\n")
	return b.String()
}

func (m *viewerModel) detailView(id config.TaskID) string {
	task := m.tasks[id]
	var b strings.Builder

	fmt.Fprintf(&b, "── %s ──\n", id)
	if task.Name != "" {
		fmt.Fprintf(&b, "name:         %s\n", task.Name)
	}
	if task.Cron != "" {
		fmt.Fprintf(&b, "cron:         %s\n", task.Cron)
	}
	if len(task.Cmd) > 0 {
		fmt.Fprintf(&b, "cmd:          %s\n", strings.Join(task.Cmd, " "))
	}
	if len(task.CmdStop) > 0 {
		fmt.Fprintf(&b, "cmd-stop:     %s\n", strings.Join(task.CmdStop, " "))
	}
	fmt.Fprintf(&b, "stop-timeout: %dms\n", task.StopTimeout)
	fmt.Fprintf(&b, "on-start:     %v\n", task.OnStart)
	fmt.Fprintf(&b, "enabled:      %v\n", task.Enabled)

	if task.Shell != nil {
		fmt.Fprintf(&b, "shell:        %s\n", strings.Join(task.Shell, " "))
	} else {
		b.WriteString("shell:        (direct exec)\n")
	}
	if task.Path != nil {
		fmt.Fprintf(&b, "path:         %s (%s)\n", strings.Join(task.Path.Dirs, ":"), task.Path.Apply)
	} else {
		b.WriteString("path:         (inherited from process)\n")
	}
	if task.Env != nil {
		keys := make([]string, 0, len(task.Env.Vars))
		for k := range task.Env.Vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		mode := "replace"
		if task.Env.MergeEnv {
			mode = "merge"
		}
		fmt.Fprintf(&b, "env (%s):\n", mode)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s=%s\n", k, task.Env.Vars[k])
		}
	} else {
		b.WriteString("env:          (inherited from process)\n")
	}

	return b.String()
}
