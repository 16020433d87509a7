package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/extres/modules"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func (a *app) cmdTUI() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive inspector for the resource table and arena",
		Long: `Interactive inspector for the resource table and arena.
Falls back to the demo when standard output is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				fmt.Fprintln(cmd.ErrOrStderr(), "stdout is not a terminal, running demo")
				return a.runDemo(ctx, cmd.OutOrStdout())
			}

			var src modules.Source = builtinModules
			if dir != "" {
				src = modules.DirSource{Dir: dir}
			}
			s, err := newSession(ctx, a.cfg, src)
			if err != nil {
				return err
			}
			return runInspector(s)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Module directory (default: built-in sample modules)")
	return cmd
}

type inspectorModel struct {
	err    error
	s      *session
	output string
	input  textinput.Model
}

func newInspectorModel(s *session) *inspectorModel {
	ti := textinput.New()
	ti.Placeholder = "load add"
	ti.Prompt = "> "
	ti.Width = 40
	ti.Focus()
	return &inspectorModel{s: s, input: ti, output: "type help for commands"}
}

func (m *inspectorModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "quit" || line == "exit" {
				return m, tea.Quit
			}
			m.output, m.err = m.s.exec(line)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *inspectorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Resource Inspector"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("Modules"))
	b.WriteString("\n")
	infos := m.s.lib.Snapshot()
	if len(infos) == 0 {
		b.WriteString(helpStyle.Render("  none loaded"))
		b.WriteString("\n")
	}
	for _, info := range infos {
		line := "  " + formatInfo(info)
		if info.Pending {
			line = pendingStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Arena"))
	b.WriteString("\n  ")
	b.WriteString(formatMetrics(m.s.arena.Metrics()))
	b.WriteString(fmt.Sprintf("\n  grants: %d/%d\n", m.s.grants.Len(), m.s.grants.Cap()))

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Recent events"))
	b.WriteString("\n")
	for _, e := range m.s.events.All() {
		b.WriteString("  ")
		b.WriteString(e)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else {
		b.WriteString(resultStyle.Render(m.output))
	}
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter run • help commands • esc quit"))

	return b.String()
}

func runInspector(s *session) error {
	p := tea.NewProgram(newInspectorModel(s), tea.WithAltScreen())
	_, err := p.Run()
	if cerr := s.close(); err == nil {
		err = cerr
	}
	return err
}
