package display

import (
	"fmt"
	"strings"
	"time"

	"sunburst/pkg/usage"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// datasetMsg carries a rendered dataset into the program.
type datasetMsg struct {
	ds      usage.Dataset
	created bool
	at      time.Time
}

// model is the bubbletea model behind the TUI sink.
type model struct {
	theme    *Theme
	viewport viewport.Model
	ready    bool
	content  string
	status   string
	updates  int
}

func newModel(theme *Theme) model {
	return model{theme: theme, status: "waiting for data"}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		height := msg.Height - 2
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		return m, nil
	case datasetMsg:
		m.content = renderTree(msg.ds, m.theme)
		m.updates++
		verb := "updated"
		if msg.created {
			verb = "loaded"
		}
		m.status = fmt.Sprintf("%s %d entries at %s", verb, len(msg.ds.Points), msg.at.Format(time.TimeOnly))
		if m.ready {
			m.viewport.SetContent(m.content)
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "Loading…\n"
	}
	var sb strings.Builder
	sb.WriteString(m.theme.Styled(m.theme.Bold, m.theme.IconDisk+" Disk usage"))
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.theme.Styled(m.theme.Dim, m.status+"  (q to quit)"))
	return sb.String()
}

// TUI is an interactive Sink backed by a bubbletea program. Run blocks until
// the user quits; Create and Update may be called from any goroutine.
type TUI struct {
	program *tea.Program
}

// NewTUI creates the interactive sink.
func NewTUI(opts ...tea.ProgramOption) *TUI {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return &TUI{program: tea.NewProgram(newModel(DefaultTheme()), opts...)}
}

// Run starts the program and blocks until it exits.
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Quit stops the program.
func (t *TUI) Quit() {
	t.program.Quit()
}

func (t *TUI) Create(ds usage.Dataset, layout Layout) error {
	t.program.Send(datasetMsg{ds: ds, created: true, at: time.Now()})
	return nil
}

func (t *TUI) Update(ds usage.Dataset, layout Layout) error {
	t.program.Send(datasetMsg{ds: ds, at: time.Now()})
	return nil
}
