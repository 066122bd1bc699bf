package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/textinput"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"

	"corescope/internal/catalog"
	"corescope/internal/corescope/styles"
	"corescope/internal/session"
)

type viewMode int

const (
	viewConsole viewMode = iota
	viewStructures
)

const maxHistory = 200

type structureItem struct {
	name      string
	size      uint64
	fields    int
	constants int
}

func (i structureItem) FilterValue() string { return i.name }

type structureDelegate struct{}

func (d structureDelegate) Height() int                               { return 1 }
func (d structureDelegate) Spacing() int                              { return 0 }
func (d structureDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d structureDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(structureItem)
	if !ok {
		return
	}

	indicator, style := " ", styles.Normal
	if index == m.Index() {
		indicator, style = ">", styles.Selected
	}
	fmt.Fprintf(w, " %s  %-40s %s", indicator, i.name,
		style.Render(fmt.Sprintf("%d bytes, %d fields, %d constants", i.size, i.fields, i.constants)))
}

func structureItems(c *catalog.Catalog) []list.Item {
	items := make([]list.Item, 0, c.Len())
	for _, s := range c.Structures() {
		items = append(items, structureItem{
			name:      s.Name,
			size:      s.Size,
			fields:    len(s.Fields()),
			constants: len(s.Constants()),
		})
	}
	return items
}

// resultMsg carries the output of one command run off the UI goroutine.
type resultMsg struct {
	line   string
	output string
	err    error
}

type console struct {
	session    *session.Session
	input      textinput.Model
	output     viewport.Model
	structures list.Model
	spinner    spinner.Model
	mode       viewMode
	running    bool
	transcript []string
	history    []string
	histPos    int
	width      int
	height     int
}

func newConsole(s *session.Session) console {
	in := textinput.New()
	in.Prompt = styles.Prompt.Render(prompt)
	in.Placeholder = "help"
	in.CharLimit = 512

	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(21)

	structures := list.New(structureItems(s.Context.Catalog), structureDelegate{}, 80, 22)
	structures.SetShowStatusBar(false)
	structures.SetFilteringEnabled(true)
	structures.Title = fmt.Sprintf("Structures (%d)", s.Context.Catalog.Len())
	structures.Styles.Title = styles.Title
	structures.SetShowHelp(true)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Selected

	m := console{
		session:    s,
		input:      in,
		output:     vp,
		structures: structures,
		spinner:    sp,
		width:      80,
		height:     24,
	}
	m.transcript = []string{fmt.Sprintf("corescope: %s, %s. Type help for commands, tab to browse structures.",
		s.Target, s.Context.Bitness)}
	m.refresh()
	return m
}

func (m console) Init() tea.Cmd {
	return m.input.Focus()
}

func execLine(s *session.Session, line string) tea.Cmd {
	return func() tea.Msg {
		var buf bytes.Buffer
		err := s.Exec(line, &buf)
		return resultMsg{line: line, output: buf.String(), err: err}
	}
}

// submit starts running line. It returns the command to run, or quit when
// the line asks to leave.
func (m *console) submit(line string) (cmd tea.Cmd, quit bool) {
	line = strings.TrimSpace(line)
	if line == "" || m.running {
		return nil, false
	}
	if isQuit(line) {
		return nil, true
	}

	m.history = append(m.history, line)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.histPos = len(m.history)
	m.running = true
	m.transcript = append(m.transcript, styles.Echo.Render(prompt+line))
	m.refresh()
	return execLine(m.session, line), false
}

func (m *console) appendResult(msg resultMsg) {
	m.running = false

	name, _ := session.SplitLine(msg.line)
	out := strings.TrimRight(msg.output, "\n")
	if name == "help" && msg.err == nil {
		out = styles.RenderMarkdown(msg.output, m.width-2)
	}
	if out != "" {
		m.transcript = append(m.transcript, out)
	}
	if msg.err != nil {
		m.transcript = append(m.transcript, styles.Error.Render("error: "+msg.err.Error()))
	}
	m.refresh()
}

// recall moves through the input history; delta is -1 for older entries.
func (m *console) recall(delta int) {
	if len(m.history) == 0 {
		return
	}
	m.histPos = min(max(m.histPos+delta, 0), len(m.history))
	if m.histPos == len(m.history) {
		m.input.SetValue("")
		return
	}
	m.input.SetValue(m.history[m.histPos])
	m.input.CursorEnd()
}

func (m *console) refresh() {
	m.output.SetContent(strings.Join(m.transcript, "\n"))
	m.output.GotoBottom()
}

func (m console) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case resultMsg:
		m.appendResult(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.output.SetWidth(msg.Width)
		m.output.SetHeight(max(msg.Height-3, 1))
		m.structures.SetWidth(msg.Width)
		m.structures.SetHeight(max(msg.Height-2, 1))
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.mode == viewStructures && m.structures.FilterState() == list.Filtering {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			m.structures, cmd = m.structures.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab":
			if m.mode == viewConsole && m.session.Context.Catalog.Len() > 0 {
				m.mode = viewStructures
			} else {
				m.mode = viewConsole
			}
			return m, nil
		case "esc":
			m.mode = viewConsole
			return m, nil
		case "enter":
			line := m.input.Value()
			if m.mode == viewStructures {
				item, ok := m.structures.SelectedItem().(structureItem)
				if !ok {
					return m, nil
				}
				line = "showflags " + item.name
				m.mode = viewConsole
			}
			run, quit := m.submit(line)
			if quit {
				return m, tea.Quit
			}
			if run == nil {
				return m, nil
			}
			m.input.Reset()
			return m, tea.Batch(run, m.spinner.Tick)
		}

		if m.mode == viewStructures {
			m.structures, cmd = m.structures.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "up":
			m.recall(-1)
			return m, nil
		case "down":
			m.recall(1)
			return m, nil
		case "pgup", "pgdown":
			m.output, cmd = m.output.Update(msg)
			return m, cmd
		}
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.mode == viewStructures {
		m.structures, cmd = m.structures.Update(msg)
		return m, cmd
	}
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m console) View() string {
	var menu string
	var content string
	switch m.mode {
	case viewStructures:
		content = m.structures.View()
		menu = " Enter: showflags • /: filter • Esc: console • Q: quit "
	default:
		line := m.input.View()
		if m.running {
			line = m.spinner.View() + " running..."
		}
		content = m.output.View() + "\n" + line
		menu = " Tab: structures • ↑/↓: history • PgUp/PgDn: scroll • Ctrl+C: quit "
	}
	return content + "\n" + styles.MenuBar.Width(m.width).Render(menu)
}
