// Package chatui is a terminal chat client for the assistant, useful for
// trying the bot without LINE.
package chatui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// chatAssistant answers one user message within a session.
type chatAssistant interface {
	Handle(ctx context.Context, userText, sessionID string) (string, error)
}

// modelInfo exposes the provider's active model and catalog for the /models
// command.
type modelInfo interface {
	GetModel() string
	ListModels(ctx context.Context) ([]string, error)
}

// localSession keys the in-process conversation history.
const localSession = "local"

type message struct {
	role    string // "user" or "assistant"
	content string
	isError bool
}

// Internal messages
type answerMsg string
type answerErrMsg struct{ err error }
type modelsMsg struct {
	active string
	names  []string
}

// Model implements tea.Model for the chat client.
type Model struct {
	assistant chatAssistant
	models    modelInfo
	renderer  MarkdownRenderer

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model

	messages []message
	busy     bool
	width    int
	ready    bool
}

// New creates the chat model. models may be nil, which disables /models;
// renderer may be nil, defaulting to glamour.
func New(assistant chatAssistant, models modelInfo, renderer MarkdownRenderer) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about a stock..."
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if renderer == nil {
		renderer = GlamourRenderer{}
	}

	return Model{
		assistant: assistant,
		models:    models,
		renderer:  renderer,
		input:     ti,
		viewport:  viewport.New(80, 20),
		spin:      sp,
		width:     80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 4
		m.ready = true
		m.refreshViewport()
		return m, nil

	case answerMsg:
		m.busy = false
		m.messages = append(m.messages, message{role: "assistant", content: string(msg)})
		m.refreshViewport()
		return m, nil

	case answerErrMsg:
		m.busy = false
		m.messages = append(m.messages, message{role: "assistant", content: msg.err.Error(), isError: true})
		m.refreshViewport()
		return m, nil

	case modelsMsg:
		m.busy = false
		m.messages = append(m.messages, message{role: "assistant", content: formatModels(msg.active, msg.names)})
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.busy {
		return m, nil
	}
	if text == "/models" {
		return m.listModels()
	}

	m.messages = append(m.messages, message{role: "user", content: text})
	m.input.Reset()
	m.busy = true
	m.refreshViewport()

	assistant := m.assistant
	return m, func() tea.Msg {
		answer, err := assistant.Handle(context.Background(), text, localSession)
		if err != nil {
			return answerErrMsg{err: err}
		}
		return answerMsg(answer)
	}
}

func (m Model) listModels() (tea.Model, tea.Cmd) {
	m.messages = append(m.messages, message{role: "user", content: "/models"})
	m.input.Reset()

	if m.models == nil {
		m.messages = append(m.messages, message{role: "assistant", content: "Model listing is not available.", isError: true})
		m.refreshViewport()
		return m, nil
	}

	m.busy = true
	m.refreshViewport()

	models := m.models
	return m, func() tea.Msg {
		names, err := models.ListModels(context.Background())
		if err != nil {
			return answerErrMsg{err: err}
		}
		return modelsMsg{active: models.GetModel(), names: names}
	}
}

func formatModels(active string, names []string) string {
	if len(names) == 0 {
		return "No models available."
	}
	var b strings.Builder
	b.WriteString("Available models:\n")
	for _, name := range names {
		marker := "  "
		if name == active {
			marker = "* "
		}
		b.WriteString(marker + name + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m Model) renderMessages() string {
	if len(m.messages) == 0 {
		return statusStyle.Render("No messages yet. Type a question to start.")
	}

	var lines []string
	for _, msg := range m.messages {
		switch {
		case msg.role == "user":
			lines = append(lines, userStyle.Render("You: "+msg.content))
		case msg.isError:
			lines = append(lines, errorStyle.Render(msg.content))
		default:
			rendered, err := m.renderer.Render(msg.content, m.width)
			if err != nil {
				rendered = msg.content
			}
			lines = append(lines, strings.TrimRight(rendered, "\n"))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) View() string {
	status := ""
	if m.busy {
		status = m.spin.View() + statusStyle.Render(" researching...")
	}
	return m.viewport.View() + "\n" + status + "\n" + inputStyle.Width(m.width-2).Render(m.input.View())
}
