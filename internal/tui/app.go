package tui

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"contextchat/internal/chatview"
	"contextchat/internal/models"
)

type focus int

const (
	focusDraft focus = iota
	focusContext
)

const (
	contextHeight = 4
	// title, context panel, transcript border, draft panel, status and help
	chromeHeight = 1 + (contextHeight + 2) + 2 + 3 + 1 + 1
)

const helpText = "tab switch focus • enter send • ctrl+l clear • ctrl+y copy reply • pgup/pgdn scroll • esc quit"

type replyMsg struct {
	reply string
	err   error
}

// Model is the Bubble Tea program for one chat session. Turn state lives in
// the shared Conversation; the model only owns widgets and layout.
type Model struct {
	ctx     context.Context
	conv    *chatview.Conversation
	gateway chatview.Gateway
	copyFn  func(string) error

	// set by the Conversation observer, consumed by refresh
	changed *atomic.Bool

	contextInput textarea.Model
	draftInput   textinput.Model
	viewport     viewport.Model
	spinner      spinner.Model

	focus     focus
	width     int
	height    int
	status    string
	statusErr bool
	quitting  bool
}

func NewModel(ctx context.Context, conv *chatview.Conversation, gw chatview.Gateway) Model {
	ta := textarea.New()
	ta.Placeholder = "Paste or type the context for your questions..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(contextHeight)
	ta.SetValue(conv.Context())

	ti := textinput.New()
	ti.Placeholder = "Type your message..."
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = AssistantStyle

	changed := &atomic.Bool{}
	conv.OnChange(func() { changed.Store(true) })

	m := Model{
		ctx:          ctx,
		conv:         conv,
		gateway:      gw,
		copyFn:       clipboard.WriteAll,
		changed:      changed,
		contextInput: ta,
		draftInput:   ti,
		viewport:     viewport.New(0, 0),
		spinner:      sp,
		focus:        focusDraft,
		width:        80,
		height:       24,
	}
	m.layout()
	m.syncTranscript()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.syncTranscript()
		return m, nil

	case replyMsg:
		m.conv.Resolve(msg.reply, msg.err)
		m.draftInput.SetValue("")
		if msg.err != nil {
			log.Printf("chat request failed: %v", msg.err)
			m.setStatus("Request failed", true)
		} else {
			m.setStatus("", false)
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.conv.InFlight() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab":
		return m, m.toggleFocus()

	case "ctrl+l":
		if m.conv.InFlight() {
			return m, nil
		}
		m.conv.Clear()
		m.setStatus("Conversation cleared", false)
		m.refresh()
		return m, nil

	case "ctrl+y":
		reply, ok := m.conv.LastReply()
		if !ok {
			m.setStatus("No reply to copy yet", false)
			return m, nil
		}
		if err := m.copyFn(reply); err != nil {
			log.Printf("clipboard write failed: %v", err)
			m.setStatus("Could not copy to clipboard", true)
			return m, nil
		}
		m.setStatus("Copied last reply to clipboard", false)
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		if m.focus == focusDraft {
			return m.submit()
		}
	}

	return m.updateFocused(msg)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	req, ok := m.conv.Begin()
	if !ok {
		return m, nil
	}
	m.setStatus("", false)
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, m.send(req))
}

func (m Model) send(req models.PromptRequest) tea.Cmd {
	ctx, gw := m.ctx, m.gateway
	return func() tea.Msg {
		reply, err := gw.Chat(ctx, req)
		return replyMsg{reply: reply, err: err}
	}
}

// updateFocused forwards msg to the focused input and mirrors its value into
// the conversation. Keystrokes for the draft are dropped while in flight.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusContext:
		m.contextInput, cmd = m.contextInput.Update(msg)
		m.conv.SetContext(m.contextInput.Value())
	default:
		if _, isKey := msg.(tea.KeyMsg); isKey && m.conv.InFlight() {
			return m, nil
		}
		m.draftInput, cmd = m.draftInput.Update(msg)
		m.conv.SetDraft(m.draftInput.Value())
	}
	return m, cmd
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == focusDraft {
		m.focus = focusContext
		m.draftInput.Blur()
		return m.contextInput.Focus()
	}
	m.focus = focusDraft
	m.contextInput.Blur()
	return m.draftInput.Focus()
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// refresh re-renders the transcript if the turn sequence changed.
func (m *Model) refresh() {
	if m.changed.Swap(false) {
		m.syncTranscript()
	}
}

func (m *Model) syncTranscript() {
	m.viewport.SetContent(renderTranscript(m.conv.Turns(), m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m *Model) layout() {
	inner := max(m.width-2, minRenderWidth)

	m.contextInput.SetWidth(inner)
	m.draftInput.Width = max(inner-lipgloss.Width(m.draftInput.Prompt)-1, 1)
	m.viewport.Width = inner
	m.viewport.Height = max(m.height-chromeHeight, 3)
}

func (m Model) panelStyle(f focus) lipgloss.Style {
	style := PanelStyle
	if m.focus == f {
		style = FocusedPanelStyle
	}
	return style.Width(max(m.width-2, minRenderWidth))
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var status string
	switch {
	case m.conv.InFlight():
		status = m.spinner.View() + DimStyle.Render(" Waiting for response...")
	case m.statusErr:
		status = ErrorStyle.Render(m.status)
	default:
		status = DimStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("contextchat"),
		m.panelStyle(focusContext).Render(m.contextInput.View()),
		PanelStyle.Width(max(m.width-2, minRenderWidth)).Render(m.viewport.View()),
		m.panelStyle(focusDraft).Render(m.draftInput.View()),
		status,
		HelpStyle.Render(helpText),
	)
}
