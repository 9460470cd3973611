// Package chat provides a full-screen TUI chat interface using Bubble Tea.
// It features a scrollable transcript, a self-sizing input bar docked at
// the bottom and a quick-reply tray that pushes the bar up as it slides in.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/editor"

	"github.com/alexcabrera/composer/internal/composer"
	"github.com/alexcabrera/composer/internal/composer/keyboard"
	"github.com/alexcabrera/composer/internal/composer/scroll"
	"github.com/alexcabrera/composer/internal/config"
	"github.com/alexcabrera/composer/internal/geom"
	"github.com/alexcabrera/composer/internal/ui/anim"
	"github.com/alexcabrera/composer/internal/ui/layout"
	"github.com/alexcabrera/composer/internal/ui/pubsub"
	"github.com/alexcabrera/composer/internal/ui/shared"
	"github.com/alexcabrera/composer/internal/ui/tray"
)

const (
	headerHeight = 1
	footerHeight = 1
)

// Result indicates the outcome of the chat session.
type Result int

const (
	// ResultQuit means the user exited the chat.
	ResultQuit Result = iota
	// ResultError means an error occurred.
	ResultError
)

// State represents the current state of the chat.
type State int

const (
	// StateInput means the user is typing.
	StateInput State = iota
	// StateWaiting means we're waiting for a reply.
	StateWaiting
)

// SendMessageFunc delivers a message and returns the reply.
type SendMessageFunc func(ctx context.Context, message string) (string, error)

// Echo replies with the message itself.
func Echo(_ context.Context, message string) (string, error) {
	return message, nil
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	// Configuration
	cfg      config.Config
	sendFn   SendMessageFunc
	ctx      context.Context
	cancelFn context.CancelFunc
	logger   *slog.Logger
	now      func() time.Time
	draft    string
	inputTTY bool

	// Components
	engine     *anim.Engine
	screen     *screen
	transcript *transcript
	input      *composer.Input
	tray       *tray.Tray
	frames     *pubsub.Broker[keyboard.FrameChange]
	bridge     *keyboard.Bridge
	handle     *keyboard.Handle
	statusBar  *StatusBar
	keyMap     KeyMap

	configBroker *pubsub.Broker[pubsub.ConfigEvent]
	configEvents <-chan pubsub.Event[pubsub.ConfigEvent]

	// State
	state    State
	messages []message
	ready    bool
	width    int
	height   int
	err      error

	// Scrollback dump content (for exit)
	scrollbackContent string
}

// message represents a single message in the conversation.
type message struct {
	Role    string // "user" or "reply"
	Content string
}

// KeyMap defines the keybindings for the chat.
type KeyMap struct {
	Editor     key.Binding
	Quit       key.Binding
	ToggleTray key.Binding
	FocusTray  key.Binding
	HideTray   key.Binding
	FloatTray  key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding
	MoveLeft   key.Binding
	MoveRight  key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Editor: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "editor"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		ToggleTray: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "replies"),
		),
		FocusTray: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "focus"),
		),
		HideTray: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "hide replies"),
		),
		FloatTray: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "float/dock"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("shift+up"),
			key.WithHelp("shift+↑", "move up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("shift+down"),
			key.WithHelp("shift+↓", "move down"),
		),
		MoveLeft: key.NewBinding(
			key.WithKeys("shift+left"),
			key.WithHelp("shift+←", "move left"),
		),
		MoveRight: key.NewBinding(
			key.WithKeys("shift+right"),
			key.WithHelp("shift+→", "move right"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
	}
}

// Bindings returns the screen-level bindings shown in the status bar.
func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{k.ToggleTray, k.Quit}
}

// Option configures a Model.
type Option func(*Model)

// WithContext sets the context requests and subscriptions run under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides the time source of animations and scroll momentum.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithConfigBroker reloads the config whenever broker announces a change.
func WithConfigBroker(broker *pubsub.Broker[pubsub.ConfigEvent]) Option {
	return func(m *Model) {
		m.configBroker = broker
	}
}

// WithDraft pre-fills the input bar.
func WithDraft(text string) Option {
	return func(m *Model) {
		m.draft = text
	}
}

// WithInputTTY reads keys from the terminal instead of stdin.
func WithInputTTY() Option {
	return func(m *Model) {
		m.inputTTY = true
	}
}

// New creates a new chat model. A nil sendFn echoes messages back.
func New(cfg config.Config, sendFn SendMessageFunc, opts ...Option) Model {
	if sendFn == nil {
		sendFn = Echo
	}
	m := Model{
		cfg:       cfg,
		sendFn:    sendFn,
		ctx:       context.Background(),
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
		statusBar: NewStatusBar(),
		keyMap:    DefaultKeyMap(),
		state:     StateInput,
		messages:  []message{},
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.engine = anim.NewEngine(anim.WithClock(m.now))
	m.screen = newScreen(m.engine)
	m.transcript = newTranscript(m.engine, m.screen, m.now)
	m.frames = pubsub.NewBroker[keyboard.FrameChange](32)
	m.tray = tray.New(m.frames,
		tray.WithReplies(cfg.Tray.Replies),
		tray.WithHeight(cfg.Tray.Height),
		tray.WithFloating(cfg.Tray.Floating),
		tray.WithAnimator(m.engine),
		tray.WithLogger(m.logger),
	)
	m.bridge = keyboard.NewBridge(m.screen, m.frames,
		keyboard.WithSurfaceLocator(m.tray),
		keyboard.WithAnimator(m.engine),
		keyboard.WithLogger(m.logger),
	)
	m.input = composer.New(append(composerOptions(cfg.Composer),
		composer.WithHostScroll(scroll.Weak(m.transcript)),
		composer.WithAnimator(m.engine),
		composer.WithLogger(m.logger),
	)...)
	m.input.Focus()

	if m.configBroker != nil {
		m.configEvents = m.configBroker.Subscribe(m.ctx)
	}
	return m
}

func composerOptions(c config.ComposerConfig) []composer.Option {
	opts := []composer.Option{
		composer.WithMinHeight(c.MinHeight),
		composer.WithMaxHeight(c.MaxHeight),
		composer.WithMargins(c.Margins.Insets()),
		composer.WithBorderColor(borderColor(c.BorderColor)),
		composer.WithButtonLabel(c.ButtonLabel),
	}
	if c.Placeholder == "" {
		return append(opts, composer.WithoutPlaceholder())
	}
	return append(opts, composer.WithPlaceholder(c.Placeholder))
}

func borderColor(s string) lipgloss.TerminalColor {
	if s == "" {
		return nil
	}
	return lipgloss.Color(s)
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.listenConfig()}
	if m.draft != "" {
		cmds = append(cmds, m.input.SetValue(m.draft))
	}
	return tea.Batch(cmds...)
}

func (m Model) listenConfig() tea.Cmd {
	ch := m.configEvents
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return configMsg{event: ev.Payload}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	m.refreshStatusBar()
	return m, tea.Batch(cmd, m.engine.Cmd())
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.handleResize()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.transcript.HandleMouse(msg)
		return nil

	case anim.FrameMsg:
		return m.engine.Update(msg)

	case composer.KeyboardFrameMsg:
		m.bridge.Handle(msg.Change)
		return tea.Batch(m.input.SafeAreaDidChange(), composer.ListenKeyboard(m.handle))

	case composer.SendMsg:
		if msg.ID != m.input.ID() {
			return nil
		}
		return m.sendMessage(msg.Text)

	case ReplyMsg:
		m.handleReply(msg)
		return nil

	case tray.SelectMsg:
		cmd := m.input.InsertString(msg.Text)
		m.tray.Blur()
		return tea.Batch(cmd, m.input.Focus())

	case OpenEditorMsg:
		return m.input.SetValue(msg.Text)

	case ErrorMsg:
		m.err = msg.Error
		return nil

	case configMsg:
		return tea.Batch(m.reloadConfig(msg.event), m.listenConfig())
	}

	return m.input.Update(msg)
}

// handleResize lays out every component for the new terminal size.
func (m *Model) handleResize() tea.Cmd {
	regionHeight := max(0, m.height-headerHeight-footerHeight)
	m.screen.resize(headerHeight, float64(m.width), float64(regionHeight))
	m.tray.SetScreen(m.screen.ScreenFrame())
	m.statusBar.SetWidth(m.width)
	m.updateTranscript()

	if m.ready {
		return m.input.Layout()
	}
	m.ready = true
	dock := m.input.Dock(m.screen)
	m.handle = m.bridge.Start(m.ctx)
	return tea.Batch(dock, composer.ListenKeyboard(m.handle))
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		if m.state == StateInput {
			return m.quit()
		}
		// If waiting, cancel the request
		if m.cancelFn != nil {
			m.cancelFn()
		}
		return nil

	case key.Matches(msg, m.keyMap.ToggleTray):
		m.tray.Toggle()
		return m.restoreFocus()

	case key.Matches(msg, m.keyMap.HideTray) && m.tray.Visible():
		m.tray.Hide()
		return m.restoreFocus()

	case key.Matches(msg, m.keyMap.FocusTray):
		return m.switchFocus()

	case key.Matches(msg, m.keyMap.FloatTray):
		if m.tray.Floating() {
			m.tray.Dock()
		} else if !m.tray.Float() {
			m.logger.Debug("tray floating disabled")
		}
		return nil

	case key.Matches(msg, m.keyMap.MoveUp):
		m.tray.MoveBy(0, -1)
		return nil
	case key.Matches(msg, m.keyMap.MoveDown):
		m.tray.MoveBy(0, 1)
		return nil
	case key.Matches(msg, m.keyMap.MoveLeft):
		m.tray.MoveBy(-2, 0)
		return nil
	case key.Matches(msg, m.keyMap.MoveRight):
		m.tray.MoveBy(2, 0)
		return nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.transcript.ScrollBy(-m.screen.Bounds().H / 2)
		return nil
	case key.Matches(msg, m.keyMap.PageDown):
		m.transcript.ScrollBy(m.screen.Bounds().H / 2)
		return nil

	case key.Matches(msg, m.keyMap.Editor) && m.state == StateInput:
		return m.openEditor()
	}

	if m.tray.IsFocused() {
		return m.tray.Update(msg)
	}
	if m.state != StateInput && msg.Type == tea.KeyEnter {
		return nil
	}
	return m.input.Update(msg)
}

// switchFocus moves focus between the input bar and a visible tray.
func (m *Model) switchFocus() tea.Cmd {
	if m.tray.IsFocused() || !m.tray.Visible() {
		m.tray.Blur()
		return m.input.Focus()
	}
	m.tray.Focus()
	return m.input.Blur()
}

// restoreFocus gives the input bar focus when nothing has it.
func (m *Model) restoreFocus() tea.Cmd {
	if m.tray.IsFocused() || m.input.IsFocused() {
		return nil
	}
	return m.input.Focus()
}

func (m *Model) quit() tea.Cmd {
	if m.handle != nil {
		m.bridge.Stop(m.handle)
	}
	m.scrollbackContent = m.renderScrollback()
	return tea.Quit
}

// sendMessage records text and sends it.
func (m *Model) sendMessage(text string) tea.Cmd {
	if m.state != StateInput {
		return nil
	}
	m.messages = append(m.messages, message{Role: "user", Content: text})
	m.err = nil

	// Create cancellable context for this request
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelFn = cancel
	m.state = StateWaiting
	m.updateTranscript()
	m.transcript.ScrollToBottom()

	sendFn := m.sendFn
	return func() tea.Msg {
		reply, err := sendFn(ctx, text)
		return ReplyMsg{Text: reply, Err: err}
	}
}

func (m *Model) handleReply(msg ReplyMsg) {
	m.state = StateInput
	if m.cancelFn != nil {
		m.cancelFn()
		m.cancelFn = nil
	}

	if msg.Err != nil {
		if !errors.Is(msg.Err, context.Canceled) {
			m.err = msg.Err
			m.logger.Warn("send failed", "err", msg.Err)
		}
		m.updateTranscript()
		return
	}

	m.messages = append(m.messages, message{Role: "reply", Content: msg.Text})
	m.updateTranscript()
	m.transcript.ScrollToBottom()
}

// reloadConfig applies a changed config file.
func (m *Model) reloadConfig(ev pubsub.ConfigEvent) tea.Cmd {
	if ev.Err != nil {
		m.err = ev.Err
		return nil
	}
	cfg, err := config.Load(ev.Path)
	if err != nil {
		m.logger.Warn("config reload failed", "path", ev.Path, "err", err)
		m.err = err
		return nil
	}
	m.err = nil
	m.logger.Info("config reloaded", "path", ev.Path)
	return m.applyConfig(cfg)
}

func (m *Model) applyConfig(cfg config.Config) tea.Cmd {
	c := cfg.Composer
	cmds := []tea.Cmd{
		m.input.SetMinHeight(c.MinHeight),
		m.input.SetMaxHeight(c.MaxHeight),
		m.input.SetMargins(c.Margins.Insets()),
		m.input.SetButtonLabel(c.ButtonLabel),
	}
	m.input.SetBorderColor(borderColor(c.BorderColor))
	if c.Placeholder == "" {
		cmds = append(cmds, m.input.Field().ClearPlaceholder())
	} else {
		cmds = append(cmds, m.input.SetPlaceholder(c.Placeholder))
	}

	m.tray.SetReplies(cfg.Tray.Replies)
	m.tray.SetHeight(cfg.Tray.Height)
	if cfg.Tray.Floating != m.cfg.Tray.Floating {
		m.logger.Info("tray floating takes effect on restart")
	}
	m.cfg = cfg
	return tea.Batch(cmds...)
}

// openEditor opens the external editor.
func (m *Model) openEditor() tea.Cmd {
	value := m.input.Value()

	tmpfile, err := os.CreateTemp("", "composer_msg_*.md")
	if err != nil {
		m.err = err
		return nil
	}
	defer tmpfile.Close()

	if _, err := tmpfile.WriteString(value); err != nil {
		m.err = err
		return nil
	}

	cmd, err := editor.Cmd("composer", tmpfile.Name())
	if err != nil {
		m.err = err
		return nil
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		defer os.Remove(tmpfile.Name())
		if err != nil {
			return ErrorMsg{Error: fmt.Errorf("editor: %w", err)}
		}
		content, err := os.ReadFile(tmpfile.Name())
		if err != nil {
			return ErrorMsg{Error: err}
		}
		return OpenEditorMsg{Text: strings.TrimSpace(string(content))}
	})
}

func (m *Model) refreshStatusBar() {
	field := m.input.Field()
	m.statusBar.SetDraft(field.Line(), field.LineCount())
	m.statusBar.SetTray(m.tray.Visible(), m.tray.Floating())
	if m.transcript.ContentSizeHeight() > 0 {
		m.statusBar.SetScroll(m.transcript.ScrollPercent())
	} else {
		m.statusBar.SetScroll(-1)
	}
	m.statusBar.SetError(m.err)

	focused := any(m.input)
	if m.tray.IsFocused() {
		focused = m.tray
	}
	bindings := layout.Bindings(focused, m.keyMap)
	if m.tray.Visible() {
		bindings = append(bindings, m.keyMap.FocusTray, m.keyMap.FloatTray)
	}
	m.statusBar.SetBindings(bindings)
}

// updateTranscript renders all messages to the transcript, following the
// bottom if it was there.
func (m *Model) updateTranscript() {
	atBottom := m.transcript.AtBottom()

	var content strings.Builder
	for _, msg := range m.messages {
		switch msg.Role {
		case "user":
			content.WriteString(m.renderUserMessage(msg.Content))
		case "reply":
			content.WriteString(m.renderReply(msg.Content))
		}
		content.WriteString("\n\n")
	}

	// Add waiting indicator
	if m.state == StateWaiting {
		content.WriteString(shared.MutedStyle.Render(shared.IconBullet + " waiting for reply"))
	}

	m.transcript.SetContent(strings.TrimRight(content.String(), "\n"))
	if atBottom {
		m.transcript.ScrollToBottom()
	}
}

// renderUserMessage styles a user message.
func (m Model) renderUserMessage(content string) string {
	labelStyle := lipgloss.NewStyle().
		Foreground(shared.ColorSecondary).
		Bold(true)

	body := lipgloss.NewStyle().Width(max(1, m.width-4)).Render(content)
	return labelStyle.Render(shared.IconUser+" ") + body
}

// renderReply styles a reply.
func (m Model) renderReply(content string) string {
	labelStyle := lipgloss.NewStyle().
		Foreground(shared.ColorPrimary).
		Bold(true)

	rendered := shared.RenderMarkdown(content, m.width-4)

	return labelStyle.Render(shared.IconReply+" reply") + "\n" + rendered
}

// View renders the chat interface.
func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.headerView(),
		m.regionView(),
		m.footerView(),
	)
}

// headerView renders the header bar.
func (m Model) headerView() string {
	lineStyle := lipgloss.NewStyle().Foreground(shared.ColorInactive)

	title := shared.HeaderStyle.Render("composer")

	var stateInfo string
	if m.state == StateWaiting {
		stateInfo = shared.MutedStyle.Render(" · waiting")
	}

	contentWidth := lipgloss.Width(title) + lipgloss.Width(stateInfo) + 4
	lineWidth := m.width - contentWidth
	if lineWidth < 0 {
		lineWidth = 0
	}

	line := lineStyle.Render(strings.Repeat("─", lineWidth))

	return "  " + title + stateInfo + " " + line
}

// regionView draws the transcript with the input bar above the reserved
// space and the tray on top, all at their presented positions.
func (m Model) regionView() string {
	width := m.width
	height := geom.Round(m.screen.Bounds().H)

	rows := strings.Split(m.transcript.View(width, height), "\n")
	for len(rows) < height {
		rows = append(rows, "")
	}
	rows = rows[:height]

	bar := strings.Split(m.input.View(), "\n")
	if n := max(0, geom.Round(m.input.PresentedHeight())); n < len(bar) {
		bar = bar[len(bar)-n:]
	}
	top := geom.Round(float64(height)-m.screen.PresentedReserved()) - len(bar)
	overlay(rows, bar, 0, top, width)

	if m.tray.OnScreen() {
		f := m.screen.ConvertFromScreen(m.tray.PresentedFrame())
		overlay(rows, strings.Split(m.tray.View(), "\n"), geom.Round(f.X), geom.Round(f.Y), width)
	}
	return strings.Join(rows, "\n")
}

// overlay draws lines over rows starting at column x of row y.
func overlay(rows, lines []string, x, y, width int) {
	for i, line := range lines {
		r := y + i
		if r < 0 || r >= len(rows) {
			continue
		}
		rows[r] = splice(rows[r], line, x, width)
	}
}

func splice(base, over string, x, width int) string {
	left := ansi.Truncate(base, x, "")
	if pad := x - ansi.StringWidth(left); pad > 0 {
		left += strings.Repeat(" ", pad)
	}
	end := x + ansi.StringWidth(over)
	var right string
	if ansi.StringWidth(base) > end {
		right = ansi.TruncateLeft(base, end, "")
	}
	return ansi.Truncate(left+ansi.ResetStyle+over+ansi.ResetStyle+right, width, "")
}

// footerView renders the footer with status bar.
func (m Model) footerView() string {
	return m.statusBar.Render()
}

// renderScrollback generates content for terminal scrollback after exit.
func (m Model) renderScrollback() string {
	if len(m.messages) == 0 {
		return ""
	}

	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString("─── composer ")
	sb.WriteString(strings.Repeat("─", 50))
	sb.WriteString("\n\n")

	for _, msg := range m.messages {
		switch msg.Role {
		case "user":
			sb.WriteString(fmt.Sprintf("> %s\n\n", msg.Content))
		case "reply":
			sb.WriteString(fmt.Sprintf("%s\n\n", msg.Content))
		}
	}

	sb.WriteString(strings.Repeat("─", 63))
	sb.WriteString("\n")

	return sb.String()
}

// ScrollbackContent returns the content to dump to scrollback on exit.
func (m Model) ScrollbackContent() string {
	return m.scrollbackContent
}

// Run starts the chat TUI.
func Run(ctx context.Context, cfg config.Config, sendFn SendMessageFunc, opts ...Option) (Result, string, error) {
	// Cancelled on return, which releases the keyboard bridge handle.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := New(cfg, sendFn, append(opts, WithContext(ctx))...)

	progOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	}
	if model.inputTTY {
		progOpts = append(progOpts, tea.WithInputTTY())
	}
	p := tea.NewProgram(model, progOpts...)

	finalModel, err := p.Run()
	if err != nil {
		return ResultError, "", err
	}

	m := finalModel.(Model)
	return ResultQuit, m.ScrollbackContent(), nil
}
