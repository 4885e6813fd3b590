package tui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
	"github.com/ZentaChain/zentalk-cups/pkg/protocol"
	"github.com/ZentaChain/zentalk-cups/pkg/refresh"
)

// Focus identifies the pane receiving keys.
type Focus int

const (
	FocusSidebar Focus = iota
	FocusInput
	FocusFeed
	FocusNamebar
	focusCount
)

func (f Focus) String() string {
	switch f {
	case FocusSidebar:
		return "sidebar"
	case FocusInput:
		return "input"
	case FocusFeed:
		return "feed"
	case FocusNamebar:
		return "namebar"
	default:
		return fmt.Sprintf("focus(%d)", int(f))
	}
}

// DefaultTickInterval is used when Options leaves it unset
const DefaultTickInterval = 100 * time.Millisecond

// Default size until the terminal reports its own
const (
	defaultWidth  = 120
	defaultHeight = 32
)

// Relay is what the client needs from the service
type Relay interface {
	refresh.Source
	SendMessage(ctx context.Context, peer crypto.PublicKey, content string) error
}

// Cache stores delivered collections so the next start has something to
// show. Writes happen off the update loop.
type Cache interface {
	SaveUsers(users []protocol.UserRecord) error
	SaveMessages(peer crypto.PublicKey, msgs []protocol.MessageRecord) error
	SetLastPeer(peer crypto.PublicKey) error
}

// Snapshot is the state shown before the first fetch completes
type Snapshot struct {
	Users    []protocol.UserRecord
	Peer     crypto.PublicKey
	Messages []protocol.MessageRecord
}

// Options configures a Model
type Options struct {
	TickInterval time.Duration
	MessageLimit int

	// NewestFirst reverses conversations for display so the oldest
	// message is on top
	NewestFirst bool

	Cache    Cache     // optional
	Snapshot *Snapshot // optional
	Keys     *KeyMap   // DefaultKeyMap when nil
	Theme    *Theme    // DefaultTheme when nil
}

type tickMsg time.Time

type sentMsg struct {
	peer crypto.PublicKey
	err  error
}

type savedMsg struct {
	what string
	err  error
}

// Model is the bubbletea model of the client. It is also the renderer of
// its own refresh scheduler.
type Model struct {
	ctx       context.Context
	relay     Relay
	scheduler *refresh.Scheduler
	cache     Cache

	keys     KeyMap
	theme    Theme
	interval time.Duration

	newestFirst bool

	focus Focus
	input textinput.Model

	// What the last render handed us. The feed is in display order.
	users []protocol.UserRecord
	feed  []protocol.MessageRecord

	status    string
	statusErr bool

	width  int
	height int
}

// NewModel creates the client. Fetches inherit ctx.
func NewModel(ctx context.Context, relay Relay, opts Options) *Model {
	m := &Model{
		ctx:         ctx,
		relay:       relay,
		cache:       opts.Cache,
		keys:        DefaultKeyMap,
		theme:       DefaultTheme,
		interval:    opts.TickInterval,
		newestFirst: opts.NewestFirst,
		width:       defaultWidth,
		height:      defaultHeight,
	}
	if opts.Keys != nil {
		m.keys = *opts.Keys
	}
	if opts.Theme != nil {
		m.theme = *opts.Theme
	}
	if m.interval <= 0 {
		m.interval = DefaultTickInterval
	}

	m.input = textinput.New()
	m.input.Placeholder = "type a message"
	m.input.Prompt = "> "

	schedOpts := []refresh.Option{
		refresh.WithLimit(opts.MessageLimit),
		refresh.WithErrorHandler(m.refreshFailed),
	}
	if snap := opts.Snapshot; snap != nil {
		schedOpts = append(schedOpts, refresh.WithSnapshot(snap.Users, snap.Peer, snap.Messages))
	}
	m.scheduler = refresh.NewScheduler(ctx, relay, m, schedOpts...)

	if snap := opts.Snapshot; snap != nil {
		for i, user := range snap.Users {
			if user.ID == snap.Peer {
				m.scheduler.Select(i)
				break
			}
		}
		m.RenderList(snap.Users, 0, m.scheduler.Selected())
		m.RenderFeed(snap.Messages)
	}
	return m
}

// Scheduler exposes the refresh scheduler
func (m *Model) Scheduler() *refresh.Scheduler {
	return m.scheduler
}

// Focus returns the focused pane
func (m *Model) Focus() Focus {
	return m.focus
}

// RenderList implements refresh.Renderer. The whole frame is redrawn on
// every View, so rows past the new end disappear without clearing.
func (m *Model) RenderList(users []protocol.UserRecord, previousLen int, selected int) {
	m.users = append(m.users[:0:0], users...)
}

// RenderFeed implements refresh.Renderer
func (m *Model) RenderFeed(messages []protocol.MessageRecord) {
	if m.newestFirst {
		m.feed = protocol.ReverseMessages(messages)
		return
	}
	m.feed = append(messages[:0:0], messages...)
}

func (m *Model) refreshFailed(stream string, err error) {
	log.Printf("⚠️  Refresh of %s failed: %v", stream, err)
	m.setStatus(fmt.Sprintf("%s refresh failed: %v", stream, err), true)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// SidebarRows returns the formatted contact list
func (m *Model) SidebarRows() []string {
	rows := make([]string, len(m.users))
	for i, user := range m.users {
		rows[i] = SidebarRow(user)
	}
	return rows
}

// FeedRows returns the formatted conversation, oldest first
func (m *Model) FeedRows() []string {
	rows := make([]string, len(m.feed))
	for i, msg := range m.feed {
		rows[i] = FeedRow(msg)
	}
	return rows
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model
func (m *Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	report := m.scheduler.Tick()
	cmds := m.persist(report)

	switch message := message.(type) {
	case tickMsg:
		cmds = append(cmds, m.tick())

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height

	case sentMsg:
		if message.err != nil {
			log.Printf("❌ Failed to send message to %s: %v", message.peer, message.err)
			m.setStatus(fmt.Sprintf("send failed: %v", message.err), true)
		} else {
			m.setStatus("sent", false)
		}

	case savedMsg:
		if message.err != nil {
			log.Printf("⚠️  Failed to cache %s: %v", message.what, message.err)
		}

	case tea.KeyMsg:
		cmd, quit := m.handleKey(message)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(message tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(message, m.keys.ForceQuit):
		return nil, true

	case key.Matches(message, m.keys.Quit) && m.focus != FocusInput:
		return nil, true

	case key.Matches(message, m.keys.FocusNext):
		return m.setFocus((m.focus + 1) % focusCount), false

	case key.Matches(message, m.keys.FocusPrev):
		return m.setFocus((m.focus + focusCount - 1) % focusCount), false
	}

	switch m.focus {
	case FocusSidebar:
		switch {
		case key.Matches(message, m.keys.Up):
			if selected := m.scheduler.Selected(); selected > 0 {
				m.scheduler.Select(selected - 1)
			}
		case key.Matches(message, m.keys.Down):
			if selected := m.scheduler.Selected(); selected+1 < len(m.users) {
				m.scheduler.Select(selected + 1)
			}
		}

	case FocusInput:
		if key.Matches(message, m.keys.Send) {
			return m.send(), false
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(message)
		return cmd, false
	}
	return nil, false
}

func (m *Model) setFocus(focus Focus) tea.Cmd {
	m.focus = focus
	if focus == FocusInput {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

// send delivers the input line to the selected contact in the background
func (m *Model) send() tea.Cmd {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return nil
	}

	user, ok := m.scheduler.SelectedUser()
	if !ok {
		m.setStatus("no contact selected", true)
		return nil
	}

	m.input.Reset()
	m.setStatus("sending...", false)

	ctx, relay, peer := m.ctx, m.relay, user.ID
	return func() tea.Msg {
		return sentMsg{peer: peer, err: relay.SendMessage(ctx, peer, content)}
	}
}

// persist writes delivered collections to the cache off the update loop
func (m *Model) persist(report refresh.Report) []tea.Cmd {
	if m.cache == nil {
		return nil
	}

	var cmds []tea.Cmd
	cache := m.cache
	if report.Users.Delivered() {
		users := append([]protocol.UserRecord(nil), m.scheduler.Users()...)
		cmds = append(cmds, func() tea.Msg {
			return savedMsg{what: "users", err: cache.SaveUsers(users)}
		})
	}
	if report.Messages.Delivered() {
		peer := m.scheduler.FeedPeer()
		msgs := append([]protocol.MessageRecord(nil), m.scheduler.Messages()...)
		cmds = append(cmds, func() tea.Msg {
			if err := cache.SaveMessages(peer, msgs); err != nil {
				return savedMsg{what: "messages", err: err}
			}
			return savedMsg{what: "last peer", err: cache.SetLastPeer(peer)}
		})
	}
	return cmds
}

// View implements tea.Model
func (m *Model) View() string {
	sidebarWidth := m.width / 4
	mainWidth := m.width - sidebarWidth

	// Borders take two cells in each direction
	namebarHeight := 3
	inputHeight := max(m.height/4, 4)
	feedHeight := max(m.height-namebarHeight-inputHeight, 3)

	sidebar := m.theme.pane(m.focus == FocusSidebar).
		Width(sidebarWidth - 2).
		Height(m.height - 2).
		Render(m.viewSidebar(sidebarWidth-2, m.height-2))

	namebar := m.theme.pane(m.focus == FocusNamebar).
		Width(mainWidth - 2).
		Height(namebarHeight - 2).
		Render(m.viewNamebar(mainWidth - 2))

	feed := m.theme.pane(m.focus == FocusFeed).
		Width(mainWidth - 2).
		Height(feedHeight - 2).
		Render(m.viewFeed(mainWidth-2, feedHeight-2))

	input := m.theme.pane(m.focus == FocusInput).
		Width(mainWidth - 2).
		Height(inputHeight - 2).
		Render(m.viewInput(mainWidth - 2))

	right := lipgloss.JoinVertical(lipgloss.Left, namebar, feed, input)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, right)
}

func (m *Model) viewSidebar(width, height int) string {
	normal := lipgloss.NewStyle().Foreground(m.theme.NormalText)
	selected := lipgloss.NewStyle().
		Foreground(m.theme.SelectedForeground).
		Background(m.theme.SelectedBackground).
		Reverse(true)

	rows := m.SidebarRows()
	if len(rows) > height {
		rows = rows[:height]
	}
	for i, row := range rows {
		row = truncate(row, width)
		if i == m.scheduler.Selected() {
			rows[i] = selected.Render(row)
		} else {
			rows[i] = normal.Render(row)
		}
	}
	return strings.Join(rows, "\n")
}

func (m *Model) viewNamebar(width int) string {
	user, ok := m.scheduler.SelectedUser()
	if !ok {
		return lipgloss.NewStyle().Foreground(m.theme.FaintText).Render("no contact selected")
	}

	title := user.DisplayName()
	if title == "" {
		title = "(unnamed)"
	}
	title = truncate(title, width)
	address := truncate(user.ID.Address(), max(width-len([]rune(title))-2, 0))
	return lipgloss.NewStyle().Bold(true).Render(title) + "  " +
		lipgloss.NewStyle().Foreground(m.theme.FaintText).Render(address)
}

// viewFeed shows the newest messages that fit, oldest on top
func (m *Model) viewFeed(width, height int) string {
	inbound := lipgloss.NewStyle().Foreground(m.theme.Inbound)
	outbound := lipgloss.NewStyle().Foreground(m.theme.Outbound)

	feed := m.feed
	if len(feed) > height {
		feed = feed[len(feed)-height:]
	}

	rows := make([]string, len(feed))
	for i, msg := range feed {
		style := outbound
		if msg.Inbound {
			style = inbound
		}
		rows[i] = style.Render(truncate(FeedRow(msg), width))
	}
	return strings.Join(rows, "\n")
}

func (m *Model) viewInput(width int) string {
	m.input.Width = max(width-len([]rune(m.input.Prompt))-1, 1)

	status := ""
	if m.status != "" {
		style := lipgloss.NewStyle().Foreground(m.theme.FaintText)
		if m.statusErr {
			style = lipgloss.NewStyle().Foreground(m.theme.Error)
		}
		status = style.Render(truncate(m.status, width))
	}
	return m.input.View() + "\n" + status
}

// Status returns the status line
func (m *Model) Status() string {
	return m.status
}
