package refresh

import (
	"context"
	"log"

	"github.com/ZentaChain/zentalk-cups/pkg/crypto"
	"github.com/ZentaChain/zentalk-cups/pkg/protocol"
)

// Stream names passed to the error hook
const (
	StreamUsers    = "users"
	StreamMessages = "messages"
)

// Source is where the scheduler fetches data from
type Source interface {
	FetchUsers(ctx context.Context) ([]protocol.UserRecord, error)
	FetchMessages(ctx context.Context, peer crypto.PublicKey, limit int) ([]protocol.MessageRecord, error)
}

// Renderer receives every delivered collection
type Renderer interface {
	// RenderList draws the contact list. previousLen is the length of the
	// list it replaces so rows past the new end can be cleared.
	RenderList(users []protocol.UserRecord, previousLen int, selected int)

	// RenderFeed draws the conversation of the selected contact
	RenderFeed(messages []protocol.MessageRecord)
}

// Report is what a single tick did
type Report struct {
	Users    Outcome
	Messages Outcome

	// MessagesPolled is false when no contact was selected
	MessagesPolled bool
}

// Scheduler drives the users and messages streams from a caller's loop.
// It is not safe for concurrent use; Tick, Select and the accessors must
// be called from the same goroutine.
type Scheduler struct {
	ctx      context.Context
	renderer Renderer
	limit    int

	users    *Stream[protocol.UserRecord]
	messages *Stream[protocol.MessageRecord]
	selected int

	// Peer of the fetch in flight, of the one it replaced and of the
	// messages currently held
	inflightPeer  crypto.PublicKey
	completedPeer crypto.PublicKey
	feedPeer      crypto.PublicKey

	startUsers    func() *Pending[protocol.UserRecord]
	startMessages func(peer crypto.PublicKey) *Pending[protocol.MessageRecord]

	onError func(stream string, err error)
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithLimit bounds the number of messages fetched per conversation;
// limit <= 0 fetches everything
func WithLimit(limit int) Option {
	return func(s *Scheduler) {
		s.limit = limit
	}
}

// WithErrorHandler replaces the default handler, which logs
func WithErrorHandler(fn func(stream string, err error)) Option {
	return func(s *Scheduler) {
		s.onError = fn
	}
}

// WithSnapshot seeds the streams, typically from the local cache, so the
// first frame is not empty. The seeded messages are attributed to peer.
func WithSnapshot(users []protocol.UserRecord, peer crypto.PublicKey, messages []protocol.MessageRecord) Option {
	return func(s *Scheduler) {
		s.users = NewStream(users)
		s.messages = NewStream(messages)
		s.feedPeer = peer
	}
}

// NewScheduler creates a scheduler fetching from src. Fetches inherit ctx,
// so cancelling it aborts everything in flight.
func NewScheduler(ctx context.Context, src Source, renderer Renderer, opts ...Option) *Scheduler {
	s := &Scheduler{
		ctx:      ctx,
		renderer: renderer,
		users:    NewStream[protocol.UserRecord](nil),
		messages: NewStream[protocol.MessageRecord](nil),
		onError: func(stream string, err error) {
			log.Printf("⚠️  Refresh of %s failed: %v", stream, err)
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.startUsers = func() *Pending[protocol.UserRecord] {
		return Start(s.ctx, src.FetchUsers)
	}
	s.startMessages = func(peer crypto.PublicKey) *Pending[protocol.MessageRecord] {
		limit := s.limit
		return Start(s.ctx, func(ctx context.Context) ([]protocol.MessageRecord, error) {
			return src.FetchMessages(ctx, peer, limit)
		})
	}
	return s
}

// Tick polls the users stream, then the messages stream of the selected
// contact, rendering whatever was delivered. It never blocks on the network.
func (s *Scheduler) Tick() Report {
	var report Report

	report.Users = s.users.Poll(s.startUsers)
	if report.Users.Err != nil {
		s.onError(StreamUsers, report.Users.Err)
	}
	if report.Users.Delivered() {
		s.renderer.RenderList(s.users.Items(), report.Users.PreviousLen, s.selected)
	}

	if _, ok := s.SelectedUser(); !ok {
		return report
	}

	report.MessagesPolled = true
	report.Messages = s.messages.Poll(s.issueMessages)
	if report.Messages.Err != nil {
		s.onError(StreamMessages, report.Messages.Err)
	}
	if report.Messages.Delivered() {
		s.feedPeer = s.completedPeer
		s.renderer.RenderFeed(s.messages.Items())
	}
	return report
}

// issueMessages takes the peer from the selection at the moment of issue
func (s *Scheduler) issueMessages() *Pending[protocol.MessageRecord] {
	user, _ := s.SelectedUser()
	s.completedPeer = s.inflightPeer
	s.inflightPeer = user.ID
	return s.startMessages(user.ID)
}

// Select moves the selection. Out-of-range values are accepted and pause
// the messages stream until the list grows.
func (s *Scheduler) Select(index int) {
	s.selected = index
}

// Selected returns the selected index
func (s *Scheduler) Selected() int {
	return s.selected
}

// SelectedUser returns the selected contact, if the selection is valid
func (s *Scheduler) SelectedUser() (protocol.UserRecord, bool) {
	users := s.users.Items()
	if s.selected < 0 || s.selected >= len(users) {
		return protocol.UserRecord{}, false
	}
	return users[s.selected], true
}

// Users returns the current contact list
func (s *Scheduler) Users() []protocol.UserRecord {
	return s.users.Items()
}

// Messages returns the current feed in wire order
func (s *Scheduler) Messages() []protocol.MessageRecord {
	return s.messages.Items()
}

// FeedPeer returns the contact the current feed was fetched for. It can
// lag the selection by one fetch.
func (s *Scheduler) FeedPeer() crypto.PublicKey {
	return s.feedPeer
}

// UsersState returns the state of the users stream
func (s *Scheduler) UsersState() State {
	return s.users.State()
}

// MessagesState returns the state of the messages stream
func (s *Scheduler) MessagesState() State {
	return s.messages.State()
}
