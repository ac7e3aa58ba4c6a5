package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ticketboard-server/internal/store"
)

const (
	defaultCommandQueue = 64
	storeTimeout        = 2 * time.Second
)

// Hub owns the assignment window and the session registry and runs
// every mutation on a single goroutine.
type Hub struct {
	window        *Window
	registry      *Registry
	commands      chan *Command
	done          chan struct{}
	store         store.WindowStore
	pushOnConnect bool
	log           zerolog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithCapacity sets the number of window slots.
func WithCapacity(n int) Option {
	return func(h *Hub) { h.window = NewWindow(n) }
}

// WithLogger sets the hub logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.log = logger.With().Str("component", "hub").Logger()
		}
	}
}

// WithWindowStore persists the window after every assignment and restores it on Run.
func WithWindowStore(st store.WindowStore) Option {
	return func(h *Hub) { h.store = st }
}

// WithSnapshotOnConnect controls whether new sessions get the current snapshot immediately.
func WithSnapshotOnConnect(enabled bool) Option {
	return func(h *Hub) { h.pushOnConnect = enabled }
}

// WithCommandQueue sets the buffer of the command channel.
func WithCommandQueue(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.commands = make(chan *Command, n)
		}
	}
}

// NewHub creates a new hub. Call Run to start processing.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		window:        NewWindow(DefaultWindowCapacity),
		registry:      NewRegistry(),
		commands:      make(chan *Command, defaultCommandQueue),
		done:          make(chan struct{}),
		pushOnConnect: true,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// QueueSize returns the buffer of the command channel.
func (h *Hub) QueueSize() int {
	return cap(h.commands)
}

// Capacity returns the number of slots in each snapshot.
func (h *Hub) Capacity() int {
	return h.window.Cap()
}

// Run processes commands until ctx is cancelled. All sessions still
// registered at that point are closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	h.restore(ctx)

	for {
		select {
		case <-ctx.Done():
			for _, s := range h.registry.Targets() {
				h.registry.Remove(s.SessionID())
				s.Close()
			}
			h.log.Debug().Msg("hub stopped")
			return
		case cmd := <-h.commands:
			h.handle(ctx, cmd)
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// RegisterClient adds s to the broadcast targets.
func (h *Hub) RegisterClient(s Session) {
	if err := h.submit(context.Background(), &Command{Kind: CommandRegister, Session: s}); err != nil {
		s.Close()
	}
}

// UnregisterClient removes s and closes it. Unknown sessions are ignored.
func (h *Hub) UnregisterClient(s Session) {
	_ = h.submit(context.Background(), &Command{Kind: CommandUnregister, Session: s})
}

// Assign records a new ticket assignment and pushes the updated snapshot
// to every session. It returns the snapshot after the insert.
func (h *Hub) Assign(ctx context.Context, a TicketAssignment) ([]*TicketAssignment, error) {
	res, err := h.call(ctx, &Command{Kind: CommandAssign, Assignment: a})
	if err != nil {
		return nil, err
	}
	return res.slots, res.err
}

// Snapshot returns the current window, newest first, with nil for empty slots.
func (h *Hub) Snapshot(ctx context.Context) ([]*TicketAssignment, error) {
	res, err := h.call(ctx, &Command{Kind: CommandSnapshot})
	if err != nil {
		return nil, err
	}
	return res.slots, res.err
}

// Resend pushes the current snapshot to a single session.
func (h *Hub) Resend(ctx context.Context, s Session) error {
	res, err := h.call(ctx, &Command{Kind: CommandResend, Session: s})
	if err != nil {
		return err
	}
	return res.err
}

// call submits cmd and waits for its result. Once queued the command is
// always handled or dropped by a stopping hub, so only done can end the
// wait; ctx bounds the submit alone.
func (h *Hub) call(ctx context.Context, cmd *Command) (commandResult, error) {
	cmd.reply = make(chan commandResult, 1)
	if err := h.submit(ctx, cmd); err != nil {
		return commandResult{}, err
	}
	select {
	case res := <-cmd.reply:
		return res, nil
	case <-h.done:
		// A reply sent just before Run returned still wins.
		select {
		case res := <-cmd.reply:
			return res, nil
		default:
			return commandResult{}, ErrHubStopped
		}
	}
}

func (h *Hub) submit(ctx context.Context, cmd *Command) error {
	select {
	case h.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) handle(ctx context.Context, cmd *Command) {
	var res commandResult

	switch cmd.Kind {
	case CommandRegister:
		h.handleRegister(cmd.Session)
	case CommandUnregister:
		h.handleUnregister(cmd.Session)
	case CommandAssign:
		res.slots, res.err = h.handleAssign(ctx, cmd.Assignment)
	case CommandSnapshot:
		res.slots = h.window.Snapshot()
	case CommandResend:
		res.err = cmd.Session.Send(snapshotEvent(h.window.Snapshot()))
	}

	if cmd.reply != nil {
		cmd.reply <- res
	}
}

func (h *Hub) handleRegister(s Session) {
	if !h.registry.Add(s) {
		h.log.Debug().Str("session_id", s.SessionID()).Msg("session already registered")
		return
	}
	h.log.Info().Str("session_id", s.SessionID()).Int("sessions", h.registry.Len()).Msg("session connected")

	if !h.pushOnConnect {
		return
	}
	if err := s.Send(snapshotEvent(h.window.Snapshot())); err != nil {
		h.log.Warn().Err(err).Str("session_id", s.SessionID()).Msg("initial snapshot not delivered")
	}
}

func (h *Hub) handleUnregister(s Session) {
	removed, ok := h.registry.Remove(s.SessionID())
	if !ok {
		return
	}
	removed.Close()
	h.log.Info().Str("session_id", s.SessionID()).Int("sessions", h.registry.Len()).Msg("session disconnected")
}

func (h *Hub) handleAssign(ctx context.Context, a TicketAssignment) ([]*TicketAssignment, error) {
	normalized, err := NewAssignment(a.Number, a.Desk)
	if err != nil {
		h.log.Warn().Str("number", a.Number).Str("desk", a.Desk).Msg("dropping invalid assignment")
		return nil, err
	}
	a = normalized

	h.window.Insert(a)
	slots := h.window.Snapshot()

	// Broadcast precedes the save.
	delivered := h.broadcast(snapshotEvent(slots))
	h.persist(ctx)

	h.log.Info().
		Str("number", a.Number).
		Str("desk", a.Desk).
		Int("targets", h.registry.Len()).
		Int("delivered", delivered).
		Msg("ticket assigned")

	return slots, nil
}

// broadcast sends event to every registered session and returns the
// number of successful deliveries. Failures are logged and skipped.
func (h *Hub) broadcast(event *Event) int {
	delivered := 0
	for _, s := range h.registry.Targets() {
		if err := s.Send(event); err != nil {
			h.log.Warn().Err(err).Str("session_id", s.SessionID()).Msg("skipping session")
			continue
		}
		delivered++
	}
	return delivered
}

func (h *Hub) persist(ctx context.Context) {
	if h.store == nil {
		return
	}
	entries := h.window.Entries()
	rows := make([]store.Assignment, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, store.Assignment{Slot: i, Number: e.Number, Desk: e.Desk})
	}

	saveCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := h.store.SaveWindow(saveCtx, rows); err != nil {
		h.log.Error().Err(err).Msg("failed to save window")
	}
}

func (h *Hub) restore(ctx context.Context) {
	if h.store == nil {
		return
	}
	loadCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	rows, err := h.store.LoadWindow(loadCtx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load window")
		return
	}
	entries := make([]TicketAssignment, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, TicketAssignment{Number: r.Number, Desk: r.Desk})
	}
	h.window.Restore(entries)
	h.log.Info().Int("entries", h.window.Len()).Msg("window restored")
}
