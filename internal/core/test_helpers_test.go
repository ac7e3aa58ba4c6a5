package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/ticketboard-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed while waiting for kind %v", kind)
			}
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func startHub(t *testing.T, opts ...Option) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(opts...)
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub
}

func ticket(number, desk string) TicketAssignment {
	return TicketAssignment{Number: number, Desk: desk}
}

// failingSession rejects every delivery.
type failingSession struct {
	id    string
	mu    sync.Mutex
	tries int
}

func (f *failingSession) SessionID() string { return f.id }

func (f *failingSession) Send(*Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tries++
	return ErrDeliveryFailed
}

func (f *failingSession) Close() {}

func (f *failingSession) attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tries
}

// memoryStore is an in-memory store.WindowStore.
type memoryStore struct {
	mu    sync.Mutex
	rows  []store.Assignment
	saves int
	err   error
}

func (m *memoryStore) SaveWindow(_ context.Context, entries []store.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.rows = append([]store.Assignment(nil), entries...)
	return nil
}

func (m *memoryStore) LoadWindow(context.Context) ([]store.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Assignment(nil), m.rows...), m.err
}

func (m *memoryStore) snapshot() ([]store.Assignment, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Assignment(nil), m.rows...), m.saves
}

// gatedStore holds every save until release is closed.
type gatedStore struct {
	release chan struct{}
}

func (g *gatedStore) SaveWindow(ctx context.Context, _ []store.Assignment) error {
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedStore) LoadWindow(context.Context) ([]store.Assignment, error) {
	return nil, nil
}
