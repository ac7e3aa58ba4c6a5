package tickets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vovakirdan/ticketboard-server/internal/core"
)

// Common errors for desk operations.
var (
	ErrDeskRequired     = errors.New("desk is required")
	ErrNoPendingTickets = errors.New("no pending tickets")
)

// Ticket is a queue number handed out to a visitor.
type Ticket struct {
	Number   int
	IssuedAt time.Time
}

// Dispatcher receives ticket assignments. *core.Hub satisfies it.
type Dispatcher interface {
	Assign(ctx context.Context, a core.TicketAssignment) ([]*core.TicketAssignment, error)
}

// Service issues ticket numbers and hands them to desks.
type Service struct {
	dispatcher Dispatcher
	now        func() time.Time

	mu      sync.Mutex
	last    int
	pending []Ticket
}

// New creates a new ticket Service.
func New(dispatcher Dispatcher) *Service {
	return &Service{
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Issue hands out the next ticket number and queues it.
// It returns the ticket and the queue length including it.
func (s *Service) Issue(_ context.Context) (Ticket, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++
	t := Ticket{Number: s.last, IssuedAt: s.now()}
	s.pending = append(s.pending, t)
	return t, len(s.pending)
}

// Pending returns the number of tickets waiting and the next one to be served.
func (s *Service) Pending() (int, *Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return 0, nil
	}
	next := s.pending[0]
	return len(s.pending), &next
}

// Attend assigns the oldest pending ticket to desk and announces it.
// If the announcement fails the ticket goes back to the head of the queue.
func (s *Service) Attend(ctx context.Context, desk string) (core.TicketAssignment, error) {
	desk = strings.TrimSpace(desk)
	if desk == "" {
		return core.TicketAssignment{}, ErrDeskRequired
	}

	t, ok := s.pop()
	if !ok {
		return core.TicketAssignment{}, ErrNoPendingTickets
	}

	a := core.TicketAssignment{Number: strconv.Itoa(t.Number), Desk: desk}
	if _, err := s.dispatcher.Assign(ctx, a); err != nil {
		s.requeue(t)
		return core.TicketAssignment{}, fmt.Errorf("announce ticket %d: %w", t.Number, err)
	}
	return a, nil
}

func (s *Service) pop() (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return Ticket{}, false
	}
	t := s.pending[0]
	s.pending = s.pending[1:]
	return t, true
}

func (s *Service) requeue(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append([]Ticket{t}, s.pending...)
}
