package core

import (
	"fmt"
	"sync"
)

const defaultClientBuffer = 8

// Session is a broadcast target as seen by the hub.
type Session interface {
	SessionID() string
	// Send queues an event without blocking.
	Send(event *Event) error
	// Close releases the session; further sends fail.
	Close()
}

// Client is a display connection as seen by the core layer.
type Client struct {
	ID     string
	Events chan *Event

	mu     sync.Mutex
	closed bool
}

// NewClient constructs a client with a buffered event channel.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Client{
		ID:     id,
		Events: make(chan *Event, buffer),
	}
}

// SessionID implements Session.
func (c *Client) SessionID() string { return c.ID }

// Send implements Session. A full buffer or a closed client yields ErrDeliveryFailed.
func (c *Client) Send(event *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("%w: session %s closed", ErrDeliveryFailed, c.ID)
	}
	select {
	case c.Events <- event:
		return nil
	default:
		return fmt.Errorf("%w: session %s buffer full", ErrDeliveryFailed, c.ID)
	}
}

// Close closes the event channel once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.Events)
}
