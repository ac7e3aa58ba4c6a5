package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/ticketboard-server/internal/store"
)

func TestHubBroadcastsLastFourNewestFirst(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := startHub(t, WithSnapshotOnConnect(false))

	display := NewClient("display", 0)
	hub.RegisterClient(display)

	_, err := hub.Assign(ctx, ticket("A01", "1"))
	require.NoError(t, err)
	mustEvent(t, display.Events, EventLastFour)

	_, err = hub.Assign(ctx, ticket("A02", "2"))
	require.NoError(t, err)
	ev := mustEvent(t, display.Events, EventLastFour)

	require.Len(t, ev.Slots, 4)
	assert.Equal(t, &TicketAssignment{Number: "A02", Desk: "2"}, ev.Slots[0])
	assert.Equal(t, &TicketAssignment{Number: "A01", Desk: "1"}, ev.Slots[1])
	assert.Nil(t, ev.Slots[2])
	assert.Nil(t, ev.Slots[3])
}

func TestHubPushesSnapshotOnConnect(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := startHub(t)

	_, err := hub.Assign(ctx, ticket("A01", "3"))
	require.NoError(t, err)

	late := NewClient("late", 0)
	hub.RegisterClient(late)

	ev := mustEvent(t, late.Events, EventLastFour)
	require.NotNil(t, ev.Slots[0])
	assert.Equal(t, "A01", ev.Slots[0].Number)
	assert.Equal(t, "3", ev.Slots[0].Desk)
}

func TestHubEmptySnapshotOnConnect(t *testing.T) {
	hub := startHub(t)

	c := NewClient("c", 0)
	hub.RegisterClient(c)

	ev := mustEvent(t, c.Events, EventLastFour)
	require.Len(t, ev.Slots, 4)
	for _, slot := range ev.Slots {
		assert.Nil(t, slot)
	}
}

func TestHubAssignWithoutSessions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := startHub(t)

	slots, err := hub.Assign(ctx, ticket("A01", "1"))
	require.NoError(t, err)
	require.NotNil(t, slots[0])
	assert.Equal(t, "A01", slots[0].Number)
}

func TestHubRejectsInvalidAssignment(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := startHub(t, WithSnapshotOnConnect(false))

	display := NewClient("display", 0)
	hub.RegisterClient(display)

	for _, bad := range []TicketAssignment{ticket("", "1"), ticket("A01", ""), ticket("  ", " ")} {
		_, err := hub.Assign(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidAssignment)
	}

	snap, err := hub.Snapshot(ctx)
	require.NoError(t, err)
	for _, slot := range snap {
		assert.Nil(t, slot)
	}
	assert.Empty(t, display.Events, "invalid assignments must not be broadcast")
}

func TestHubDeliversDespiteClosedSession(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := startHub(t, WithSnapshotOnConnect(false))

	first := NewClient("first", 0)
	gone := NewClient("gone", 0)
	last := NewClient("last", 0)
	broken := &failingSession{id: "broken"}
	hub.RegisterClient(first)
	hub.RegisterClient(gone)
	hub.RegisterClient(broken)
	hub.RegisterClient(last)

	// Connection dropped before the hub saw the disconnect.
	gone.Close()

	_, err := hub.Assign(ctx, ticket("A01", "1"))
	require.NoError(t, err)

	for _, c := range []*Client{first, last} {
		ev := mustEvent(t, c.Events, EventLastFour)
		assert.Equal(t, "A01", ev.Slots[0].Number)
	}
	assert.Equal(t, 1, broken.attempts())
}

func TestHubDoubleUnregisterIsNoop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := startHub(t, WithSnapshotOnConnect(false))

	c := NewClient("c", 0)
	other := NewClient("other", 0)
	hub.RegisterClient(c)
	hub.RegisterClient(other)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)
	hub.UnregisterClient(NewClient("never-registered", 0))

	_, err := hub.Assign(ctx, ticket("A01", "1"))
	require.NoError(t, err)

	mustEvent(t, other.Events, EventLastFour)

	_, open := <-c.Events
	assert.False(t, open, "unregistered client must be closed")
}

func TestHubResendToSingleSession(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := startHub(t, WithSnapshotOnConnect(false))

	c := NewClient("c", 0)
	hub.RegisterClient(c)
	_, err := hub.Assign(ctx, ticket("A01", "1"))
	require.NoError(t, err)
	mustEvent(t, c.Events, EventLastFour)

	require.NoError(t, hub.Resend(ctx, c))
	ev := mustEvent(t, c.Events, EventLastFour)
	assert.Equal(t, "A01", ev.Slots[0].Number)
}

func TestHubCustomCapacity(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := startHub(t, WithCapacity(2))
	assert.Equal(t, 2, hub.Capacity())

	for _, n := range []string{"1", "2", "3"} {
		_, err := hub.Assign(ctx, ticket(n, "d"))
		require.NoError(t, err)
	}

	snap, err := hub.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.Equal(t, "3", snap[0].Number)
	assert.Equal(t, "2", snap[1].Number)
}

func TestHubPersistsAndRestoresWindow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	st := &memoryStore{rows: []store.Assignment{
		{Slot: 0, Number: "A02", Desk: "2"},
		{Slot: 1, Number: "A01", Desk: "1"},
	}}
	hub := startHub(t, WithWindowStore(st))

	snap, err := hub.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A02", snap[0].Number)
	assert.Equal(t, "A01", snap[1].Number)

	_, err = hub.Assign(ctx, ticket("A03", "3"))
	require.NoError(t, err)

	rows, saves := st.snapshot()
	assert.Equal(t, 1, saves)
	require.Len(t, rows, 3)
	assert.Equal(t, "A03", rows[0].Number)
	assert.Equal(t, 2, rows[2].Slot)
}

func TestHubStoreFailureDoesNotBlockBroadcast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	st := &memoryStore{err: errors.New("disk full")}
	hub := startHub(t, WithWindowStore(st), WithSnapshotOnConnect(false))

	c := NewClient("c", 0)
	hub.RegisterClient(c)

	_, err := hub.Assign(ctx, ticket("A01", "1"))
	require.NoError(t, err)
	mustEvent(t, c.Events, EventLastFour)
}

func TestHubStoppedReturnsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	c := NewClient("c", 0)
	hub.RegisterClient(c)
	mustEvent(t, c.Events, EventLastFour)

	cancel()
	<-hub.done

	_, err := hub.Assign(context.Background(), ticket("A01", "1"))
	assert.ErrorIs(t, err, ErrHubStopped)

	_, open := <-c.Events
	assert.False(t, open, "sessions are closed when the hub stops")
}

func TestHubCommandQueueOption(t *testing.T) {
	assert.Equal(t, 64, NewHub().QueueSize())
	assert.Equal(t, 2, NewHub(WithCommandQueue(2)).QueueSize())
	assert.Equal(t, 64, NewHub(WithCommandQueue(0)).QueueSize(), "non-positive sizes keep the default")
}

func TestHubTrimsAssignmentFields(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	st := &memoryStore{}
	hub := startHub(t, WithWindowStore(st), WithSnapshotOnConnect(false))

	display := NewClient("display", 0)
	hub.RegisterClient(display)

	slots, err := hub.Assign(ctx, ticket("  A01 ", "\t1 "))
	require.NoError(t, err)
	assert.Equal(t, &TicketAssignment{Number: "A01", Desk: "1"}, slots[0])

	ev := mustEvent(t, display.Events, EventLastFour)
	assert.Equal(t, &TicketAssignment{Number: "A01", Desk: "1"}, ev.Slots[0])

	rows, _ := st.snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, "A01", rows[0].Number)
	assert.Equal(t, "1", rows[0].Desk)
}

func TestHubQueuedAssignOutlivesCallerContext(t *testing.T) {
	hub := NewHub(WithSnapshotOnConnect(false))

	callCtx, callCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer callCancel()

	result := make(chan error, 1)
	go func() {
		_, err := hub.Assign(callCtx, ticket("A01", "1"))
		result <- err
	}()

	// Let the caller deadline pass while the command waits in the queue.
	<-callCtx.Done()
	time.Sleep(20 * time.Millisecond)

	runCtx, runCancel := context.WithCancel(context.Background())
	go hub.Run(runCtx)
	t.Cleanup(func() {
		runCancel()
		<-hub.done
	})

	select {
	case err := <-result:
		require.NoError(t, err, "a queued assignment reports its real outcome")
	case <-time.After(2 * time.Second):
		t.Fatal("assign did not return")
	}

	snap, err := hub.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap[0])
	assert.Equal(t, "A01", snap[0].Number)
}

func TestHubBroadcastsBeforeSaving(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	st := &gatedStore{release: make(chan struct{})}
	hub := startHub(t, WithWindowStore(st), WithSnapshotOnConnect(false))

	display := NewClient("display", 0)
	hub.RegisterClient(display)

	result := make(chan error, 1)
	go func() {
		_, err := hub.Assign(ctx, ticket("A01", "1"))
		result <- err
	}()

	ev := mustEvent(t, display.Events, EventLastFour)
	assert.Equal(t, "A01", ev.Slots[0].Number)

	select {
	case <-result:
		t.Fatal("assign returned before the save finished")
	default:
	}

	close(st.release)
	require.NoError(t, <-result)
}
