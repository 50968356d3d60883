package mailbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailbox-notifier/mailbox-state-lambda/internal/notify"
)

// CounterStore persists the open-event counter.
type CounterStore interface {
	Get(ctx context.Context) (int64, error)
	Increment(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Machine drives the mailbox state from door events.
//
// Each incoming event is handled by a fresh Machine; the counter in the
// store is the only memory that survives between invocations. The initial
// state is therefore derived from the stored counter, and the ajar
// re-notification cadence is a pure function of it.
type Machine struct {
	store     CounterStore
	publisher notify.Publisher
	logger    *slog.Logger
	state     State
}

// NewMachine creates a Machine with its state derived from the stored
// counter. A failed read is logged and treated as zero.
func NewMachine(ctx context.Context, store CounterStore, publisher notify.Publisher, logger *slog.Logger) *Machine {
	m := &Machine{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
	m.state = StateForCount(m.counter(ctx))
	return m
}

// State returns the current mailbox state.
func (m *Machine) State() State {
	return m.state
}

// HandleEvent processes a single door event. Unrecognized events leave the
// counter and state untouched. Store and notification failures are logged
// and swallowed so the invoking handler can always return a response.
func (m *Machine) HandleEvent(ctx context.Context, event string) {
	switch event {
	case EventOpen:
		m.handleOpen(ctx)
	case EventClosed:
		m.handleClosed(ctx)
	default:
		m.logger.InfoContext(ctx, "Ignoring unrecognized mailbox event",
			slog.String("event", event),
		)
	}
}

func (m *Machine) handleOpen(ctx context.Context) {
	if err := m.store.Increment(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to increment counter",
			slog.String("error", err.Error()),
		)
	}

	switch m.state {
	case StateClosed:
		m.state = StateOpen
		m.notify(ctx, "Mailbox OPEN")
	case StateOpen:
		m.state = StateAjar
		m.notify(ctx, "Mailbox AJAR")
	case StateAjar:
		m.handleAjar(ctx)
	}
}

// handleAjar re-notifies while the mailbox stays ajar, backing off
// exponentially: a message goes out only when the running counter is a
// power of two (4, 8, 16, ...). Deriving the cadence from the persisted
// counter keeps it stable even though every event builds a new Machine.
func (m *Machine) handleAjar(ctx context.Context) {
	count := m.counter(ctx)
	if count > 0 && count&(count-1) == 0 {
		m.notify(ctx, fmt.Sprintf("Mailbox still AJAR, event count: %d", count))
	}
}

func (m *Machine) handleClosed(ctx context.Context) {
	count := m.counter(ctx)
	if err := m.store.Reset(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to reset counter",
			slog.String("error", err.Error()),
		)
	}
	m.state = StateClosed

	// Closing an already-closed mailbox produces no notification.
	if count > 0 {
		m.notify(ctx, "Mailbox CLOSED")
	}
}

// counter reads the stored counter, treating a failed read as zero.
func (m *Machine) counter(ctx context.Context) int64 {
	count, err := m.store.Get(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to read counter",
			slog.String("error", err.Error()),
		)
		return 0
	}
	return count
}

func (m *Machine) notify(ctx context.Context, message string) {
	if err := m.publisher.Publish(ctx, message); err != nil {
		m.logger.ErrorContext(ctx, "Failed to publish notification",
			slog.String("message", message),
			slog.String("error", err.Error()),
		)
	}
}
