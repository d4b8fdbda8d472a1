// Package audit records an append-only trail of account lifecycle events.
// Emission is fire-and-forget: a dropped event never fails the business
// operation that produced it.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the identity service.
const (
	ActionRegistered      = "account.registered"
	ActionLogin           = "account.login"
	ActionLoginFailed     = "account.login_failed"
	ActionLogout          = "account.logout"
	ActionPasswordChanged = "account.password_changed"
	ActionProfileUpdated  = "account.profile_updated"
	ActionAccountAssigned = "account.account_assigned"
	ActionAvatarChanged   = "account.avatar_changed"
)

// Event is one audit record. UserID is zero for failed logins against
// unknown accounts; plaintext credentials never appear here.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"`
	UserID    int64     `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink persists audit events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher feeds events into the worker's inbox without blocking the
// request path. When the inbox is full the event is dropped and logged.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Emit stamps and enqueues the event.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action, "user_id", event.UserID)
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }

// Worker consumes audit events from the publisher's inbox and persists them.
// It keeps background processing testable without wiring queue
// implementations into the service.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is canceled. Sink failures are
// logged, not propagated, so one bad event cannot stall the trail.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action, "error", err)
			}
		}
	}
}
