// Package events provides domain event definitions and the in-memory bus for
// decoupled, event-driven communication between modules.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is the base interface all domain events must implement.
type Event interface {
	// EventName returns a unique identifier for the event type.
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler processes events of a specific type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc is an adapter to allow ordinary functions to be used as handlers.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus is the interface for publishing and subscribing to domain events.
type Bus interface {
	// Publish sends an event to all registered handlers for that event type.
	// Handlers are executed asynchronously.
	Publish(ctx context.Context, event Event)

	// PublishSync sends an event and waits for all handlers to complete.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for a specific event type.
	// The eventName should match the value returned by Event.EventName().
	Subscribe(eventName string, handler Handler)
}

// =============================================================================
// Auth Domain Events
// =============================================================================

// UserRegistered is published when a new user successfully registers.
type UserRegistered struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	OTP    string    `json:"otp"`
}

func (e UserRegistered) EventName() string { return "auth.user.registered" }

// OTPRequested is published when a verification code must be delivered.
type OTPRequested struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	OTP    string    `json:"otp"`
}

func (e OTPRequested) EventName() string { return "auth.otp.requested" }

// =============================================================================
// Batch Call Domain Events
// =============================================================================

// BatchCallCreated is published after a batch call has been accepted by the
// voice provider or scheduled for later dispatch.
type BatchCallCreated struct {
	BaseEvent
	UserID     uuid.UUID  `json:"userId"`
	UserEmail  string     `json:"userEmail"`
	BatchID    string     `json:"batchId"`
	BatchName  string     `json:"batchName"`
	AgentID    string     `json:"agentId"`
	LeadCount  int        `json:"leadCount"`
	Scheduled  bool       `json:"scheduled"`
	DispatchAt *time.Time `json:"dispatchAt,omitempty"`
}

func (e BatchCallCreated) EventName() string { return "batch.call.created" }

// SingleCallCreated is published after a single outbound call has been
// accepted by the voice provider.
type SingleCallCreated struct {
	BaseEvent
	UserID      uuid.UUID `json:"userId"`
	CallID      string    `json:"callId"`
	AgentID     string    `json:"agentId"`
	PhoneNumber string    `json:"phoneNumber"`
}

func (e SingleCallCreated) EventName() string { return "call.single.created" }
