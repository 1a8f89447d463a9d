// Package audit records the append-only trail of verification and
// moderation activity. Services emit events through the Publisher port;
// production wires the Kafka publisher, tests use the memory one.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names an auditable activity.
type Action string

const (
	ActionOrganizationVerified Action = "organization_verified"
	ActionPhoneVerified        Action = "phone_or_person_verified"
	ActionReportCreated        Action = "report_created"
	ActionAdminLogin           Action = "admin_login"
	ActionAdminEdit            Action = "admin_edit"
)

// Event is one audit record. Subject identifies what was acted on (tax ID,
// phone number, report ID); Actor is empty for anonymous traffic.
type Event struct {
	ID        string            `json:"id"`
	Action    Action            `json:"action"`
	Actor     string            `json:"actor,omitempty"`
	Subject   string            `json:"subject"`
	Detail    map[string]string `json:"detail,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Publisher emits audit events. Emit must not block request handling on
// broker availability; implementations are free to buffer.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
	Close() error
}

// Fill stamps identity and time onto an event if the emitter left them
// zero.
func Fill(event Event, now time.Time) Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	return event
}
