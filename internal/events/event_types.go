package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/jobsync/jobsync-auth/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventUserLoggedIn    EventType = "user_logged_in"
	EventUserLoggedOut   EventType = "user_logged_out"
	EventPasswordChanged EventType = "password_changed"
	EventUserRoleChanged EventType = "user_role_changed"
	EventLoginFailed     EventType = "login_failed"
)

// Event represents an account event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New stamps an event with an id and the current time.
func New(eventType EventType, subjectID, actorID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// LoginFailedPayload payload. Reason stays server-side.
type LoginFailedPayload struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// UserRoleChangedPayload payload.
type UserRoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`

	// TokensRevoked is false when revocation is disabled; old tokens then
	// keep OldRole until they expire.
	TokensRevoked bool `json:"tokens_revoked"`
}
