package events

import (
	"time"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded     EventType = "auth_login_succeeded"
	EventLoginFailed        EventType = "auth_login_failed"
	EventLogout             EventType = "auth_logout"
	EventCallbackReconciled EventType = "auth_callback_reconciled"
	EventAccountProvisioned EventType = "auth_account_provisioned"
)

// Event represents an auth audit event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// LoginPayload describes a credential login attempt.
type LoginPayload struct {
	Identifier string      `json:"identifier"`
	Role       domain.Role `json:"role,omitempty"`
}

// CallbackPayload describes a terminal reconciliation outcome.
type CallbackPayload struct {
	Flow     string `json:"flow"`
	State    string `json:"state"`
	Redirect string `json:"redirect"`
}

// ProvisionPayload describes a first-OAuth-login account creation.
type ProvisionPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}
