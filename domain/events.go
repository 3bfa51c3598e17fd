package domain

import "time"

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Authentication events
	UserLoginEvent        AuditEventType = "USER_LOGIN"
	UserLoginFailureEvent AuditEventType = "USER_LOGIN_FAILED"
	SecondFactorEvent     AuditEventType = "SECOND_FACTOR_REQUESTED"
	UserLogoutEvent       AuditEventType = "USER_LOGOUT"

	// Draft lifecycle events
	DraftCapturedEvent  AuditEventType = "DRAFT_CAPTURED"
	DraftDiscardedEvent AuditEventType = "DRAFT_DISCARDED"

	// Publish events
	PostPublishedEvent      AuditEventType = "POST_PUBLISHED"
	PostPublishFailureEvent AuditEventType = "POST_PUBLISH_FAILED"
)

// AuditEvent represents a business event that occurred in the system
type AuditEvent struct {
	EventType  AuditEventType `json:"event_type"`
	Identifier string         `json:"identifier,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	ErrorMsg   string         `json:"error_msg,omitempty"`
	Success    bool           `json:"success"`
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType) *AuditEvent {
	return &AuditEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Success:   true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithIdentifier sets the identifier field
func (e *AuditEvent) WithIdentifier(identifier string) *AuditEvent {
	e.Identifier = identifier
	return e
}
