package domain

import "time"

// AuditEventType names an auditable action
type AuditEventType string

const (
	AuditLoginSuccess    AuditEventType = "AUTH_LOGIN_SUCCESS"
	AuditLoginFailed     AuditEventType = "AUTH_LOGIN_FAILED"
	AuditAccountLocked   AuditEventType = "AUTH_ACCOUNT_LOCKED"
	AuditLoginBlocked    AuditEventType = "AUTH_LOGIN_BLOCKED"
	AuditRefresh         AuditEventType = "AUTH_REFRESH"
	AuditRefreshFailed   AuditEventType = "AUTH_REFRESH_FAILED"
	AuditLogout          AuditEventType = "AUTH_LOGOUT"
	AuditAccessDenied    AuditEventType = "AUTH_ACCESS_DENIED"
	AuditTxVerified      AuditEventType = "TX_VERIFIED"
	AuditTxRejected      AuditEventType = "TX_REJECTED"
	AuditTxLimitExceeded AuditEventType = "TX_LIMIT_EXCEEDED"
	AuditTxSubmitted     AuditEventType = "TX_SUBMITTED"
	AuditTxBatchRejected AuditEventType = "TX_BATCH_REJECTED"
	AuditEmployeeUnlock  AuditEventType = "EMPLOYEE_UNLOCKED"
)

// AuditOutcome is the result recorded with an event
type AuditOutcome string

const (
	OutcomeSuccess AuditOutcome = "SUCCESS"
	OutcomeFailure AuditOutcome = "FAILURE"
	OutcomeDenied  AuditOutcome = "DENIED"
)

// AuditEvent is a structured record handed to the audit sinks
type AuditEvent struct {
	ID         string                 `json:"id"`
	Type       AuditEventType         `json:"type"`
	ActorID    *uint                  `json:"actor_id,omitempty"`
	ActorRef   string                 `json:"actor_ref,omitempty"`
	Outcome    AuditOutcome           `json:"outcome"`
	Details    map[string]interface{} `json:"details,omitempty"`
	RemoteAddr string                 `json:"remote_addr,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// ActorEvent builds an event attributed to an authenticated employee
func ActorEvent(typ AuditEventType, actor EmployeeContext, outcome AuditOutcome, details map[string]interface{}) AuditEvent {
	id := actor.ID
	return AuditEvent{
		Type:     typ,
		ActorID:  &id,
		ActorRef: actor.EmployeeID,
		Outcome:  outcome,
		Details:  details,
	}
}
