package domain

import (
	"encoding/json"
	"time"
)

// PermissionBehavior is the operator's answer to a tool-use request
type PermissionBehavior string

const (
	BehaviorAllow PermissionBehavior = "allow"
	BehaviorDeny  PermissionBehavior = "deny"
)

// PermissionRequest is a tool call waiting for an operator decision
type PermissionRequest struct {
	AgentRequestID string
	CreatedAt      time.Time
	ID             string
	Input          json.RawMessage
	Resolved       bool
	SessionID      string
	ToolName       string
}

// PermissionDecision resolves a PermissionRequest
type PermissionDecision struct {
	Behavior PermissionBehavior `json:"behavior"`
	// Cancelled marks a synthetic deny produced by stop, archive, delete or timeout
	Cancelled    bool            `json:"-"`
	Message      string          `json:"message,omitempty"`
	UpdatedInput json.RawMessage `json:"updatedInput,omitempty"`
}

// Allow returns an allow decision that passes input through unchanged
func Allow(input json.RawMessage) PermissionDecision {
	return PermissionDecision{Behavior: BehaviorAllow, UpdatedInput: input}
}

// CancelledDeny returns the deny used when a wait is cancelled
func CancelledDeny(reason string) PermissionDecision {
	return PermissionDecision{Behavior: BehaviorDeny, Cancelled: true, Message: reason}
}

// Validate checks a decision supplied by an operator
func (d PermissionDecision) Validate() error {
	switch d.Behavior {
	case BehaviorAllow:
		if len(d.UpdatedInput) > 0 && !json.Valid(d.UpdatedInput) {
			return NewValidationError("updatedInput", "must be valid JSON")
		}
		return nil
	case BehaviorDeny:
		return nil
	default:
		return NewValidationError("behavior", "must be 'allow' or 'deny'")
	}
}
