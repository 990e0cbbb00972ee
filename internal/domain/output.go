package domain

import (
	"encoding/json"
	"time"
)

// OutputType classifies an entry in a session's output log
type OutputType string

const (
	// OutputAgent is a structured message parsed from the agent's stdout
	OutputAgent OutputType = "agent"
	// OutputError records a supervisor or provisioning failure
	OutputError OutputType = "error"
	// OutputPermission records a resolved permission request
	OutputPermission OutputType = "permission"
	// OutputRaw is a stdout line that was not valid JSON
	OutputRaw OutputType = "raw"
	// OutputScript is a line printed by a project build or run script
	OutputScript OutputType = "script"
	// OutputSystem is a lifecycle note written by grove itself
	OutputSystem OutputType = "system"
	// OutputUser is input sent to the agent on the operator's behalf
	OutputUser OutputType = "user"
)

// OutputMessage is one entry of the append-only session log.
// Seq is assigned on append and increases by one per session.
type OutputMessage struct {
	CreatedAt time.Time       `json:"createdAt"`
	Data      json.RawMessage `json:"data"`
	Seq       int64           `json:"seq"`
	SessionID string          `json:"sessionId"`
	Type      OutputType      `json:"type"`
}

// TextData wraps plain text as the JSON payload of an OutputMessage
func TextData(text string) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"text": text})
	return data
}
