package domain

import "encoding/json"

// AgentMessageKind classifies a line printed by the agent
type AgentMessageKind string

const (
	AgentAssistant         AgentMessageKind = "assistant"
	AgentPermissionRequest AgentMessageKind = "permission_request"
	AgentRaw               AgentMessageKind = "raw"
	AgentResult            AgentMessageKind = "result"
	AgentSystem            AgentMessageKind = "system"
	AgentUser              AgentMessageKind = "user"
)

// AgentMessage is the parsed form of one agent output line
type AgentMessage struct {
	// AgentSessionID is the agent's own conversation id, used to resume it
	AgentSessionID string
	IsError        bool
	Kind           AgentMessageKind
	// Permission is set when Kind is AgentPermissionRequest
	Permission *AgentPermission
	Raw        json.RawMessage
	Result     string
	Subtype    string
	Text       string
	ToolCalls  []ToolCall
}

// AgentPermission is a tool-use approval request embedded in the agent protocol
type AgentPermission struct {
	RequestID string
	Tool      ToolCall
}
