package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/ports"
)

// Permission transports understood by ClaudeProtocol
const (
	TransportMCP   = "mcp"
	TransportStdio = "stdio"
)

// MCPToolName is the permission prompt tool name the agent sees in mcp transport
const MCPToolName = "mcp__grove__approval_prompt"

// EnvSessionID is set on every agent process so helpers can find their session
const EnvSessionID = "GROVE_SESSION_ID"

// ClaudeConfig configures how the Claude CLI is launched
type ClaudeConfig struct {
	Binary    string
	ExtraArgs []string
	// BridgeCommand is the grove executable launched as the MCP permission bridge
	BridgeCommand string
	ServerURL     string
	Transport     string
}

// ClaudeProtocol implements ports.AgentProtocol for the Claude CLI stream-json mode
type ClaudeProtocol struct {
	config ClaudeConfig
}

// Verify interface compliance at compile time
var _ ports.AgentProtocol = (*ClaudeProtocol)(nil)

// NewClaudeProtocol creates a ClaudeProtocol
func NewClaudeProtocol(config ClaudeConfig) *ClaudeProtocol {
	if config.Binary == "" {
		config.Binary = "claude"
	}
	if config.Transport == "" {
		config.Transport = TransportStdio
	}
	return &ClaudeProtocol{config: config}
}

// BuildCommand implements AgentProtocol.BuildCommand
func (p *ClaudeProtocol) BuildCommand(launch ports.AgentLaunch) (string, []string, []string) {
	args := []string{
		"--print",
		"--output-format", "stream-json",
		"--input-format", "stream-json",
		"--verbose",
	}
	if launch.ResumeID != "" {
		args = append(args, "--resume", launch.ResumeID)
	}

	switch p.config.Transport {
	case TransportMCP:
		args = append(args,
			"--mcp-config", p.mcpConfig(launch.SessionID),
			"--permission-prompt-tool", MCPToolName,
		)
	default:
		args = append(args, "--permission-prompt-tool", "stdio")
	}

	args = append(args, p.config.ExtraArgs...)
	env := []string{EnvSessionID + "=" + launch.SessionID}

	logging.Logger.Debug("Built agent command",
		"session_id", launch.SessionID, "command", p.config.Binary+" "+strings.Join(args, " "))
	return p.config.Binary, args, env
}

// mcpConfig renders an inline --mcp-config document pointing at the grove bridge
func (p *ClaudeProtocol) mcpConfig(sessionID string) string {
	bridgeArgs := []string{"permission-prompt", "--session", sessionID}
	if p.config.ServerURL != "" {
		bridgeArgs = append(bridgeArgs, "--server", p.config.ServerURL)
	}

	doc := map[string]any{
		"mcpServers": map[string]any{
			"grove": map[string]any{
				"command": p.config.BridgeCommand,
				"args":    bridgeArgs,
			},
		},
	}
	data, _ := json.Marshal(doc)
	return string(data)
}

// streamMessage is one line of Claude's stream-json output
type streamMessage struct {
	IsError bool `json:"is_error"`
	Message struct {
		Content []struct {
			ID    string          `json:"id,omitempty"`
			Input json.RawMessage `json:"input,omitempty"`
			Name  string          `json:"name,omitempty"`
			Text  string          `json:"text,omitempty"`
			Type  string          `json:"type"`
		} `json:"content"`
	} `json:"message"`
	Request   *controlRequest `json:"request,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Result    string          `json:"result,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Subtype   string          `json:"subtype,omitempty"`
	Type      string          `json:"type"`
}

// controlRequest is the body of a control_request line
type controlRequest struct {
	Input     json.RawMessage `json:"input,omitempty"`
	Subtype   string          `json:"subtype"`
	ToolName  string          `json:"tool_name,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
}

// ParseLine implements AgentProtocol.ParseLine. Lines that are not JSON are raw text.
func (p *ClaudeProtocol) ParseLine(line []byte) domain.AgentMessage {
	raw := make([]byte, len(line))
	copy(raw, line)

	var msg streamMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		return domain.AgentMessage{Kind: domain.AgentRaw, Text: string(raw)}
	}

	result := domain.AgentMessage{
		AgentSessionID: msg.SessionID,
		IsError:        msg.IsError,
		Raw:            raw,
		Subtype:        msg.Subtype,
	}

	switch msg.Type {
	case "system":
		result.Kind = domain.AgentSystem
	case "assistant", "user":
		result.Kind = domain.AgentAssistant
		if msg.Type == "user" {
			result.Kind = domain.AgentUser
		}
		var text []string
		for _, c := range msg.Message.Content {
			switch c.Type {
			case "text":
				if c.Text != "" {
					text = append(text, c.Text)
				}
			case "tool_use":
				result.ToolCalls = append(result.ToolCalls, domain.DecodeToolCall(c.ID, c.Name, c.Input))
			}
		}
		result.Text = strings.Join(text, "\n")
	case "result":
		result.Kind = domain.AgentResult
		result.Result = msg.Result
	case "control_request":
		if msg.Request == nil || msg.Request.Subtype != "can_use_tool" {
			logging.Logger.Debug("Ignoring unsupported control request", "request_id", msg.RequestID)
			result.Kind = domain.AgentSystem
			return result
		}
		result.Kind = domain.AgentPermissionRequest
		result.Permission = &domain.AgentPermission{
			RequestID: msg.RequestID,
			Tool:      domain.DecodeToolCall(msg.Request.ToolUseID, msg.Request.ToolName, msg.Request.Input),
		}
	default:
		result.Kind = domain.AgentSystem
	}

	return result
}

// EncodeUserMessage implements AgentProtocol.EncodeUserMessage
func (p *ClaudeProtocol) EncodeUserMessage(text string) ([]byte, error) {
	msg := map[string]any{
		"type": "user",
		"message": map[string]any{
			"role":    "user",
			"content": text,
		},
	}
	return encodeLine(msg)
}

// EncodePermissionResponse implements AgentProtocol.EncodePermissionResponse
func (p *ClaudeProtocol) EncodePermissionResponse(agentRequestID string, decision domain.PermissionDecision) ([]byte, error) {
	if agentRequestID == "" {
		return nil, fmt.Errorf("permission response needs the agent request id")
	}

	body := map[string]any{"behavior": string(decision.Behavior)}
	switch decision.Behavior {
	case domain.BehaviorAllow:
		input := decision.UpdatedInput
		if len(input) == 0 {
			input = json.RawMessage("{}")
		}
		body["updatedInput"] = input
	default:
		message := decision.Message
		if message == "" {
			message = "Denied by operator"
		}
		body["message"] = message
	}

	msg := map[string]any{
		"type": "control_response",
		"response": map[string]any{
			"subtype":    "success",
			"request_id": agentRequestID,
			"response":   body,
		},
	}
	return encodeLine(msg)
}

func encodeLine(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode agent message: %w", err)
	}
	return append(data, '\n'), nil
}
