package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/grove/internal/adapters/agent"
	"github.com/renato0307/grove/internal/domain"
)

type fakePrompter struct {
	decision domain.PermissionDecision
	err      error
	prompt   PromptRequest
	session  string
}

func (f *fakePrompter) PermissionPrompt(_ context.Context, sessionID string, prompt PromptRequest) (domain.PermissionDecision, error) {
	f.session = sessionID
	f.prompt = prompt
	return f.decision, f.err
}

func callApproval(t *testing.T, prompter Prompter, args map[string]any) approvalResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = BridgeToolName
	req.Params.Arguments = args

	result, err := approvalHandler("s1", prompter)(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	var decoded approvalResult
	require.NoError(t, json.Unmarshal([]byte(text.Text), &decoded))
	return decoded
}

func TestBridge_ToolNameMatchesAgentConfig(t *testing.T) {
	assert.Equal(t, agent.MCPToolName, "mcp__"+BridgeServerName+"__"+BridgeToolName)
}

func TestBridge_ApprovalPrompt(t *testing.T) {
	args := map[string]any{
		"tool_name":   "Bash",
		"input":       map[string]any{"command": "go test ./..."},
		"tool_use_id": "tu-9",
	}

	tests := []struct {
		name     string
		prompter *fakePrompter
		behavior domain.PermissionBehavior
		input    string
		message  string
	}{
		{
			name:     "allow passes the original input through",
			prompter: &fakePrompter{decision: domain.PermissionDecision{Behavior: domain.BehaviorAllow}},
			behavior: domain.BehaviorAllow,
			input:    `{"command":"go test ./..."}`,
		},
		{
			name: "allow with edited input",
			prompter: &fakePrompter{decision: domain.PermissionDecision{
				Behavior:     domain.BehaviorAllow,
				UpdatedInput: json.RawMessage(`{"command":"go test ./internal/..."}`),
			}},
			behavior: domain.BehaviorAllow,
			input:    `{"command":"go test ./internal/..."}`,
		},
		{
			name:     "deny keeps the operator message",
			prompter: &fakePrompter{decision: domain.PermissionDecision{Behavior: domain.BehaviorDeny, Message: "not on main"}},
			behavior: domain.BehaviorDeny,
			message:  "not on main",
		},
		{
			name:     "deny without message",
			prompter: &fakePrompter{decision: domain.PermissionDecision{Behavior: domain.BehaviorDeny}},
			behavior: domain.BehaviorDeny,
			message:  "denied by operator",
		},
		{
			name:     "daemon failure denies",
			prompter: &fakePrompter{err: errors.New("connection refused")},
			behavior: domain.BehaviorDeny,
			message:  "grove could not decide: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callApproval(t, tt.prompter, args)
			assert.Equal(t, tt.behavior, result.Behavior)
			assert.Equal(t, tt.message, result.Message)
			if tt.input != "" {
				assert.JSONEq(t, tt.input, string(result.UpdatedInput))
			} else {
				assert.Empty(t, result.UpdatedInput)
			}

			assert.Equal(t, "s1", tt.prompter.session)
			assert.Equal(t, "Bash", tt.prompter.prompt.ToolName)
			assert.Equal(t, "tu-9", tt.prompter.prompt.ToolUseID)
			assert.JSONEq(t, `{"command":"go test ./..."}`, string(tt.prompter.prompt.Input))
		})
	}
}

func TestBridge_ServerRegistersTool(t *testing.T) {
	s := NewBridgeServer("s1", "test", &fakePrompter{})

	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	encoded, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"name":"approval_prompt"`)
	assert.Contains(t, string(encoded), `"tool_name"`)
}
