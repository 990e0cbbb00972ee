package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
)

const (
	// BridgeServerName is the MCP server name the agent's config refers to
	BridgeServerName = "grove"
	// BridgeToolName is the tool the agent calls before each tool use
	BridgeToolName = "approval_prompt"
)

// Prompter forwards a tool call to the daemon and waits for the decision
type Prompter interface {
	PermissionPrompt(ctx context.Context, sessionID string, prompt PromptRequest) (domain.PermissionDecision, error)
}

// ApprovalPromptArgs are the arguments the agent passes to the approval tool
type ApprovalPromptArgs struct {
	Input     json.RawMessage `json:"input"`
	ToolName  string          `json:"tool_name"`
	ToolUseID string          `json:"tool_use_id"`
}

// approvalResult is the JSON text the agent expects back from the tool
type approvalResult struct {
	Behavior     domain.PermissionBehavior `json:"behavior"`
	Message      string                    `json:"message,omitempty"`
	UpdatedInput json.RawMessage           `json:"updatedInput,omitempty"`
}

// NewBridgeServer builds the stdio MCP server one agent process talks to
func NewBridgeServer(sessionID, version string, prompter Prompter) *server.MCPServer {
	s := server.NewMCPServer(BridgeServerName, version, server.WithToolCapabilities(false))

	tool := mcp.NewTool(BridgeToolName,
		mcp.WithDescription("Ask the grove operator to approve or deny a tool call"),
		mcp.WithString("tool_name",
			mcp.Required(),
			mcp.Description("Name of the tool the agent wants to use")),
		mcp.WithObject("input",
			mcp.Required(),
			mcp.Description("Input the tool would be called with")),
		mcp.WithString("tool_use_id",
			mcp.Description("Identifier of the tool use")),
	)
	s.AddTool(tool, approvalHandler(sessionID, prompter))
	return s
}

// ServeBridge runs the MCP bridge on stdin and stdout until the agent exits
func ServeBridge(sessionID, version string, prompter Prompter) error {
	logging.Logger.Info("Starting permission bridge", "session_id", sessionID)
	return server.ServeStdio(NewBridgeServer(sessionID, version, prompter))
}

func approvalHandler(sessionID string, prompter Prompter) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ApprovalPromptArgs
		argsBytes, _ := json.Marshal(request.Params.Arguments)
		if err := json.Unmarshal(argsBytes, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		logging.Logger.Info("Forwarding permission prompt",
			"session_id", sessionID, "tool", args.ToolName, "tool_use_id", args.ToolUseID)

		result := approvalResult{Behavior: domain.BehaviorDeny}
		decision, err := prompter.PermissionPrompt(ctx, sessionID, PromptRequest{
			Input:     args.Input,
			ToolName:  args.ToolName,
			ToolUseID: args.ToolUseID,
		})
		switch {
		case err != nil:
			// Failures deny
			logging.Logger.Error("Permission prompt failed", "session_id", sessionID, "error", err)
			result.Message = fmt.Sprintf("grove could not decide: %v", err)
		case decision.Behavior == domain.BehaviorAllow:
			result.Behavior = domain.BehaviorAllow
			result.UpdatedInput = decision.UpdatedInput
			if len(result.UpdatedInput) == 0 {
				result.UpdatedInput = args.Input
			}
		default:
			result.Message = decision.Message
			if result.Message == "" {
				result.Message = "denied by operator"
			}
		}

		text, err := json.Marshal(result)
		if err != nil {
			return mcp.NewToolResultText(`{"behavior":"deny","message":"internal error: failed to encode result"}`), nil
		}
		return mcp.NewToolResultText(string(text)), nil
	}
}
