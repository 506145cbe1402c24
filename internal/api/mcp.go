package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/auravoice/aura/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store     *storage.Store
	Status    StatusReader
	Assistant AskHandler
}

// StatusReader exposes the status snapshot to the MCP layer.
type StatusReader interface {
	Snapshot() map[string]string
}

// NewMCPServer creates an MCP server exposing the assistant to other agents.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"aura",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("aura — local voice assistant: ask questions, run commands, inspect the conversation."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Send one utterance through the assistant's classify-and-dispatch pipeline and return the response."),
			mcp.WithString("utterance", mcp.Description("The utterance to process"), mcp.Required()),
		),
		mcpAsk(deps),
	)

	s.AddTool(
		mcp.NewTool("recall_history",
			mcp.WithDescription("Return recent turns of the assistant's conversation transcript."),
			mcp.WithNumber("limit", mcp.Description("Maximum number of turns (default 10)")),
		),
		mcpRecallHistory(deps),
	)

	s.AddTool(
		mcp.NewTool("assistant_status",
			mcp.WithDescription("Return the assistant's current status slots (status, mic, display)."),
		),
		mcpAssistantStatus(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"aura://interactions",
			"Recent Interactions",
			mcp.WithResourceDescription("Last 10 processed utterances with their routed category and response"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceInteractions(deps),
	)

	return s
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		utterance, err := req.RequireString("utterance")
		if err != nil {
			return mcpError("utterance is required"), nil
		}

		outcome := deps.Assistant.Cycle(ctx, utterance)
		b, err := json.Marshal(map[string]any{
			"handler":  outcome.Handler,
			"response": outcome.Response,
			"exited":   outcome.Exited,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal outcome: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRecallHistory(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 200 {
			limit = 200
		}

		messages, err := deps.Store.RecentChatMessages(limit)
		if err != nil {
			return mcpError(fmt.Sprintf("recall failed: %v", err)), nil
		}

		type turn struct {
			Role      string `json:"role"`
			Content   string `json:"content"`
			CreatedAt string `json:"created_at"`
		}
		turns := make([]turn, len(messages))
		for i, m := range messages {
			turns[i] = turn{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt.Format(time.RFC3339)}
		}

		b, err := json.Marshal(turns)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal history: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAssistantStatus(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := json.Marshal(deps.Status.Snapshot())
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal status: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceInteractions(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		interactions, err := deps.Store.GetRecentInteractions(10)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent interactions: %w", err)
		}

		type interactionSummary struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
			Utterance string `json:"utterance"`
			Category  string `json:"category"`
			Response  string `json:"response"`
		}

		summaries := make([]interactionSummary, len(interactions))
		for i, ix := range interactions {
			response := ix.Response
			if utf8.RuneCountInString(response) > 200 {
				runes := []rune(response)
				response = string(runes[:200]) + "..."
			}
			summaries[i] = interactionSummary{
				ID:        ix.ID,
				CreatedAt: ix.CreatedAt.Format(time.RFC3339),
				Utterance: ix.Utterance,
				Category:  ix.Category,
				Response:  response,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal interactions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
