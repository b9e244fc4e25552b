package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/goblinsan/gh-issues/pkg/dialog"
	"github.com/goblinsan/gh-issues/pkg/logger"
	"github.com/goblinsan/gh-issues/pkg/types"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

// JSON-RPC 2.0 types for MCP protocol
type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// MCP protocol types
type mcpInitializeResult struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    mcpCapabilities `json:"capabilities"`
	ServerInfo      mcpServerInfo   `json:"serverInfo"`
}

type mcpCapabilities struct {
	Tools *struct{} `json:"tools,omitempty"`
}

type mcpServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type mcpToolsListResult struct {
	Tools []mcpToolDef `json:"tools"`
}

type mcpToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type mcpToolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type mcpToolCallResult struct {
	Content []mcpContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

type mcpContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	toolListIssues  = "list_issues"
	toolGetIssue    = "get_issue"
	toolCreateIssue = "create_issue"
)

var mcpTools = []mcpToolDef{
	{
		Name:        toolListIssues,
		Description: "Lists the ten most recently opened issues of the selected GitHub repository, newest first.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	},
	{
		Name:        toolGetIssue,
		Description: "Returns one issue of the selected GitHub repository with its body, labels, assignees and milestone.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "number": {"type": "integer", "description": "Issue number"}
  },
  "required": ["number"]
}`),
	},
	{
		Name:        toolCreateIssue,
		Description: "Creates an issue in the selected GitHub repository. The milestone may be a number or a milestone title; open milestones are matched before closed ones.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "body": {"type": "string"},
    "milestone": {"type": "string", "description": "Milestone number or title"}
  },
  "required": ["title"]
}`),
	},
}

// mcpServer answers MCP requests using an issue service built on first use.
// Dialogs raised by the service are collected in dialogs and returned with
// the failing tool result, since stdio belongs to the protocol.
type mcpServer struct {
	service func() (issueAPI, error)
	dialogs *dialog.Recorder
}

func (s *mcpServer) handleMCPRequest(ctx context.Context, req jsonRPCRequest) jsonRPCResponse {
	switch req.Method {
	case "initialize":
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: mcpInitializeResult{
				ProtocolVersion: "2024-11-05",
				Capabilities:    mcpCapabilities{Tools: &struct{}{}},
				ServerInfo:      mcpServerInfo{Name: "gh-issues", Version: Version},
			},
		}

	case "notifications/initialized":
		// Client acknowledgment, no response needed (notification, no ID)
		return jsonRPCResponse{}

	case "tools/list":
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  mcpToolsListResult{Tools: mcpTools},
		}

	case "tools/call":
		return s.handleToolCall(ctx, req)

	default:
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &jsonRPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)},
		}
	}
}

func (s *mcpServer) handleToolCall(ctx context.Context, req jsonRPCRequest) jsonRPCResponse {
	var params mcpToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return jsonRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &jsonRPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)},
		}
	}

	text, err := s.callTool(ctx, params)
	shown := s.takeDialogs()
	if err != nil {
		logger.Error(ctx, "tool call failed", err, "tool", params.Name)
		var b strings.Builder
		for _, m := range shown {
			fmt.Fprintf(&b, "%s: %s\n", m.Title, m.Text)
		}
		b.WriteString(err.Error())
		return toolResult(req.ID, b.String(), true)
	}
	return toolResult(req.ID, text, false)
}

func (s *mcpServer) takeDialogs() []dialog.Message {
	if s.dialogs == nil {
		return nil
	}
	return s.dialogs.Take()
}

func (s *mcpServer) callTool(ctx context.Context, params mcpToolCallParams) (string, error) {
	var result any
	switch params.Name {
	case toolListIssues:
		svc, err := s.service()
		if err != nil {
			return "", fmt.Errorf("failed to create issue service: %w", err)
		}
		result, err = svc.FetchList(ctx)
		if err != nil {
			return "", err
		}

	case toolGetIssue:
		var args struct {
			Number int `json:"number"`
		}
		if err := decodeArguments(params.Arguments, &args); err != nil {
			return "", err
		}
		if args.Number <= 0 {
			return "", fmt.Errorf("number must be a positive issue number")
		}
		svc, err := s.service()
		if err != nil {
			return "", fmt.Errorf("failed to create issue service: %w", err)
		}
		result, err = svc.FetchDetail(ctx, args.Number)
		if err != nil {
			return "", err
		}

	case toolCreateIssue:
		var submit types.IssueSubmit
		if err := decodeArguments(params.Arguments, &submit); err != nil {
			return "", err
		}
		svc, err := s.service()
		if err != nil {
			return "", fmt.Errorf("failed to create issue service: %w", err)
		}
		issue, err := svc.Create(ctx, submit)
		if err != nil {
			return "", err
		}
		if issue == nil {
			return "issue submitted", nil
		}
		result = issue

	default:
		return "", fmt.Errorf("unknown tool: %s", params.Name)
	}

	out, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeArguments(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}
	return nil
}

func toolResult(id json.RawMessage, text string, isError bool) jsonRPCResponse {
	return jsonRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: mcpToolCallResult{
			Content: []mcpContent{{Type: "text", Text: text}},
			IsError: isError,
		},
	}
}

// serve reads one JSON-RPC request per line from in and writes responses to out.
func (s *mcpServer) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Increase buffer for large issue bodies (1 MB)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			resp := jsonRPCResponse{
				JSONRPC: "2.0",
				Error:   &jsonRPCError{Code: codeParseError, Message: fmt.Sprintf("parse error: %v", err)},
			}
			if err := encoder.Encode(resp); err != nil {
				return err
			}
			continue
		}

		resp := s.handleMCPRequest(ctx, req)
		// Notifications (no ID) don't get a response
		if resp.JSONRPC == "" {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}

	return scanner.Err()
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long:  `Run the MCP server to allow AI agents (Claude, Gemini, etc.) to list, read and create issues via the Model Context Protocol over stdin/stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := &dialog.Recorder{}
		server := &mcpServer{
			service: sync.OnceValues(func() (issueAPI, error) {
				return buildIssueService(rec)
			}),
			dialogs: rec,
		}
		return server.serve(cmd.Context(), os.Stdin, os.Stdout)
	},
}
