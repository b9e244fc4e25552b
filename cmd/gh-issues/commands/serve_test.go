package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goblinsan/gh-issues/pkg/dialog"
	"github.com/goblinsan/gh-issues/pkg/issues"
	"github.com/goblinsan/gh-issues/pkg/repo"
	"github.com/goblinsan/gh-issues/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI implements issueAPI for testing.
type fakeAPI struct {
	list      []types.IssueInfo
	detail    *types.IssueDetailInfo
	created   *types.IssueDetailInfo
	err       error
	submitted []types.IssueSubmit
	numbers   []int
}

func (f *fakeAPI) FetchList(_ context.Context) ([]types.IssueInfo, error) {
	return f.list, f.err
}

func (f *fakeAPI) FetchDetail(_ context.Context, number int) (*types.IssueDetailInfo, error) {
	f.numbers = append(f.numbers, number)
	return f.detail, f.err
}

func (f *fakeAPI) Create(_ context.Context, submit types.IssueSubmit) (*types.IssueDetailInfo, error) {
	f.submitted = append(f.submitted, submit)
	return f.created, f.err
}

func newTestServer(api *fakeAPI) *mcpServer {
	return &mcpServer{service: func() (issueAPI, error) { return api, nil }}
}

func callTool(t *testing.T, s *mcpServer, params string) mcpToolCallResult {
	t.Helper()
	resp := s.handleMCPRequest(context.Background(), jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`7`),
		Method:  "tools/call",
		Params:  json.RawMessage(params),
	})
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(mcpToolCallResult)
	require.True(t, ok, "expected mcpToolCallResult, got %T", resp.Result)
	require.Len(t, result.Content, 1)
	return result
}

func TestHandleMCPRequest_Initialize(t *testing.T) {
	s := newTestServer(&fakeAPI{})
	resp := s.handleMCPRequest(context.Background(), jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`1`),
		Method:  "initialize",
	})

	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Nil(t, resp.Error)

	result, ok := resp.Result.(mcpInitializeResult)
	require.True(t, ok, "expected mcpInitializeResult, got %T", resp.Result)
	assert.Equal(t, "2024-11-05", result.ProtocolVersion)
	assert.Equal(t, "gh-issues", result.ServerInfo.Name)
	assert.NotNil(t, result.Capabilities.Tools)
}

func TestHandleMCPRequest_Initialized(t *testing.T) {
	s := newTestServer(&fakeAPI{})
	resp := s.handleMCPRequest(context.Background(), jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  "notifications/initialized",
	})

	// Notifications should return empty response (no JSONRPC set)
	assert.Empty(t, resp.JSONRPC)
}

func TestHandleMCPRequest_ToolsList(t *testing.T) {
	s := newTestServer(&fakeAPI{})
	resp := s.handleMCPRequest(context.Background(), jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`2`),
		Method:  "tools/list",
	})
	assert.Nil(t, resp.Error)

	result, ok := resp.Result.(mcpToolsListResult)
	require.True(t, ok, "expected mcpToolsListResult, got %T", resp.Result)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		assert.True(t, json.Valid(tool.InputSchema), "schema of %s", tool.Name)
	}
	assert.Equal(t, []string{"list_issues", "get_issue", "create_issue"}, names)
}

func TestHandleMCPRequest_UnknownMethod(t *testing.T) {
	s := newTestServer(&fakeAPI{})
	resp := s.handleMCPRequest(context.Background(), jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`3`),
		Method:  "unknown/method",
	})

	require.NotNil(t, resp.Error)
	assert.Equal(t, -32601, resp.Error.Code)
}

func TestHandleToolCall_UnknownTool(t *testing.T) {
	result := callTool(t, newTestServer(&fakeAPI{}), `{"name":"nonexistent","arguments":{}}`)
	assert.True(t, result.IsError)
	assert.Equal(t, "unknown tool: nonexistent", result.Content[0].Text)
}

func TestHandleToolCall_InvalidParams(t *testing.T) {
	s := newTestServer(&fakeAPI{})
	resp := s.handleMCPRequest(context.Background(), jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`5`),
		Method:  "tools/call",
		Params:  json.RawMessage(`not-json`),
	})

	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestHandleToolCall_ListIssues(t *testing.T) {
	api := &fakeAPI{list: []types.IssueInfo{
		{Number: 2, Title: "newer", OpenedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{Number: 1, Title: "older", OpenedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}}

	result := callTool(t, newTestServer(api), `{"name":"list_issues"}`)
	require.False(t, result.IsError, result.Content[0].Text)

	var got []types.IssueInfo
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &got))
	assert.Equal(t, api.list, got)
}

func TestHandleToolCall_GetIssue(t *testing.T) {
	api := &fakeAPI{detail: &types.IssueDetailInfo{IssueInfo: types.IssueInfo{Number: 9, Title: "crash"}, Body: "trace"}}

	result := callTool(t, newTestServer(api), `{"name":"get_issue","arguments":{"number":9}}`)
	require.False(t, result.IsError, result.Content[0].Text)
	assert.Equal(t, []int{9}, api.numbers)
	assert.Contains(t, result.Content[0].Text, `"body":"trace"`)
}

func TestHandleToolCall_GetIssueRequiresNumber(t *testing.T) {
	api := &fakeAPI{}
	result := callTool(t, newTestServer(api), `{"name":"get_issue","arguments":{}}`)
	assert.True(t, result.IsError)
	assert.Empty(t, api.numbers)
}

func TestHandleToolCall_InvalidArguments(t *testing.T) {
	result := callTool(t, newTestServer(&fakeAPI{}), `{"name":"create_issue","arguments":"not-an-object"}`)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "failed to parse arguments")
}

func TestHandleToolCall_CreateIssue(t *testing.T) {
	api := &fakeAPI{created: &types.IssueDetailInfo{IssueInfo: types.IssueInfo{Number: 12}}}

	result := callTool(t, newTestServer(api),
		`{"name":"create_issue","arguments":{"title":"t","body":"b","milestone":"Sprint 4"}}`)
	require.False(t, result.IsError, result.Content[0].Text)
	assert.Equal(t, []types.IssueSubmit{{Title: "t", Body: "b", Milestone: "Sprint 4"}}, api.submitted)
	assert.Contains(t, result.Content[0].Text, `"number":12`)
}

func TestHandleToolCall_CreateIssueInvalidMilestone(t *testing.T) {
	api := &fakeAPI{err: issues.ErrInvalidMilestone}

	result := callTool(t, newTestServer(api), `{"name":"create_issue","arguments":{"title":"t","milestone":"99"}}`)
	assert.True(t, result.IsError)
	assert.Equal(t, issues.ErrInvalidMilestone.Error(), result.Content[0].Text)
}

// rejectingClient answers every create with a milestone validation error.
type rejectingClient struct{}

func (rejectingClient) ListIssues(context.Context, types.Repository, string) ([]types.IssueInfo, error) {
	return nil, nil
}

func (rejectingClient) GetIssue(context.Context, types.Repository, int) (*types.IssueDetailInfo, error) {
	return nil, nil
}

func (rejectingClient) CreateIssue(context.Context, types.Repository, types.IssueSubmit) (*types.IssueDetailInfo, []types.FieldError, error) {
	return nil, []types.FieldError{{Resource: "Issue", Field: "milestone", Code: "invalid"}}, nil
}

func (rejectingClient) FindMilestoneNumber(context.Context, types.Repository, string) (int, error) {
	return 0, nil
}

func TestHandleToolCall_CreateIssueReturnsDialogText(t *testing.T) {
	rec := &dialog.Recorder{}
	svc := issues.NewService(rejectingClient{}, repo.Static{Repository: "octo/hello"}, rec, issues.Options{})
	s := &mcpServer{
		service: func() (issueAPI, error) { return svc, nil },
		dialogs: rec,
	}

	result := callTool(t, s, `{"name":"create_issue","arguments":{"title":"t","milestone":"99"}}`)
	assert.True(t, result.IsError)
	text := result.Content[0].Text
	assert.Contains(t, text, "Error: Invalid milestone information.\n")
	assert.True(t, strings.HasSuffix(text, issues.ErrInvalidMilestone.Error()))
	assert.Empty(t, rec.Messages(), "dialogs are drained with the tool result")

	// a later successful call does not carry stale dialogs
	result = callTool(t, s, `{"name":"list_issues"}`)
	assert.False(t, result.IsError)
}

func TestHandleToolCall_ServiceUnavailable(t *testing.T) {
	s := &mcpServer{service: func() (issueAPI, error) { return nil, errors.New("unknown body encoding") }}

	result := callTool(t, s, `{"name":"list_issues"}`)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "failed to create issue service")
}

func TestHandleMCPRequest_IDPreserved(t *testing.T) {
	s := newTestServer(&fakeAPI{})

	// String ID
	resp := s.handleMCPRequest(context.Background(), jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`"abc-123"`),
		Method:  "tools/list",
	})
	assert.Equal(t, `"abc-123"`, string(resp.ID))

	// Numeric ID
	resp = s.handleMCPRequest(context.Background(), jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`42`),
		Method:  "initialize",
	})
	assert.Equal(t, `42`, string(resp.ID))
}

func TestServe_Stream(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		``,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`garbage`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}, "\n"))
	var out bytes.Buffer

	require.NoError(t, newTestServer(&fakeAPI{}).serve(context.Background(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var parseErr jsonRPCResponse
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &parseErr))
	require.NotNil(t, parseErr.Error)
	assert.Equal(t, -32700, parseErr.Error.Code)
	assert.Contains(t, lines[2], `"list_issues"`)
}
