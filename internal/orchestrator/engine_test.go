package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/loom/internal/checkpoint"
	"github.com/Cyclone1070/loom/internal/config"
	"github.com/Cyclone1070/loom/internal/orchestrator/adapter"
	"github.com/Cyclone1070/loom/internal/orchestrator/models"
	providerModels "github.com/Cyclone1070/loom/internal/provider/models"
)

// MockProvider implements provider.Provider for testing
type MockProvider struct {
	GenerateFunc func(ctx context.Context, req *providerModels.GenerateRequest) (*providerModels.GenerateResponse, error)
	GetModelFunc func() string
}

func (m *MockProvider) Generate(ctx context.Context, req *providerModels.GenerateRequest) (*providerModels.GenerateResponse, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *MockProvider) GetModel() string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc()
	}
	return "test-model"
}

// MockTool implements adapter.Tool and records its executions
type MockTool struct {
	name        string
	ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)
	Calls       []map[string]any
}

func (m *MockTool) Name() string        { return m.name }
func (m *MockTool) Description() string { return "mock tool" }
func (m *MockTool) Definition() providerModels.ToolDefinition {
	return providerModels.ToolDefinition{Name: m.name, Description: "mock tool"}
}
func (m *MockTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	m.Calls = append(m.Calls, args)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, args)
	}
	return "ok", nil
}

// scriptedResponses returns a GenerateFunc that replays responses in order.
func scriptedResponses(t *testing.T, responses ...*providerModels.GenerateResponse) func(context.Context, *providerModels.GenerateRequest) (*providerModels.GenerateResponse, error) {
	t.Helper()
	i := 0
	return func(ctx context.Context, req *providerModels.GenerateRequest) (*providerModels.GenerateResponse, error) {
		require.Less(t, i, len(responses), "unexpected extra model call")
		resp := responses[i]
		i++
		return resp, nil
	}
}

type fixture struct {
	engine    *Engine
	provider  *MockProvider
	tool      *MockTool
	store     checkpoint.Store
	settings  *config.Service
	responder *ResponderFunc
}

func newFixture(t *testing.T, settings config.Settings) *fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, config.Save(dir, settings))
	svc := config.NewService(dir)

	p := &MockProvider{}
	tool := &MockTool{name: "read_file"}
	store := checkpoint.NewMemoryStore()

	var respond ResponderFunc = func(ctx context.Context, req models.ApprovalRequest) (models.ApprovalDecision, error) {
		return models.ApprovalDecision{}, errors.New("unexpected approval prompt")
	}
	f := &fixture{provider: p, tool: tool, store: store, settings: svc, responder: &respond}

	f.engine = New(Config{
		ThreadID: "t-1",
		Provider: p,
		Tools:    adapter.NewRegistry(tool),
		Settings: svc,
		Store:    store,
		Responder: ResponderFunc(func(ctx context.Context, req models.ApprovalRequest) (models.ApprovalDecision, error) {
			return (*f.responder)(ctx, req)
		}),
	})
	return f
}

func defaultTestSettings() config.Settings {
	s := config.DefaultSettings()
	s.ContextWindowSize = 100_000
	return s
}

func toolCallResponse(calls ...models.ToolCall) *providerModels.GenerateResponse {
	return &providerModels.GenerateResponse{ToolCalls: calls}
}

func textResponse(text string) *providerModels.GenerateResponse {
	return &providerModels.GenerateResponse{Text: text}
}

func TestTextResponseEndsTurn(t *testing.T) {
	f := newFixture(t, defaultTestSettings())
	f.provider.GenerateFunc = scriptedResponses(t, textResponse("hello"))

	out, err := f.engine.SendMessage(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Empty(t, f.tool.Calls)

	history := f.engine.History()
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleHuman, history[0].Role)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
}

func TestAllowedToolExecutesAndLoopsBack(t *testing.T) {
	s := defaultTestSettings()
	s.Permissions.Allow = []string{"read_file"}
	f := newFixture(t, s)

	f.tool.ExecuteFunc = func(ctx context.Context, args map[string]any) (string, error) {
		return `{"content":"data"}`, nil
	}
	f.provider.GenerateFunc = scriptedResponses(t,
		toolCallResponse(models.ToolCall{ID: "c1", Name: "read_file", Args: map[string]any{"path": "x"}}),
		textResponse("done"),
	)

	out, err := f.engine.SendMessage(context.Background(), "read x")

	require.NoError(t, err)
	assert.Equal(t, "done", out)
	require.Len(t, f.tool.Calls, 1)
	assert.Equal(t, map[string]any{"path": "x"}, f.tool.Calls[0])

	history := f.engine.History()
	require.Len(t, history, 4)
	assert.Equal(t, models.RoleTool, history[2].Role)
	assert.Equal(t, "c1", history[2].ToolCallID)
	assert.Equal(t, `{"content":"data"}`, history[2].Content)
}

func TestDeniedBySettingsSkipsExecution(t *testing.T) {
	s := defaultTestSettings()
	s.Permissions.Deny = []string{"read_file"}
	f := newFixture(t, s)

	f.provider.GenerateFunc = scriptedResponses(t,
		toolCallResponse(models.ToolCall{ID: "c1", Name: "read_file", Args: map[string]any{"path": "x"}}),
		textResponse("understood"),
	)

	out, err := f.engine.SendMessage(context.Background(), "read x")

	require.NoError(t, err)
	assert.Equal(t, "understood", out)
	assert.Empty(t, f.tool.Calls)

	history := f.engine.History()
	require.Len(t, history, 4)
	assert.Equal(t, "Tool 'read_file' denied by settings.", history[2].Content)
}

func TestUndecidedEmitsInterruptPayload(t *testing.T) {
	f := newFixture(t, defaultTestSettings())

	var got models.ApprovalRequest
	*f.responder = func(ctx context.Context, req models.ApprovalRequest) (models.ApprovalDecision, error) {
		got = req
		return models.ApprovalDecision{Approved: true}, nil
	}
	f.provider.GenerateFunc = scriptedResponses(t,
		toolCallResponse(models.ToolCall{ID: "c1", Name: "read_file", Args: map[string]any{"path": "x"}}),
		textResponse("done"),
	)

	_, err := f.engine.SendMessage(context.Background(), "read x")

	require.NoError(t, err)
	assert.Equal(t, "tool_approval", got.Type)
	assert.Equal(t, "read_file", got.ToolName)
	assert.Equal(t, "c1", got.CallID)
	assert.Equal(t, map[string]any{"path": "x"}, got.Arguments)
	require.Len(t, f.tool.Calls, 1)
}

func TestUserDeclineSynthesizesToolMessage(t *testing.T) {
	f := newFixture(t, defaultTestSettings())

	*f.responder = func(ctx context.Context, req models.ApprovalRequest) (models.ApprovalDecision, error) {
		return models.ApprovalDecision{Approved: false, Reason: "declined by user"}, nil
	}
	f.provider.GenerateFunc = scriptedResponses(t,
		toolCallResponse(models.ToolCall{ID: "c1", Name: "read_file", Args: map[string]any{}}),
		textResponse("ok"),
	)

	_, err := f.engine.SendMessage(context.Background(), "read x")

	require.NoError(t, err)
	assert.Empty(t, f.tool.Calls)
	history := f.engine.History()
	assert.Equal(t, "Tool 'read_file' declined by user.", history[2].Content)
}

func TestPartialDeclineSkipsWholeBatch(t *testing.T) {
	f := newFixture(t, defaultTestSettings())

	*f.responder = func(ctx context.Context, req models.ApprovalRequest) (models.ApprovalDecision, error) {
		if req.CallID == "c1" {
			return models.ApprovalDecision{Approved: true}, nil
		}
		return models.ApprovalDecision{Approved: false, Reason: "declined by user"}, nil
	}
	f.provider.GenerateFunc = scriptedResponses(t,
		toolCallResponse(
			models.ToolCall{ID: "c1", Name: "read_file", Args: map[string]any{"path": "a"}},
			models.ToolCall{ID: "c2", Name: "read_file", Args: map[string]any{"path": "b"}},
		),
		textResponse("ok"),
	)

	_, err := f.engine.SendMessage(context.Background(), "read both")

	require.NoError(t, err)
	// Neither call executes, the approved one included.
	assert.Empty(t, f.tool.Calls)
	history := f.engine.History()
	require.Len(t, history, 4)
	assert.Equal(t, "c2", history[2].ToolCallID)
	assert.Equal(t, "Tool 'read_file' declined by user.", history[2].Content)
}

func TestRememberApprovalRecordsAllowRule(t *testing.T) {
	f := newFixture(t, defaultTestSettings())

	*f.responder = func(ctx context.Context, req models.ApprovalRequest) (models.ApprovalDecision, error) {
		return models.ApprovalDecision{Approved: true, RememberApproval: true}, nil
	}
	f.provider.GenerateFunc = scriptedResponses(t,
		toolCallResponse(models.ToolCall{ID: "c1", Name: "read_file", Args: map[string]any{"path": "x"}}),
		textResponse("done"),
	)

	_, err := f.engine.SendMessage(context.Background(), "read x")

	require.NoError(t, err)
	assert.Contains(t, f.settings.Settings().Permissions.Allow, "read_file")
}

func TestProviderErrorLeavesHistoryUnchanged(t *testing.T) {
	f := newFixture(t, defaultTestSettings())

	boom := errors.New("backend unreachable")
	f.provider.GenerateFunc = func(ctx context.Context, req *providerModels.GenerateRequest) (*providerModels.GenerateResponse, error) {
		return nil, boom
	}

	_, err := f.engine.SendMessage(context.Background(), "hi")

	require.ErrorIs(t, err, boom)
	history := f.engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, models.RoleHuman, history[0].Role)
}

func TestBudgetTooSmallFailsTurn(t *testing.T) {
	dir := t.TempDir()
	s := defaultTestSettings()
	s.ContextWindowSize = 1
	require.NoError(t, config.Save(dir, s))

	engine := New(Config{
		ThreadID: "t-1",
		Provider: &MockProvider{GenerateFunc: func(ctx context.Context, req *providerModels.GenerateRequest) (*providerModels.GenerateResponse, error) {
			t.Fatal("model must not be invoked when trimming fails")
			return nil, nil
		}},
		Tools:        adapter.NewRegistry(),
		Settings:     config.NewService(dir),
		Store:        checkpoint.NewMemoryStore(),
		Instructions: []string{"system instructions too large for a one token budget"},
	})

	_, err := engine.SendMessage(context.Background(), "hi")

	assert.ErrorIs(t, err, ErrContextBudget)
}

func TestSystemInstructionsPrependedNotStored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Save(dir, defaultTestSettings()))
	svc := config.NewService(dir)

	var seen []models.Message
	p := &MockProvider{GenerateFunc: func(ctx context.Context, req *providerModels.GenerateRequest) (*providerModels.GenerateResponse, error) {
		seen = req.History
		return textResponse("hi"), nil
	}}
	engine := New(Config{
		ThreadID:     "t-1",
		Provider:     p,
		Tools:        adapter.NewRegistry(),
		Settings:     svc,
		Store:        checkpoint.NewMemoryStore(),
		Instructions: []string{"base instructions", "project override"},
	})

	_, err := engine.SendMessage(context.Background(), "hello")

	require.NoError(t, err)
	require.Len(t, seen, 3)
	assert.Equal(t, models.RoleSystem, seen[0].Role)
	assert.Equal(t, "base instructions", seen[0].Content)
	assert.Equal(t, "project override", seen[1].Content)
	assert.Equal(t, models.RoleHuman, seen[2].Role)

	for _, msg := range engine.History() {
		assert.NotEqual(t, models.RoleSystem, msg.Role)
	}
}

func TestResetClearsStateAndCheckpoint(t *testing.T) {
	f := newFixture(t, defaultTestSettings())
	f.provider.GenerateFunc = scriptedResponses(t, textResponse("hello"))

	_, err := f.engine.SendMessage(context.Background(), "hi")
	require.NoError(t, err)

	require.NoError(t, f.engine.Reset())
	assert.Empty(t, f.engine.History())

	msgs, err := f.store.LoadMessages("t-1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestResetRunsVolatileStateHook(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Save(dir, defaultTestSettings()))
	cleared := false
	engine := New(Config{
		ThreadID: "t-1",
		Provider: &MockProvider{},
		Tools:    adapter.NewRegistry(),
		Settings: config.NewService(dir),
		Store:    checkpoint.NewMemoryStore(),
		OnReset:  func() { cleared = true },
	})

	require.NoError(t, engine.Reset())
	assert.True(t, cleared)
}

func TestResumeFinishesSuspendedBatch(t *testing.T) {
	// Simulate a process that stopped while one of two calls was already
	// approved: the store holds the assistant message and a cursor with
	// c1 resolved.
	f := newFixture(t, defaultTestSettings())

	assistant := models.NewAssistantMessage("", []models.ToolCall{
		{ID: "c1", Name: "read_file", Args: map[string]any{"path": "a"}},
		{ID: "c2", Name: "read_file", Args: map[string]any{"path": "b"}},
	})
	human := models.NewHumanMessage("read both")
	require.NoError(t, f.store.MergeMessages("t-1", []models.Message{human, assistant}))

	pending := models.NewPendingApproval("t-1", assistant.ID)
	pending.Resolve("c1", models.ApprovalDecision{Approved: true})
	require.NoError(t, f.store.SavePending(pending))

	var prompted []string
	*f.responder = func(ctx context.Context, req models.ApprovalRequest) (models.ApprovalDecision, error) {
		prompted = append(prompted, req.CallID)
		return models.ApprovalDecision{Approved: true}, nil
	}
	f.provider.GenerateFunc = scriptedResponses(t, textResponse("all read"))

	out, resumed, err := f.engine.Resume(context.Background())

	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, "all read", out)
	// Only the unresolved call prompts again.
	assert.Equal(t, []string{"c2"}, prompted)
	assert.Len(t, f.tool.Calls, 2)

	_, err = f.store.LoadPending("t-1")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestResumeWithoutPendingLoadsHistoryOnly(t *testing.T) {
	f := newFixture(t, defaultTestSettings())
	require.NoError(t, f.store.MergeMessages("t-1", []models.Message{
		models.NewHumanMessage("hi"),
	}))

	out, resumed, err := f.engine.Resume(context.Background())

	require.NoError(t, err)
	assert.False(t, resumed)
	assert.Empty(t, out)
	assert.Len(t, f.engine.History(), 1)
}

func TestCursorSurvivesUntilResultsAppended(t *testing.T) {
	s := defaultTestSettings()
	s.Permissions.Allow = []string{"read_file"}
	f := newFixture(t, s)

	// A crash during tool execution must find the cursor still in the
	// store, otherwise the batch could never be resumed.
	f.tool.ExecuteFunc = func(ctx context.Context, args map[string]any) (string, error) {
		pending, err := f.store.LoadPending("t-1")
		require.NoError(t, err)
		_, resolved := pending.Decision("c1")
		assert.True(t, resolved)
		return "ok", nil
	}
	f.provider.GenerateFunc = scriptedResponses(t,
		toolCallResponse(models.ToolCall{ID: "c1", Name: "read_file", Args: map[string]any{}}),
		textResponse("done"),
	)

	_, err := f.engine.SendMessage(context.Background(), "read x")

	require.NoError(t, err)
	_, err = f.store.LoadPending("t-1")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestResumeDropsCursorWhenBatchAlreadyAppended(t *testing.T) {
	// Crash after the batch results were appended but before the cursor
	// was cleared: the last message is a tool result, so there is nothing
	// to resume and the stale cursor is discarded.
	f := newFixture(t, defaultTestSettings())

	assistant := models.NewAssistantMessage("", []models.ToolCall{
		{ID: "c1", Name: "read_file", Args: map[string]any{}},
	})
	result := models.NewToolMessage("c1", "read_file", "ok")
	require.NoError(t, f.store.MergeMessages("t-1", []models.Message{
		models.NewHumanMessage("read x"), assistant, result,
	}))
	pending := models.NewPendingApproval("t-1", assistant.ID)
	pending.Resolve("c1", models.ApprovalDecision{Approved: true})
	require.NoError(t, f.store.SavePending(pending))

	_, resumed, err := f.engine.Resume(context.Background())

	require.NoError(t, err)
	assert.False(t, resumed)
	_, err = f.store.LoadPending("t-1")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestResponderAbandonKeepsCursor(t *testing.T) {
	f := newFixture(t, defaultTestSettings())

	gone := errors.New("responder went away")
	*f.responder = func(ctx context.Context, req models.ApprovalRequest) (models.ApprovalDecision, error) {
		return models.ApprovalDecision{}, gone
	}
	f.provider.GenerateFunc = scriptedResponses(t,
		toolCallResponse(models.ToolCall{ID: "c1", Name: "read_file", Args: map[string]any{}}),
	)

	_, err := f.engine.SendMessage(context.Background(), "read x")

	require.ErrorIs(t, err, gone)
	pending, err := f.store.LoadPending("t-1")
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Empty(t, pending.Resolved)
}

func TestTurnLimit(t *testing.T) {
	s := defaultTestSettings()
	s.Permissions.Allow = []string{"read_file"}
	f := newFixture(t, s)

	f.provider.GenerateFunc = func(ctx context.Context, req *providerModels.GenerateRequest) (*providerModels.GenerateResponse, error) {
		return toolCallResponse(models.ToolCall{ID: "", Name: "read_file", Args: map[string]any{}}), nil
	}

	_, err := f.engine.SendMessage(context.Background(), "loop forever")

	assert.ErrorIs(t, err, ErrTurnLimit)
}
