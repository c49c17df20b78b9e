// Package orchestrator drives the agent loop: model invocation, tool-call
// approval, tool execution, and context trimming.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Cyclone1070/loom/internal/checkpoint"
	"github.com/Cyclone1070/loom/internal/config"
	"github.com/Cyclone1070/loom/internal/orchestrator/adapter"
	"github.com/Cyclone1070/loom/internal/orchestrator/models"
	"github.com/Cyclone1070/loom/internal/provider"
	providerModels "github.com/Cyclone1070/loom/internal/provider/models"
)

// maxTurns bounds the model/tool round-trips one human message may trigger.
const maxTurns = 50

var (
	// ErrTurnActive is returned when a message or reset arrives while a
	// turn is still running. Callers must serialize turns per thread.
	ErrTurnActive = errors.New("orchestrator: turn already in progress")

	// ErrTurnLimit is returned when a turn exceeds maxTurns round-trips.
	ErrTurnLimit = errors.New("orchestrator: turn limit reached")
)

// Config wires an Engine's collaborators.
type Config struct {
	ThreadID     string
	Provider     provider.Provider
	Tools        *adapter.Registry
	Settings     *config.Service
	Store        checkpoint.Store
	Responder    Responder
	Counter      TokenCounter // defaults to EstimateTokens
	Instructions []string     // system instruction documents, in order
	Logger       *zap.Logger
	OnReset      func() // clears volatile side state, e.g. the todo list
}

// Engine is the turn state machine. It owns the conversation history for one
// thread; external callers only send human messages or request a reset.
type Engine struct {
	provider     provider.Provider
	tools        *adapter.Registry
	settings     *config.Service
	store        checkpoint.Store
	responder    Responder
	counter      TokenCounter
	instructions []string
	log          *zap.Logger
	onReset      func()

	mu     sync.Mutex
	state  *models.ConversationState
	active bool
}

// New creates an Engine. Call Resume before the first SendMessage to load
// checkpointed history and finish any suspended approval step.
func New(cfg Config) *Engine {
	counter := cfg.Counter
	if counter == nil {
		counter = EstimateTokens
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		provider:     cfg.Provider,
		tools:        cfg.Tools,
		settings:     cfg.Settings,
		store:        cfg.Store,
		responder:    cfg.Responder,
		counter:      counter,
		instructions: cfg.Instructions,
		log:          log,
		onReset:      cfg.OnReset,
		state:        models.NewConversationState(cfg.ThreadID),
	}
}

// History returns a copy of the conversation history.
func (e *Engine) History() []models.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Messages()
}

// SendMessage appends a human message and runs the turn to completion,
// returning the final assistant text. The turn may block indefinitely inside
// the approval responder; cancel ctx to abandon the model or tool step
// without corrupting the history.
func (e *Engine) SendMessage(ctx context.Context, text string) (string, error) {
	if err := e.begin(); err != nil {
		return "", err
	}
	defer e.end()

	human := models.NewHumanMessage(text)
	if err := e.append(human); err != nil {
		return "", err
	}
	return e.runTurn(ctx)
}

// Resume loads the checkpointed history and, if the previous process stopped
// during a suspended approval step, finishes that turn. It reports whether a
// turn was resumed and the final assistant text when one was.
func (e *Engine) Resume(ctx context.Context) (string, bool, error) {
	if err := e.begin(); err != nil {
		return "", false, err
	}
	defer e.end()

	msgs, err := e.store.LoadMessages(e.state.ThreadID)
	if err != nil {
		return "", false, err
	}
	e.mu.Lock()
	e.state.Merge(msgs...)
	e.mu.Unlock()

	if _, err := e.store.LoadPending(e.state.ThreadID); errors.Is(err, checkpoint.ErrNotFound) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}

	last, ok := e.lastMessage()
	if !ok || last.Role != models.RoleAssistant || len(last.ToolCalls) == 0 {
		// Cursor left behind with nothing to resolve; discard it.
		e.log.Warn("dropping orphaned approval cursor", zap.String("thread", e.state.ThreadID))
		if err := e.store.ClearPending(e.state.ThreadID); err != nil {
			return "", false, err
		}
		return "", false, nil
	}

	text, err := e.resumeTurn(ctx, last)
	return text, true, err
}

// Reset clears the conversation and its checkpoint. It is only valid while
// no turn is running.
func (e *Engine) Reset() error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.end()

	if err := e.store.DeleteThread(e.state.ThreadID); err != nil {
		return err
	}
	e.mu.Lock()
	e.state.Reset()
	e.mu.Unlock()
	if e.onReset != nil {
		e.onReset()
	}
	return nil
}

// runTurn loops model → approval → execution until the model answers without
// tool calls or the round-trip cap is hit.
func (e *Engine) runTurn(ctx context.Context) (string, error) {
	for range maxTurns {
		assistant, err := e.modelTurn(ctx)
		if err != nil {
			return "", err
		}
		if len(assistant.ToolCalls) == 0 {
			return assistant.Content, nil
		}
		if err := e.toolRound(ctx, assistant); err != nil {
			return "", err
		}
	}
	return "", ErrTurnLimit
}

// resumeTurn re-enters the loop at the approval step for a batch that was
// suspended when the process stopped.
func (e *Engine) resumeTurn(ctx context.Context, assistant models.Message) (string, error) {
	if err := e.toolRound(ctx, assistant); err != nil {
		return "", err
	}
	return e.runTurn(ctx)
}

// toolRound resolves and executes one tool-call batch, appending either the
// synthetic decline messages or the execution results. The pending cursor is
// cleared only after the batch's outcome has been appended: a crash anywhere
// before that leaves a resumable cursor rather than a dangling batch.
func (e *Engine) toolRound(ctx context.Context, assistant models.Message) error {
	declines, err := e.approveBatch(ctx, assistant)
	if err != nil {
		return err
	}
	if len(declines) > 0 {
		// Fail closed: one decline skips execution for the whole batch.
		if err := e.append(declines...); err != nil {
			return err
		}
		return e.clearCursor()
	}
	results, err := e.executeBatch(ctx, assistant)
	if err != nil {
		return err
	}
	if err := e.append(results...); err != nil {
		return err
	}
	return e.clearCursor()
}

func (e *Engine) clearCursor() error {
	if err := e.store.ClearPending(e.state.ThreadID); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// modelTurn trims the history, invokes the model, and appends the assistant
// message. On any failure the history is left unchanged so a retry is safe.
func (e *Engine) modelTurn(ctx context.Context) (models.Message, error) {
	history := make([]models.Message, 0, len(e.instructions)+e.stateLen())
	for _, doc := range e.instructions {
		history = append(history, models.NewSystemMessage(doc))
	}
	history = append(history, e.History()...)

	trimmed, err := Trim(history, e.settings.ContextWindowSize(), e.counter)
	if err != nil {
		return models.Message{}, err
	}

	resp, err := e.provider.Generate(ctx, &providerModels.GenerateRequest{
		History: trimmed,
		Tools:   e.tools.Definitions(),
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("provider error: %w", err)
	}

	assistant := models.NewAssistantMessage(resp.Text, resp.ToolCalls)
	if err := e.append(assistant); err != nil {
		return models.Message{}, err
	}
	return assistant, nil
}

// executeBatch runs every call in the batch and returns the tool messages.
// Tool failures become ordinary result text; only infrastructure problems
// (cancellation, checkpointing) surface as errors.
func (e *Engine) executeBatch(ctx context.Context, assistant models.Message) ([]models.Message, error) {
	results := make([]models.Message, 0, len(assistant.ToolCalls))
	for _, call := range assistant.ToolCalls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, models.NewToolMessage(call.ID, call.Name, e.executeCall(ctx, call)))
	}
	return results, nil
}

func (e *Engine) executeCall(ctx context.Context, call models.ToolCall) string {
	tool, ok := e.tools.Lookup(call.Name)
	if !ok {
		return fmt.Sprintf("Error: unknown tool '%s'", call.Name)
	}
	e.log.Debug("executing tool", zap.String("tool", call.Name), zap.String("call", call.ID))
	out, err := tool.Execute(ctx, call.Args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return out
}

// append merges messages into the in-memory state and the checkpoint store
// as one causal step.
func (e *Engine) append(msgs ...models.Message) error {
	if err := e.store.MergeMessages(e.state.ThreadID, msgs); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	e.mu.Lock()
	e.state.Merge(msgs...)
	e.mu.Unlock()
	return nil
}

func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		return ErrTurnActive
	}
	e.active = true
	return nil
}

func (e *Engine) end() {
	e.mu.Lock()
	e.active = false
	e.mu.Unlock()
}

func (e *Engine) lastMessage() (models.Message, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Last()
}

func (e *Engine) stateLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Len()
}
