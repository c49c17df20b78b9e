package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Cyclone1070/loom/internal/checkpoint"
	"github.com/Cyclone1070/loom/internal/config"
	"github.com/Cyclone1070/loom/internal/orchestrator"
	"github.com/Cyclone1070/loom/internal/orchestrator/adapter"
	"github.com/Cyclone1070/loom/internal/prompts"
	"github.com/Cyclone1070/loom/internal/provider"
	providermodels "github.com/Cyclone1070/loom/internal/provider/models"
	"github.com/Cyclone1070/loom/internal/tool/directory"
	"github.com/Cyclone1070/loom/internal/tool/file"
	"github.com/Cyclone1070/loom/internal/tool/shell"
	"github.com/Cyclone1070/loom/internal/tool/todo"
	"github.com/Cyclone1070/loom/internal/tool/workspace"
	"github.com/Cyclone1070/loom/internal/ui"
)

const checkpointFile = "checkpoints.db"

// app holds the wired agent for one process.
type app struct {
	engine   *orchestrator.Engine
	console  *ui.Console
	prompts  *prompts.Library
	settings *config.Service
	store    checkpoint.Store
	log      *zap.Logger
}

func newApp(ctx context.Context, workspaceRoot, threadID string) (*app, error) {
	ws, err := workspace.New(workspaceRoot)
	if err != nil {
		return nil, err
	}

	loomDir := filepath.Join(ws.Root, config.SettingsDir)
	if err := os.MkdirAll(loomDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", loomDir, err)
	}

	log := newLogger(loomDir)
	settings := config.NewService(ws.Root)

	store, err := checkpoint.NewBoltStore(filepath.Join(loomDir, checkpointFile))
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}

	prov, err := provider.New(ctx, settings.Model())
	if err != nil {
		store.Close()
		return nil, err
	}

	fileSvc := file.NewService(ws)
	shellSvc := shell.NewService(ws.Root, shell.DefaultTimeout)
	dirSvc := directory.NewService(ws)
	todoStore := todo.NewStore()
	todoSvc := todo.NewService(todoStore)

	registry := adapter.NewRegistry(
		adapter.NewReadFile(fileSvc),
		adapter.NewWriteFile(fileSvc),
		adapter.NewInsertText(fileSvc),
		adapter.NewListDirectory(dirSvc),
		adapter.NewRunShellCommand(shellSvc),
		adapter.NewReadTodos(todoSvc),
		adapter.NewWriteTodos(todoSvc),
	)

	console := ui.NewConsole(os.Stdin, os.Stdout)

	engine := orchestrator.New(orchestrator.Config{
		ThreadID:     threadID,
		Provider:     prov,
		Tools:        registry,
		Settings:     settings,
		Store:        store,
		Responder:    console,
		Instructions: loadInstructions(ws.Root),
		Logger:       log,
		OnReset:      todoStore.Clear,
	})

	return &app{
		engine:   engine,
		console:  console,
		prompts:  prompts.Load(filepath.Join(loomDir, "prompts"), log),
		settings: settings,
		store:    store,
		log:      log,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	_ = a.log.Sync()
}

// RunOnce sends a single prompt and prints the answer.
func (a *app) RunOnce(ctx context.Context, prompt string) error {
	out, err := a.engine.SendMessage(ctx, prompt)
	if err != nil {
		return err
	}
	a.console.WriteAssistant(out)
	return nil
}

// RunInteractive is the conversation loop. It first finishes any approval
// step that was suspended when the previous process stopped.
func (a *app) RunInteractive(ctx context.Context) error {
	a.console.Banner(a.settings.Model())

	if out, resumed, err := a.engine.Resume(ctx); err != nil {
		a.console.WriteError(err)
	} else if resumed {
		a.console.WriteAssistant(out)
	}

	for {
		line, err := a.console.ReadInput(ctx, "> ")
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/"):
			if done := a.runCommand(ctx, line); done {
				return nil
			}
		default:
			a.send(ctx, line)
		}
	}
}

// runCommand handles a slash command; it reports true when the loop should
// exit.
func (a *app) runCommand(ctx context.Context, line string) bool {
	name, args, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	args = strings.TrimSpace(args)

	switch name {
	case "exit", "quit":
		return true
	case "clear":
		if err := a.engine.Reset(); err != nil {
			a.console.WriteError(err)
		} else {
			a.console.WriteStatus("conversation cleared")
		}
	case "prompts":
		names := a.prompts.Names()
		if len(names) == 0 {
			a.console.WriteStatus("no custom prompts found")
			return false
		}
		for _, n := range names {
			p, _ := a.prompts.Lookup(n)
			a.console.WriteLine(fmt.Sprintf("/%s  %s", n, p.Description))
		}
	default:
		if p, ok := a.prompts.Lookup(name); ok {
			a.send(ctx, p.Render(args))
		} else {
			a.console.WriteStatus(fmt.Sprintf("unknown command /%s", name))
		}
	}
	return false
}

func (a *app) send(ctx context.Context, text string) {
	out, err := a.engine.SendMessage(ctx, text)
	if err != nil {
		a.console.WriteError(err)
		// Backend failures append nothing, so resending the message is safe.
		if providermodels.IsRetryable(err) {
			a.console.WriteStatus("transient backend failure, send the message again to retry")
		}
		return
	}
	a.console.WriteAssistant(out)
}

// newLogger writes structured logs to a file inside the settings directory
// so they never interleave with conversation output.
func newLogger(dir string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{filepath.Join(dir, "loom.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
