// Package shell implements the run_shell_command tool.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a single command execution.
const DefaultTimeout = 10 * time.Minute

// RunCommandRequest executes one shell command in the workspace root.
type RunCommandRequest struct {
	Command string `mapstructure:"command"`
}

func (r *RunCommandRequest) Validate() error {
	if r.Command == "" {
		return errors.New("missing required argument \"command\"")
	}
	return nil
}

// RunCommandResponse carries the combined output and exit status. A non-zero
// exit is an ordinary result for the model to read, not an error.
type RunCommandResponse struct {
	Output   string `json:"output"`
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out,omitempty"`
}

// Service executes shell commands.
type Service struct {
	workDir string
	timeout time.Duration
}

// NewService creates a Service running commands in workDir.
func NewService(workDir string, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{workDir: workDir, timeout: timeout}
}

// Run executes the command under "sh -c" with combined stdout/stderr.
func (s *Service) Run(ctx context.Context, req *RunCommandRequest) (*RunCommandResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", req.Command)
	cmd.Dir = s.workDir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	resp := &RunCommandResponse{Output: output.String()}

	if ctx.Err() == context.DeadlineExceeded {
		resp.TimedOut = true
		resp.ExitCode = -1
		return resp, nil
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		resp.ExitCode = 0
	case errors.As(err, &exitErr):
		resp.ExitCode = exitErr.ExitCode()
	default:
		// Could not start at all (command not found is reported by sh
		// itself, so this is genuinely infrastructural).
		return nil, fmt.Errorf("run command: %w", err)
	}
	return resp, nil
}
