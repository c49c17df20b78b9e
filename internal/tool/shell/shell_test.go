package shell

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Echo(t *testing.T) {
	svc := NewService(t.TempDir(), 0)

	resp, err := svc.Run(context.Background(), &RunCommandRequest{Command: "echo hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", resp.Output)
	assert.Equal(t, 0, resp.ExitCode)
}

func TestRun_NonZeroExitIsAResultNotAnError(t *testing.T) {
	svc := NewService(t.TempDir(), 0)

	resp, err := svc.Run(context.Background(), &RunCommandRequest{Command: "exit 3"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.ExitCode)
}

func TestRun_CombinesStderr(t *testing.T) {
	svc := NewService(t.TempDir(), 0)

	resp, err := svc.Run(context.Background(), &RunCommandRequest{Command: "echo oops >&2"})
	require.NoError(t, err)
	assert.Equal(t, "oops\n", resp.Output)
}

func TestRun_Timeout(t *testing.T) {
	svc := NewService(t.TempDir(), 50*time.Millisecond)

	resp, err := svc.Run(context.Background(), &RunCommandRequest{Command: "sleep 5"})
	require.NoError(t, err)
	assert.True(t, resp.TimedOut)
}

func TestRun_EmptyCommand(t *testing.T) {
	svc := NewService(t.TempDir(), 0)

	_, err := svc.Run(context.Background(), &RunCommandRequest{})
	assert.Error(t, err)
}

func TestRun_RunsInWorkDir(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, 0)

	resp, err := svc.Run(context.Background(), &RunCommandRequest{Command: "pwd"})
	require.NoError(t, err)
	assert.Contains(t, resp.Output, dir)
}
