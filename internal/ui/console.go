// Package ui is the blocking terminal front end: it renders assistant output
// and serves as the human-approval responder for tool interrupts.
package ui

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Cyclone1070/loom/internal/orchestrator/models"
)

var (
	bannerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	modelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	promptStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	statusStyle   = lipgloss.NewStyle().Faint(true)
	toolStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	approvalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

// Console reads from one stream and writes styled output to another. It
// implements the orchestrator's approval Responder with a y/n/a prompt.
type Console struct {
	in       *bufio.Scanner
	out      io.Writer
	markdown *glamour.TermRenderer

	// A single goroutine owns the scanner so a cancelled read never
	// leaves a second reader racing on it.
	readOnce sync.Once
	lines    chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// NewConsole creates a Console. Markdown rendering degrades to plain text if
// the terminal renderer cannot be initialized.
func NewConsole(in io.Reader, out io.Writer) *Console {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		renderer = nil
	}
	return &Console{
		in:       bufio.NewScanner(in),
		out:      out,
		markdown: renderer,
	}
}

// Banner prints the startup header.
func (c *Console) Banner(model string) {
	fmt.Fprintln(c.out, bannerStyle.Render("loom"))
	fmt.Fprintln(c.out, modelStyle.Render("model: "+model))
	fmt.Fprintln(c.out, statusStyle.Render("/exit to quit, /clear to reset, /prompts to list custom prompts"))
	fmt.Fprintln(c.out)
}

// WriteAssistant renders assistant text as markdown.
func (c *Console) WriteAssistant(text string) {
	if c.markdown != nil {
		if rendered, err := c.markdown.Render(text); err == nil {
			fmt.Fprint(c.out, rendered)
			return
		}
	}
	fmt.Fprintln(c.out, text)
}

// WriteStatus prints an ephemeral one-line status.
func (c *Console) WriteStatus(message string) {
	fmt.Fprintln(c.out, statusStyle.Render(message))
}

// WriteError prints a turn-level failure.
func (c *Console) WriteError(err error) {
	fmt.Fprintln(c.out, errorStyle.Render("error: ")+err.Error())
}

// WriteLine prints unstyled text.
func (c *Console) WriteLine(text string) {
	fmt.Fprintln(c.out, text)
}

// ReadInput prompts for one line of user input. Cancelling ctx unblocks the
// read; the discarded line is lost, which is acceptable at exit.
func (c *Console) ReadInput(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(c.out, promptStyle.Render(prompt))
	return c.readLine(ctx)
}

// RespondApproval implements the approval responder: it shows the tool call
// and asks y (once), n (decline), or a (always allow).
func (c *Console) RespondApproval(ctx context.Context, req models.ApprovalRequest) (models.ApprovalDecision, error) {
	fmt.Fprintln(c.out, approvalStyle.Render("Tool approval required"))
	fmt.Fprintln(c.out, toolStyle.Render("  tool: ")+req.ToolName)
	fmt.Fprintln(c.out, toolStyle.Render("  args: ")+formatArgs(req.Arguments))

	for {
		fmt.Fprint(c.out, promptStyle.Render("Allow? [y]es / [n]o / [a]lways: "))
		line, err := c.readLine(ctx)
		if err != nil {
			return models.ApprovalDecision{}, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return models.ApprovalDecision{Approved: true}, nil
		case "n", "no":
			return models.ApprovalDecision{Approved: false, Reason: "declined by user"}, nil
		case "a", "always":
			return models.ApprovalDecision{Approved: true, RememberApproval: true}, nil
		}
		fmt.Fprintln(c.out, statusStyle.Render("please answer y, n, or a"))
	}
}

func (c *Console) readLine(ctx context.Context) (string, error) {
	c.readOnce.Do(func() {
		c.lines = make(chan lineResult)
		go func() {
			for c.in.Scan() {
				c.lines <- lineResult{line: c.in.Text()}
			}
			err := c.in.Err()
			if err == nil {
				err = io.EOF
			}
			c.lines <- lineResult{err: err}
			close(c.lines)
		}()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	}
}

func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(data)
}
