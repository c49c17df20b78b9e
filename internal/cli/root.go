// Package cli wires the agent together behind a cobra command.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the top-level loom command.
func NewRootCmd() *cobra.Command {
	var (
		workspaceRoot string
		threadID      string
		oneShot       string
	)

	cmd := &cobra.Command{
		Use:   "loom",
		Short: "A tool-using coding agent for your terminal",
		Long: `Loom drives a language model through think/act cycles against your
workspace, asking for approval before running tools your settings have not
already allowed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), workspaceRoot, threadID)
			if err != nil {
				return err
			}
			defer app.Close()

			if oneShot != "" {
				return app.RunOnce(cmd.Context(), oneShot)
			}
			return app.RunInteractive(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&workspaceRoot, "workspace", "w", ".", "Workspace root directory")
	cmd.Flags().StringVar(&threadID, "thread", "default", "Conversation thread id")
	cmd.Flags().StringVarP(&oneShot, "prompt", "p", "", "Run a single prompt and exit")

	return cmd
}
