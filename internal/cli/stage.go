package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// stageOptions holds flags for the stage command.
type stageOptions struct {
	*RootOptions
	Off bool
}

// NewStageCommand creates the stage command.
func NewStageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &stageOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stage <entry-id>",
		Short: "Mark an entry for the next export",
		Long: `Mark an entry for inclusion in the next export bundle. Staging is
idempotent. --off removes the mark instead.

Examples:
  inkwell stage 0192...
  inkwell stage 0192... --off`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Off, "off", false, "unstage instead")

	return cmd
}

func runStage(opts *stageOptions, entryID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	if opts.Off {
		err = env.Desk.Unstage(cmd.Context(), entryID)
	} else {
		err = env.Desk.Stage(cmd.Context(), entryID)
	}
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"entry":  entryID,
			"staged": !opts.Off,
		})
	}
	if opts.Off {
		fmt.Fprintf(cmd.OutOrStdout(), "Unstaged entry %s\n", entryID)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Staged entry %s\n", entryID)
	}
	return nil
}

// NewStagedCommand creates the staged command.
func NewStagedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "staged <stream-id>",
		Short:         "List a stream's staged entries",
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStaged(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runStaged(opts *RootOptions, streamID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	entries, err := env.Desk.StagedEntries(cmd.Context(), streamID)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), entries)
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries staged.")
		return nil
	}
	fmt.Fprintf(w, "%d staged in stream %s:\n", len(entries), streamID)
	for _, e := range entries {
		fmt.Fprintln(w, entryHeadline(e))
		if text := e.Content.PlainText(); text != "" {
			fmt.Fprintf(w, "    %s\n", firstLine(text, 80))
		}
	}
	return nil
}

// NewUnstageAllCommand creates the unstage-all command.
func NewUnstageAllCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "unstage-all <stream-id>",
		Short:         "Clear a stream's staging set",
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnstageAll(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runUnstageAll(opts *RootOptions, streamID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Desk.UnstageAll(cmd.Context(), streamID); err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]string{"cleared": streamID})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared staging for stream %s\n", streamID)
	return nil
}
