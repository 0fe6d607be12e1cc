package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/koipond/inkwell/internal/journal"
)

// exportOptions holds flags for the export command.
type exportOptions struct {
	*RootOptions
	Directive string
	Copy      bool
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &exportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <stream-id>",
		Short: "Bundle staged entries for an outside reading",
		Long: `Bundle a stream's staged entries under a directive and record a
pending block with a fresh bridge key. The bundle prints to stdout ready to
paste into any AI chat; the marker on its last line carries the key the
reply must echo back. Staging stays intact, so re-exporting after an edit
just issues a new key.

Examples:
  inkwell export 0192... --directive critique
  inkwell export 0192... --directive dump --copy`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Directive, "directive", "", "directive name (required)")
	cmd.Flags().BoolVar(&opts.Copy, "copy", false, "also place the bundle on the system clipboard")

	return cmd
}

func runExport(opts *exportOptions, streamID string, cmd *cobra.Command) error {
	if opts.Directive == "" {
		return NewExitError(ExitCommandError, ErrCodeInput+": required flag --directive not set")
	}

	env, err := openEnv(cmd.Context(), opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	block, bundle, err := env.Desk.Export(cmd.Context(), streamID, opts.Directive)
	if err != nil {
		return opError(err)
	}

	if opts.Copy {
		if err := clipboard.WriteAll(bundle); err != nil {
			return cmdError(ErrCodeClipboard, "failed to copy bundle to clipboard", err)
		}
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), struct {
			Block  journal.PendingBlock `json:"block"`
			Bundle string               `json:"bundle"`
		}{block, bundle})
	}

	fmt.Fprint(cmd.OutOrStdout(), bundle)
	slog.Info("export ready", "block", block.ID, "key", block.BridgeKey, "staged", len(block.StagedContextIDs))
	return nil
}

// NewAbsorbCommand creates the absorb command.
func NewAbsorbCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "absorb <stream-id> [file]",
		Short: "Paste an AI reply back into a stream",
		Long: `Absorb a pasted reply into a stream. The reply is read from the file
argument when given, otherwise from stdin. Its bridge marker must carry the
key of the stream's newest pending block; on a match the reply becomes an
ai entry whose parent context is the exact entries that were exported, the
block is consumed, and staging is cleared.

Examples:
  pbpaste | inkwell absorb 0192...
  inkwell absorb 0192... reply.txt`,
		Args:          usageArgs(cobra.RangeArgs(1, 2)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAbsorb(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runAbsorb(opts *RootOptions, args []string, cmd *cobra.Command) error {
	pasted, err := readReply(cmd, args)
	if err != nil {
		return err
	}

	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	entry, err := env.Desk.Absorb(cmd.Context(), args[0], pasted)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), entry)
	}

	w := cmd.OutOrStdout()
	if entry.AIMetadata != nil {
		fmt.Fprintf(w, "Absorbed reply as entry %s (seq %d, directive %s)\n", entry.ID, entry.SequenceID, entry.AIMetadata.Directive)
	} else {
		fmt.Fprintf(w, "Absorbed reply as entry %s (seq %d)\n", entry.ID, entry.SequenceID)
	}
	return nil
}

// readReply returns the pasted text from the optional file argument,
// otherwise from stdin.
func readReply(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 1 {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return "", cmdError(ErrCodeReadFailed, "failed to read reply file", err)
		}
		return string(data), nil
	}
	return readText(cmd, args, 1)
}

// NewPendingCommand creates the pending command.
func NewPendingCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending <stream-id>",
		Short: "List a stream's outstanding exports",
		Long: `List a stream's pending blocks, newest first. Only the newest one can
match an absorbed reply; discard the stale ones.`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPending(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runPending(opts *RootOptions, streamID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	blocks, err := env.Desk.PendingBlocks(cmd.Context(), streamID)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), blocks)
	}

	w := cmd.OutOrStdout()
	if len(blocks) == 0 {
		fmt.Fprintln(w, "No pending blocks.")
		return nil
	}
	for i, b := range blocks {
		line := fmt.Sprintf("%s  key=%s  directive=%s  entries=%d  created=%s",
			b.ID, b.BridgeKey, b.Directive, len(b.StagedContextIDs), formatTime(b.CreatedAt))
		if i == 0 {
			line += "  (latest)"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// NewDiscardCommand creates the discard command.
func NewDiscardCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discard <pending-block-id>",
		Short: "Drop a pending block",
		Long: `Drop a pending block without absorbing a reply. Staging is untouched.
Blocks never expire on their own; this is the only way to retire one short
of absorbing against it.`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscard(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDiscard(opts *RootOptions, blockID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Desk.Discard(cmd.Context(), blockID); err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]string{"discarded": blockID})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Discarded pending block %s\n", blockID)
	return nil
}
