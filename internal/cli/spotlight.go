package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewSpotlightCommand groups the spotlight subcommands.
func NewSpotlightCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spotlight",
		Short: "Manage saved text selections",
		Long: `Manage spotlights: saved selections within an entry's plain text,
quoted under their entry in export bundles to point the reader at a
passage.`,
	}

	cmd.AddCommand(newSpotlightAddCommand(rootOpts))
	cmd.AddCommand(newSpotlightListCommand(rootOpts))
	cmd.AddCommand(newSpotlightRmCommand(rootOpts))

	return cmd
}

func newSpotlightAddCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <entry-id> <start> <end>",
		Short: "Save a selection",
		Long: `Save the selection [start, end) of an entry's plain text, as byte
offsets. The highlighted text and its surrounding lines are captured at add
time; later edits to the entry do not move the offsets.

Example:
  inkwell spotlight add 0192... 9 18`,
		Args:          usageArgs(cobra.ExactArgs(3)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseOffset(args[1])
			if err != nil {
				return err
			}
			end, err := parseOffset(args[2])
			if err != nil {
				return err
			}
			return runSpotlightAdd(rootOpts, args[0], start, end, cmd)
		},
	}
	return cmd
}

func runSpotlightAdd(opts *RootOptions, entryID string, start, end int64, cmd *cobra.Command) error {
	if start >= end {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: empty selection [%d, %d)", ErrCodeInput, start, end))
	}

	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	entry, err := env.Desk.Entry(cmd.Context(), entryID)
	if err != nil {
		return opError(err)
	}
	plain := entry.Content.PlainText()
	if end > int64(len(plain)) {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: selection end %d past entry text (%d bytes)", ErrCodeInput, end, len(plain)))
	}

	highlighted := plain[start:end]
	spot, err := env.Desk.AddSpotlight(cmd.Context(), entryID, selectionContext(plain, start, end), highlighted, start, end)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), spot)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added spotlight %s on entry %s: %q\n", spot.ID, entryID, highlighted)
	return nil
}

// selectionContext returns the full lines of text covering [start, end).
func selectionContext(plain string, start, end int64) string {
	from := strings.LastIndexByte(plain[:start], '\n') + 1
	to := len(plain)
	if rel := strings.IndexByte(plain[end:], '\n'); rel >= 0 {
		to = int(end) + rel
	}
	return plain[from:to]
}

func newSpotlightListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list <entry-id>",
		Short:         "List an entry's spotlights",
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpotlightList(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSpotlightList(opts *RootOptions, entryID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	spots, err := env.Desk.Spotlights(cmd.Context(), entryID)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), spots)
	}

	w := cmd.OutOrStdout()
	if len(spots) == 0 {
		fmt.Fprintln(w, "No spotlights.")
		return nil
	}
	for _, s := range spots {
		fmt.Fprintf(w, "%s  [%d, %d)  %q\n", s.ID, s.StartOffset, s.EndOffset, s.HighlightedText)
	}
	return nil
}

func newSpotlightRmCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rm <spotlight-id>",
		Short:         "Delete a spotlight",
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpotlightRm(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSpotlightRm(opts *RootOptions, spotlightID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Desk.RemoveSpotlight(cmd.Context(), spotlightID); err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": spotlightID})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted spotlight %s\n", spotlightID)
	return nil
}

// parseOffset parses a positional byte-offset argument.
func parseOffset(arg string) (int64, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || n < 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("%s: invalid offset %q", ErrCodeInput, arg))
	}
	return n, nil
}
