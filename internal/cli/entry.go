package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koipond/inkwell/internal/journal"
)

// NewEntryCommand groups the entry management subcommands.
func NewEntryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Manage entries",
	}

	cmd.AddCommand(newEntryAddCommand(rootOpts))
	cmd.AddCommand(newEntrySetCommand(rootOpts))
	cmd.AddCommand(newEntryRmCommand(rootOpts))
	cmd.AddCommand(newEntryAssignCommand(rootOpts))

	return cmd
}

// entryAddOptions holds flags for the entry add command.
type entryAddOptions struct {
	*RootOptions
	Role string
}

func newEntryAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &entryAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <stream-id> [text]",
		Short: "Add an entry to a stream",
		Long: `Add an entry to a stream. Text comes from the argument when given,
otherwise from stdin.

Examples:
  inkwell entry add 0192... "The lamp went dark."
  cat draft.txt | inkwell entry add 0192...`,
		Args:          usageArgs(cobra.RangeArgs(1, 2)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntryAdd(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Role, "role", journal.RoleUser, "entry role (user|ai)")

	return cmd
}

func runEntryAdd(opts *entryAddOptions, args []string, cmd *cobra.Command) error {
	if !journal.ValidRoles[opts.Role] {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: invalid role %q (valid: user, ai)", ErrCodeInput, opts.Role))
	}

	text, err := readText(cmd, args, 1)
	if err != nil {
		return err
	}

	env, err := openEnv(cmd.Context(), opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	entry, err := env.Desk.CreateEntry(cmd.Context(), args[0], opts.Role, journal.TextDocument(text), nil, nil)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), entry)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created entry %s (seq %d) in stream %s\n", entry.ID, entry.SequenceID, entry.StreamID)
	return nil
}

func newEntrySetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <entry-id> [text]",
		Short: "Replace an entry's content",
		Long: `Replace an entry's working content. Text comes from the argument when
given, otherwise from stdin. Committed snapshots are untouched.`,
		Args:          usageArgs(cobra.RangeArgs(1, 2)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntrySet(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runEntrySet(opts *RootOptions, args []string, cmd *cobra.Command) error {
	text, err := readText(cmd, args, 1)
	if err != nil {
		return err
	}

	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Desk.SetContent(cmd.Context(), args[0], journal.TextDocument(text)); err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]string{"updated": args[0]})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated entry %s\n", args[0])
	return nil
}

func newEntryRmCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rm <entry-id>",
		Short:         "Delete an entry",
		Long:          "Delete an entry with its versions and spotlights. Remaining entries keep their sequence slots.",
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntryRm(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runEntryRm(opts *RootOptions, entryID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Desk.DeleteEntry(cmd.Context(), entryID); err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": entryID})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted entry %s\n", entryID)
	return nil
}

// entryAssignOptions holds flags for the entry assign command.
type entryAssignOptions struct {
	*RootOptions
	Profile string
	Clear   bool
}

func newEntryAssignCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &entryAssignOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assign <entry-id>...",
		Short: "Set or clear the relay profile on entries",
		Long: `Set or clear the relay profile recorded on one or more entries.
Exactly one of --profile or --clear is required. Entries that do not exist
are skipped; the count reports how many changed.

Examples:
  inkwell entry assign 0192... 0193... --profile 0191...
  inkwell entry assign 0192... --clear`,
		Args:          usageArgs(cobra.MinimumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntryAssign(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Profile, "profile", "", "profile id to assign")
	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "clear the profile reference")

	return cmd
}

func runEntryAssign(opts *entryAssignOptions, entryIDs []string, cmd *cobra.Command) error {
	if opts.Clear && opts.Profile != "" {
		return NewExitError(ExitCommandError, ErrCodeInput+": --profile and --clear cannot be combined")
	}
	if !opts.Clear && opts.Profile == "" {
		return NewExitError(ExitCommandError, ErrCodeInput+": set --profile <id> or --clear")
	}

	var profileID *string
	if opts.Profile != "" {
		profileID = &opts.Profile
	}

	env, err := openEnv(cmd.Context(), opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	var updated int64
	if len(entryIDs) == 1 {
		if err := env.Desk.AssignProfile(cmd.Context(), entryIDs[0], profileID); err != nil {
			return opError(err)
		}
		updated = 1
	} else {
		updated, err = env.Desk.BulkAssignProfile(cmd.Context(), entryIDs, profileID)
		if err != nil {
			return opError(err)
		}
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]int64{
			"updated":   updated,
			"requested": int64(len(entryIDs)),
		})
	}
	w := cmd.OutOrStdout()
	if opts.Clear {
		fmt.Fprintf(w, "Cleared profile on %d of %d entries\n", updated, len(entryIDs))
	} else {
		fmt.Fprintf(w, "Assigned profile %s to %d of %d entries\n", opts.Profile, updated, len(entryIDs))
	}
	return nil
}
