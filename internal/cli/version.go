package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/koipond/inkwell/internal/store"
)

// commitOptions holds flags for the commit command.
type commitOptions struct {
	*RootOptions
	Message string
}

// NewCommitCommand creates the commit command.
func NewCommitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &commitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "commit <entry-id>",
		Short: "Snapshot an entry's current content",
		Long: `Snapshot an entry's current content as its next numbered version and
advance the version head. The snapshot carries a checksum for later
verification.

Examples:
  inkwell commit 0192...
  inkwell commit 0192... -m "tightened the opening"`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "commit message")

	return cmd
}

func runCommit(opts *commitOptions, entryID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	var message *string
	if cmd.Flags().Changed("message") {
		message = &opts.Message
	}

	version, err := env.Desk.Commit(cmd.Context(), entryID, message)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), version)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Committed version %d of entry %s\n", version.VersionNumber, entryID)
	return nil
}

// NewVersionsCommand creates the versions command.
func NewVersionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "versions <entry-id>",
		Short:         "List an entry's snapshots, newest first",
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersions(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runVersions(opts *RootOptions, entryID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	versions, err := env.Desk.Versions(cmd.Context(), entryID)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), versions)
	}

	w := cmd.OutOrStdout()
	if len(versions) == 0 {
		fmt.Fprintln(w, "No versions committed.")
		return nil
	}
	for _, v := range versions {
		line := fmt.Sprintf("v%d  %s  %.12s", v.VersionNumber, formatTime(v.CommittedAt), v.Checksum)
		if v.CommitMessage != nil && *v.CommitMessage != "" {
			line += fmt.Sprintf("  %q", *v.CommitMessage)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// NewVersionCommand groups the single-version subcommands.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Inspect a single snapshot",
	}

	cmd.AddCommand(newVersionShowCommand(rootOpts))
	cmd.AddCommand(newVersionVerifyCommand(rootOpts))

	return cmd
}

func newVersionShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <entry-id> <n>",
		Short:         "Show a numbered snapshot",
		Args:          usageArgs(cobra.ExactArgs(2)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseVersionNumber(args[1])
			if err != nil {
				return err
			}
			return runVersionShow(rootOpts, args[0], n, cmd)
		},
	}
	return cmd
}

func runVersionShow(opts *RootOptions, entryID string, n int64, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	version, err := env.Desk.VersionByNumber(cmd.Context(), entryID, n)
	if err != nil {
		return opError(err)
	}
	if version == nil {
		return opError(fmt.Errorf("version %d of entry %s: %w", n, entryID, store.ErrNotFound))
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), version)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Version %d of entry %s\n", version.VersionNumber, entryID)
	fmt.Fprintf(w, "Committed: %s\n", formatTime(version.CommittedAt))
	fmt.Fprintf(w, "Checksum: %s\n", version.Checksum)
	if version.CommitMessage != nil && *version.CommitMessage != "" {
		fmt.Fprintf(w, "Message: %s\n", *version.CommitMessage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, version.ContentSnapshot.PlainText())
	return nil
}

func newVersionVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <entry-id> <n>",
		Short: "Verify a snapshot's checksum",
		Long: `Recompute a snapshot's checksum and compare it against the recorded
one. A mismatch exits with code 1.`,
		Args:          usageArgs(cobra.ExactArgs(2)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseVersionNumber(args[1])
			if err != nil {
				return err
			}
			return runVersionVerify(rootOpts, args[0], n, cmd)
		},
	}
	return cmd
}

func runVersionVerify(opts *RootOptions, entryID string, n int64, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	ok, err := env.Desk.VerifyVersion(cmd.Context(), entryID, n)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		if err := printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"entry":    entryID,
			"version":  n,
			"verified": ok,
		}); err != nil {
			return err
		}
	} else if ok {
		fmt.Fprintf(cmd.OutOrStdout(), "Version %d of entry %s verified: checksum matches\n", n, entryID)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Version %d of entry %s FAILED verification: snapshot does not match its checksum\n", n, entryID)
	}

	if !ok {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: version %d of entry %s failed verification", ErrCodeIntegrity, n, entryID))
	}
	return nil
}

// NewRevertCommand creates the revert command.
func NewRevertCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert <entry-id> <n>",
		Short: "Restore an entry's content from a snapshot",
		Long: `Restore an entry's working content from a numbered snapshot. The
version head and the snapshot history stay intact; commit afterwards to
record the restored content as a new version.`,
		Args:          usageArgs(cobra.ExactArgs(2)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseVersionNumber(args[1])
			if err != nil {
				return err
			}
			return runRevert(rootOpts, args[0], n, cmd)
		},
	}
	return cmd
}

func runRevert(opts *RootOptions, entryID string, n int64, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Desk.Revert(cmd.Context(), entryID, n); err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"entry":   entryID,
			"version": n,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reverted entry %s to version %d\n", entryID, n)
	return nil
}

// parseVersionNumber parses a positional version-number argument.
func parseVersionNumber(arg string) (int64, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || n < 1 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("%s: invalid version number %q", ErrCodeInput, arg))
	}
	return n, nil
}
