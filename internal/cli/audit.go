package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koipond/inkwell/internal/store"
)

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [entry-id]",
		Short: "Verify version chains and checksums",
		Long: `Verify the integrity of stored version history: version numbers must
run contiguously from 1, each entry's version head must equal its highest
stored number, and every snapshot must hash to its recorded checksum.
Pending blocks are checked for staged ids whose entry is gone.

With an entry id, audits that entry alone. Any finding exits with code 1.

Exit codes:
  0 - Everything clean
  1 - At least one finding
  2 - Command error`,
		Args:          usageArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runAudit(opts *RootOptions, args []string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	if len(args) == 1 {
		return auditOne(opts, env, args[0], cmd)
	}
	return auditAll(opts, env, cmd)
}

func auditOne(opts *RootOptions, env *Env, entryID string, cmd *cobra.Command) error {
	audit, err := env.Desk.AuditEntry(cmd.Context(), entryID)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		if err := printJSON(cmd.OutOrStdout(), audit); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		if audit.Clean {
			fmt.Fprintf(w, "Entry %s clean: %d versions, head %d\n", entryID, audit.VersionCount, audit.VersionHead)
		} else {
			fmt.Fprintf(w, "Entry %s:\n", entryID)
			for _, finding := range describeFindings(audit) {
				fmt.Fprintf(w, "  %s\n", finding)
			}
		}
	}

	if !audit.Clean {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: entry %s failed the audit", ErrCodeIntegrity, entryID))
	}
	return nil
}

func auditAll(opts *RootOptions, env *Env, cmd *cobra.Command) error {
	report, err := env.Desk.Audit(cmd.Context())
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Checked %d entries: %d clean\n", report.EntriesChecked, report.CleanEntries)
		fmt.Fprintf(w, "Checked %d pending blocks: %d dangling staged ids\n", report.PendingChecked, report.DanglingRefs)
		for _, audit := range report.Findings {
			fmt.Fprintf(w, "entry %s:\n", audit.EntryID)
			for _, finding := range describeFindings(audit) {
				fmt.Fprintf(w, "  %s\n", finding)
			}
		}
	}

	if len(report.Findings) > 0 || report.DanglingRefs > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: audit found problems", ErrCodeIntegrity))
	}
	return nil
}

// describeFindings renders an entry audit's problems as text lines.
func describeFindings(audit store.EntryAudit) []string {
	var lines []string
	if audit.HeadMismatch {
		lines = append(lines, fmt.Sprintf("version head %d does not match the highest stored number", audit.VersionHead))
	}
	if len(audit.MissingNums) > 0 {
		lines = append(lines, "missing version numbers: "+joinInt64(audit.MissingNums))
	}
	if len(audit.BadChecksums) > 0 {
		lines = append(lines, "checksum mismatches at versions: "+joinInt64(audit.BadChecksums))
	}
	return lines
}

func joinInt64(nums []int64) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}
