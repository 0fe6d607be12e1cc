package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find entries by content",
		Long: `Find entries whose content contains the query, case-insensitively,
across all streams. Most recently updated first, capped at the configured
search.limit.`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSearch(opts *RootOptions, query string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	entries, err := env.Desk.Search(cmd.Context(), query)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), entries)
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No matches.")
		return nil
	}
	fmt.Fprintf(w, "%d matches:\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s\n", e.StreamID, entryHeadline(e))
		if text := e.Content.PlainText(); text != "" {
			fmt.Fprintf(w, "    %s\n", firstLine(text, 80))
		}
	}
	return nil
}
