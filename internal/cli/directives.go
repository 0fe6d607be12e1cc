package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDirectivesCommand creates the directives command.
func NewDirectivesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directives",
		Short: "List available directives",
		Long: `List the directives exports can be bundled under: the built-in set
plus any definitions loaded from the configured directives.dir. A user
definition replaces a built-in of the same name.`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDirectives(rootOpts, cmd)
		},
	}
	return cmd
}

func runDirectives(opts *RootOptions, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	directives := env.Desk.Directives()

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), directives)
	}

	w := cmd.OutOrStdout()
	for _, d := range directives {
		origin := "user"
		if d.BuiltIn {
			origin = "built-in"
		}
		fmt.Fprintf(w, "%-12s %-8s %s\n", d.Name, origin, d.Summary)
	}
	return nil
}
