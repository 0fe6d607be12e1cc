package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koipond/inkwell/internal/journal"
	"github.com/koipond/inkwell/internal/store"
)

// NewProfileCommand groups the relay profile subcommands.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage relay profiles",
		Long: `Manage relay profiles: named provider/model pairs recording where a
reply was generated. The default profile is stamped onto absorbed entries.`,
	}

	cmd.AddCommand(newProfileNewCommand(rootOpts))
	cmd.AddCommand(newProfileListCommand(rootOpts))
	cmd.AddCommand(newProfileShowCommand(rootOpts))
	cmd.AddCommand(newProfileSetCommand(rootOpts))
	cmd.AddCommand(newProfileRmCommand(rootOpts))

	return cmd
}

// profileNewOptions holds flags for the profile new command.
type profileNewOptions struct {
	*RootOptions
	Default bool
}

func newProfileNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &profileNewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new <name> <provider> <model>",
		Short: "Create a profile",
		Long: `Create a relay profile. --default makes it the default, demoting any
previous one; at most one profile is the default at a time.

Example:
  inkwell profile new "daily driver" anthropic claude-sonnet-4 --default`,
		Args:          usageArgs(cobra.ExactArgs(3)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileNew(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Default, "default", false, "make this the default profile")

	return cmd
}

func runProfileNew(opts *profileNewOptions, args []string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	profile, err := env.Desk.CreateProfile(cmd.Context(), args[0], args[1], args[2], opts.Default)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), profile)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created profile %s: %s\n", profile.ID, profileHeadline(profile))
	return nil
}

func newProfileListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List profiles",
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileList(rootOpts, cmd)
		},
	}
	return cmd
}

func runProfileList(opts *RootOptions, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	profiles, err := env.Desk.Profiles(cmd.Context())
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), profiles)
	}

	w := cmd.OutOrStdout()
	if len(profiles) == 0 {
		fmt.Fprintln(w, "No profiles.")
		return nil
	}
	for _, p := range profiles {
		marker := " "
		if p.IsDefault {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s  %s\n", marker, p.ID, profileHeadline(p))
	}
	return nil
}

// profileHeadline renders "name (provider/model)".
func profileHeadline(p journal.Profile) string {
	return fmt.Sprintf("%s (%s/%s)", p.Name, p.Provider, p.Model)
}

func newProfileShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <profile-id>",
		Short:         "Show a profile and its entry count",
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileShow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runProfileShow(opts *RootOptions, profileID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	profile, err := env.Desk.Profile(cmd.Context(), profileID)
	if err != nil {
		return opError(err)
	}
	count, err := env.Desk.ProfileEntryCount(cmd.Context(), profileID)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), struct {
			Profile    journal.Profile `json:"profile"`
			EntryCount int64           `json:"entry_count"`
		}{profile, count})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Profile: %s (%s)\n", profile.Name, profile.ID)
	fmt.Fprintf(w, "Provider: %s\n", profile.Provider)
	fmt.Fprintf(w, "Model: %s\n", profile.Model)
	if profile.IsDefault {
		fmt.Fprintln(w, "Default: yes")
	}
	fmt.Fprintf(w, "Entries: %d\n", count)
	return nil
}

// profileSetOptions holds flags for the profile set command.
type profileSetOptions struct {
	*RootOptions
	Name     string
	Provider string
	Model    string
	Default  bool
}

func newProfileSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &profileSetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <profile-id>",
		Short: "Update a profile",
		Long: `Update a profile's fields. Only the flags given change. Setting
--default=true demotes any other default.`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileSet(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "new name")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "new provider")
	cmd.Flags().StringVar(&opts.Model, "model", "", "new model")
	cmd.Flags().BoolVar(&opts.Default, "default", false, "set or unset as the default profile")

	return cmd
}

func runProfileSet(opts *profileSetOptions, profileID string, cmd *cobra.Command) error {
	var upd store.ProfileUpdate
	flags := cmd.Flags()
	if flags.Changed("name") {
		upd.Name = &opts.Name
	}
	if flags.Changed("provider") {
		upd.Provider = &opts.Provider
	}
	if flags.Changed("model") {
		upd.Model = &opts.Model
	}
	if flags.Changed("default") {
		upd.IsDefault = &opts.Default
	}
	if upd == (store.ProfileUpdate{}) {
		return NewExitError(ExitCommandError, ErrCodeInput+": nothing to update (set --name, --provider, --model, or --default)")
	}

	env, err := openEnv(cmd.Context(), opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Desk.UpdateProfile(cmd.Context(), profileID, upd); err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		profile, err := env.Desk.Profile(cmd.Context(), profileID)
		if err != nil {
			return opError(err)
		}
		return printJSON(cmd.OutOrStdout(), profile)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated profile %s\n", profileID)
	return nil
}

func newProfileRmCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <profile-id>",
		Short: "Delete a profile",
		Long: `Delete a profile. Entries that referenced it keep their text and
metadata; only the profile reference is cleared.`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileRm(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runProfileRm(opts *RootOptions, profileID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Desk.DeleteProfile(cmd.Context(), profileID); err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": profileID})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %s\n", profileID)
	return nil
}
