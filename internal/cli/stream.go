package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koipond/inkwell/internal/journal"
	"github.com/koipond/inkwell/internal/store"
)

// NewStreamCommand groups the stream management subcommands.
func NewStreamCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Manage writing streams",
	}

	cmd.AddCommand(newStreamNewCommand(rootOpts))
	cmd.AddCommand(newStreamListCommand(rootOpts))
	cmd.AddCommand(newStreamShowCommand(rootOpts))
	cmd.AddCommand(newStreamSetCommand(rootOpts))
	cmd.AddCommand(newStreamRmCommand(rootOpts))

	return cmd
}

// streamNewOptions holds flags for the stream new command.
type streamNewOptions struct {
	*RootOptions
	Description string
	Tags        []string
	Color       string
}

func newStreamNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &streamNewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create a stream",
		Long: `Create a new writing stream.

Example:
  inkwell stream new "Lighthouse Notes" --tags fiction,drafts`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStreamNew(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Description, "description", "", "stream description")
	cmd.Flags().StringSliceVar(&opts.Tags, "tags", nil, "comma-separated tags")
	cmd.Flags().StringVar(&opts.Color, "color", "", "display color")

	return cmd
}

func runStreamNew(opts *streamNewOptions, title string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	var description, color *string
	if opts.Description != "" {
		description = &opts.Description
	}
	if opts.Color != "" {
		color = &opts.Color
	}

	stream, err := env.Desk.CreateStream(cmd.Context(), title, description, opts.Tags, color)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), stream)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created stream %s: %s\n", stream.ID, stream.Title)
	return nil
}

func newStreamListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List streams",
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStreamList(rootOpts, cmd)
		},
	}
	return cmd
}

func runStreamList(opts *RootOptions, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	summaries, err := env.Desk.Streams(cmd.Context())
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), summaries)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No streams.")
		return nil
	}
	for _, s := range summaries {
		marker := " "
		if s.Pinned {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s  %s (%d entries)", marker, s.ID, s.Title, s.EntryCount)
		if len(s.Tags) > 0 {
			line += " [" + strings.Join(s.Tags, ", ") + "]"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func newStreamShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <stream-id>",
		Short:         "Show a stream and its entries",
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStreamShow(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runStreamShow(opts *RootOptions, streamID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	stream, entries, err := env.Desk.StreamDetails(cmd.Context(), streamID)
	if err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), struct {
			Stream  journal.Stream  `json:"stream"`
			Entries []journal.Entry `json:"entries"`
		}{stream, entries})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Stream: %s (%s)\n", stream.Title, stream.ID)
	if stream.Description != nil && *stream.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", *stream.Description)
	}
	if len(stream.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(stream.Tags, ", "))
	}
	if stream.Pinned {
		fmt.Fprintln(w, "Pinned: yes")
	}
	fmt.Fprintln(w)

	if len(entries) == 0 {
		fmt.Fprintln(w, "(no entries)")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintln(w, entryHeadline(e))
		if text := e.Content.PlainText(); text != "" {
			fmt.Fprintf(w, "    %s\n", firstLine(text, 80))
		}
	}
	return nil
}

// entryHeadline renders the one-line summary used by stream show, staged,
// and search output.
func entryHeadline(e journal.Entry) string {
	head := fmt.Sprintf("[%d] (%s) %s", e.SequenceID, e.Role, e.ID)
	if e.VersionHead > 0 {
		head += fmt.Sprintf(" v%d", e.VersionHead)
	}
	if e.IsStaged {
		head += " staged"
	}
	return head
}

// streamSetOptions holds flags for the stream set command.
type streamSetOptions struct {
	*RootOptions
	Title       string
	Description string
	Pinned      bool
}

func newStreamSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &streamSetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <stream-id>",
		Short: "Update a stream",
		Long: `Update a stream's title, description, or pinned state.
Only the flags given change; the rest keep their values.

Example:
  inkwell stream set 0192... --title "Harbour Notes" --pinned=true`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStreamSet(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "new title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "new description")
	cmd.Flags().BoolVar(&opts.Pinned, "pinned", false, "pin or unpin the stream")

	return cmd
}

func runStreamSet(opts *streamSetOptions, streamID string, cmd *cobra.Command) error {
	var upd store.StreamUpdate
	flags := cmd.Flags()
	if flags.Changed("title") {
		upd.Title = &opts.Title
	}
	if flags.Changed("description") {
		upd.Description = &opts.Description
	}
	if flags.Changed("pinned") {
		upd.Pinned = &opts.Pinned
	}
	if upd == (store.StreamUpdate{}) {
		return NewExitError(ExitCommandError, ErrCodeInput+": nothing to update (set --title, --description, or --pinned)")
	}

	env, err := openEnv(cmd.Context(), opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Desk.UpdateStream(cmd.Context(), streamID, upd); err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		stream, err := env.Desk.Stream(cmd.Context(), streamID)
		if err != nil {
			return opError(err)
		}
		return printJSON(cmd.OutOrStdout(), stream)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated stream %s\n", streamID)
	return nil
}

func newStreamRmCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <stream-id>",
		Short: "Delete a stream",
		Long: `Delete a stream and everything it owns: entries, their versions and
spotlights, and pending blocks.`,
		Args:          usageArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStreamRm(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runStreamRm(opts *RootOptions, streamID string, cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.Desk.DeleteStream(cmd.Context(), streamID); err != nil {
		return opError(err)
	}

	if opts.Format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": streamID})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted stream %s\n", streamID)
	return nil
}
