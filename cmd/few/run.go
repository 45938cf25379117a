package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/few/internal/cli"
)

var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Run a component interactively",
	Long: `Renders a component's view and invokes the actions typed at the prompt.
The session is persisted in the configured store, so a later run resumes it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !cmd.Flags().Changed("dir") {
			if err := cmd.Flags().Set("dir", args[0]); err != nil {
				return err
			}
		}

		opts := cli.RunOptions{}
		opts.Component, _ = cmd.Flags().GetString("component")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		if raw, _ := cmd.Flags().GetString("props"); raw != "" {
			if err := decodeJSON(strings.NewReader(raw), &opts.Props); err != nil {
				return err
			}
		}
		if opts.Watch && opts.Headless {
			return errWatchHeadless
		}

		h, err := newHost(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		ctx, stop := signalContext(cmd.Context())
		defer stop()
		return cli.Run(ctx, h, opts, os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("component", "c", "", "Component to run (default: the directory's entry point)")
	runCmd.Flags().String("session", "", "Session ID to resume")
	runCmd.Flags().String("props", "", "Props as a JSON object")
	runCmd.Flags().Bool("headless", false, "Run in headless mode (no banner, prompts or styling)")
	runCmd.Flags().BoolP("watch", "w", false, "Reload the component when its file changes")
	runCmd.Flags().Bool("fresh", false, "Discard the stored session first")
}
