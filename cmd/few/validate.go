package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check that every component definition builds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !cmd.Flags().Changed("dir") {
			if err := cmd.Flags().Set("dir", args[0]); err != nil {
				return err
			}
		}
		h, err := newHost(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		names, err := h.Engine.Components(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		var errs []error
		for _, name := range names {
			if _, err := h.Engine.Definition(cmd.Context(), name); err != nil {
				fmt.Fprintf(out, "✗ %s: %v\n", name, err)
				errs = append(errs, err)
				continue
			}
			fmt.Fprintf(out, "✓ %s\n", name)
		}
		if len(errs) > 0 {
			return fmt.Errorf("%d of %d components are invalid: %w", len(errs), len(names), errors.Join(errs...))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
