package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/few/internal/presentation/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph <component>",
	Short: "Export a component's data flow as a Mermaid diagram",
	Long:  `Outputs a Mermaid flowchart linking each action to the store paths it reads and writes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newHost(cmd)
		if err != nil {
			return err
		}
		defer h.Close()

		def, err := h.Engine.Definition(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
