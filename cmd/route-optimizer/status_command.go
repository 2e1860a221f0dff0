package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the configured LLM backend and whether it is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := ctx.dependencies(cmd.Context())
			if err != nil {
				return err
			}

			status := deps.Optimizer.Status(cmd.Context())
			switch resolveFormat(cmd, format) {
			case formatJSON:
				return writeJSON(cmd, status)
			case formatTable:
				rows := [][]string{
					{"Provider", string(status.Provider)},
					{"Backend", status.Backend},
					{"Model", status.Model},
					{"Enabled", fmt.Sprintf("%t", status.Enabled)},
					{"Configured", fmt.Sprintf("%t", status.Configured)},
					{"Reachable", string(status.Reachable)},
				}
				if status.Error != "" {
					rows = append(rows, []string{"Error", status.Error})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			default:
				return fmt.Errorf("unsupported format %q (want %s or %s)", format, formatJSON, formatTable)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: json or table (default: table on a terminal, json otherwise)")
	return cmd
}
