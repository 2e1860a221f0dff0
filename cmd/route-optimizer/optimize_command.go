package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/upb/route-optimizer/models"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

func newOptimizeCommand(ctx *commandContext) *cobra.Command {
	var inputPath string
	var format string

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run one optimization from a request file and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatJSON && format != formatTable {
				return fmt.Errorf("unsupported format %q (want %s or %s)", format, formatJSON, formatTable)
			}

			req, err := readRequest(cmd.InOrStdin(), inputPath)
			if err != nil {
				return err
			}

			deps, err := ctx.dependencies(cmd.Context())
			if err != nil {
				return err
			}

			result, err := deps.Optimizer.Optimize(cmd.Context(), req)
			if err != nil {
				return err
			}

			if format == formatJSON {
				return writeJSON(cmd, result)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderResult(result))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to a JSON request with deliveries and fleet (- for stdin)")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format: json or table")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func readRequest(stdin io.Reader, path string) (*models.OptimizationRequest, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}

	var req models.OptimizationRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request %s: %w", path, err)
	}
	return &req, nil
}

func renderResult(result *models.OptimizationResult) string {
	var b strings.Builder

	rows := make([][]string, 0, len(result.OptimizedRoutes))
	for _, route := range result.OptimizedRoutes {
		ids := make([]string, 0, len(route.Stops))
		for _, stop := range route.Stops {
			ids = append(ids, stop.ID)
		}
		rows = append(rows, []string{
			route.RouteID,
			route.VehicleID,
			strings.Join(ids, ", "),
			formatWeight(route.TotalWeight),
		})
	}
	b.WriteString(renderTable(
		[]string{"Route", "Vehicle", "Deliveries", "Total Weight"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	))
	b.WriteString("\n")

	if len(result.UnassignedDeliveries) > 0 {
		unassigned := make([][]string, 0, len(result.UnassignedDeliveries))
		for _, d := range result.UnassignedDeliveries {
			unassigned = append(unassigned, []string{d.ID, formatWeight(d.Weight)})
		}
		b.WriteString("Unassigned deliveries\n")
		b.WriteString(renderTable([]string{"Delivery", "Weight"}, unassigned, []columnAlignment{alignLeft, alignRight}))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Method: %s\n", result.OptimizationMethod)
	fmt.Fprintf(&b, "LLM used: %t\n", result.LLMUsed)
	if result.FallbackReason != "" {
		fmt.Fprintf(&b, "Fallback reason: %s\n", result.FallbackReason)
	}
	fmt.Fprintf(&b, "%s\n", result.Message)
	return b.String()
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
