package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/metalens/internal/sqlscan"
)

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "extract [sql]",
		Short: "Scan SQL text for referenced entity names",
		Long: `Scan SQL for candidate entity names: identifiers after FROM/JOIN and
literals in "NAME" = '...' predicates. Reads from stdin when no
argument is given.

This is a heuristic scan, not a parser; CTE names will show up as
candidates.`,
		Example: `  metalens extract "SELECT * FROM sales.orders o JOIN sales.customers c ON o.id = c.id"
  cat query.sql | metalens extract`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sqlText string
			if len(args) == 1 {
				sqlText = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				sqlText = string(data)
			}

			entities := sqlscan.Extract(sqlText)
			if outputFormat == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string][]string{"entities": entities})
			}
			for _, e := range entities {
				fmt.Fprintln(cmd.OutOrStdout(), e)
			}
			if len(entities) == 0 {
				fmt.Fprintln(os.Stderr, "no entity candidates found")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text|json)")
	return cmd
}
