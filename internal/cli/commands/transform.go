package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/metalens/internal/executor"
	"github.com/leapstack-labs/metalens/internal/lineage"
)

// TransformOptions holds options for the transform command.
type TransformOptions struct {
	OutputFormat string
	Focus        string
	DetectOnly   bool
}

// NewTransformCommand creates the transform command.
func NewTransformCommand() *cobra.Command {
	opts := &TransformOptions{}

	cmd := &cobra.Command{
		Use:   "transform [result.json]",
		Short: "Promote a lineage-shaped query result to a graph",
		Long: `Read a tabular query result as JSON ({"columns": [...], "rows": [...]})
and build a lineage graph from it without resolving an entity. Each row
is treated as one process-like record; a synthetic node aggregates them
in the focal band.

Reads from stdin when no file is given.`,
		Example: `  metalens transform result.json
  metalens query-export | metalens transform --focus FACT_ORDERS`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.Focus, "focus", "", "Label to promote to focal node")
	cmd.Flags().BoolVar(&opts.DetectOnly, "detect", false, "Only report whether the result looks like lineage data")
	return cmd
}

func runTransform(cmd *cobra.Command, args []string, opts *TransformOptions) error {
	var reader io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening result file: %w", err)
		}
		defer f.Close()
		reader = f
	}

	var result executor.Result
	if err := json.NewDecoder(reader).Decode(&result); err != nil {
		return fmt.Errorf("decoding result JSON: %w", err)
	}

	if opts.DetectOnly {
		if lineage.DetectLineageResult(result.Columns) {
			fmt.Fprintln(cmd.OutOrStdout(), "lineage-shaped: yes")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "lineage-shaped: no")
		return nil
	}

	graph, err := lineage.TransformResult(&result, opts.Focus)
	if err != nil {
		return err
	}

	format := opts.OutputFormat
	if format == "" {
		format = getConfig().OutputFormat
	}
	if format == "json" {
		return lineageJSON(cmd.OutOrStdout(), graph, false)
	}
	return lineageText(cmd.OutOrStdout(), graph, false)
}
