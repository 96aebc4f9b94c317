package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/metalens/internal/lineage"
)

// LineageOptions holds options for the lineage command.
type LineageOptions struct {
	OutputFormat string
	Refresh      bool
	Focus        string
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	opts := &LineageOptions{}

	cmd := &cobra.Command{
		Use:   "lineage <entity>",
		Short: "Build the lineage graph for an entity",
		Long: `Resolve an entity by name or GUID across the configured entity
collections, fetch the processes that produced and consumed it, and lay
out the upstream → focal → downstream graph.`,
		Example: `  # Lineage for a table by name
  metalens lineage FACT_ORDERS

  # Lineage by GUID, bypassing the cache
  metalens lineage 7f3c02aa-91c1-4707-a8f2-87e34c8571fd --refresh

  # Machine-readable output
  metalens lineage FACT_ORDERS --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineage(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "", "Output format (text|json)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "Bypass the graph cache")
	cmd.Flags().StringVar(&opts.Focus, "focus", "", "Highlight the node with this label instead of the entity")

	return cmd
}

func runLineage(cmd *cobra.Command, entity string, opts *LineageOptions) error {
	cfg := getConfig()
	format := opts.OutputFormat
	if format == "" {
		format = cfg.OutputFormat
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	graph, err := rt.service.Lineage(cmd.Context(), entity, lineage.Options{Refresh: opts.Refresh})
	noLineage := errors.Is(err, lineage.ErrNoLineage)
	if err != nil && !noLineage {
		if errors.Is(err, lineage.ErrEntityNotFound) {
			return fmt.Errorf("no such entity: %s", entity)
		}
		return err
	}

	// Cached graphs are shared across invocations within one process.
	if opts.Focus != "" {
		g := *graph
		g.Nodes = append([]lineage.Node(nil), graph.Nodes...)
		g.Refocus(opts.Focus)
		graph = &g
	}

	if format == "json" {
		return lineageJSON(cmd.OutOrStdout(), graph, noLineage)
	}
	return lineageText(cmd.OutOrStdout(), graph, noLineage)
}

func lineageJSON(w io.Writer, graph *lineage.Graph, noLineage bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"graph":      graph,
		"no_lineage": noLineage,
	})
}

func lineageText(w io.Writer, graph *lineage.Graph, noLineage bool) error {
	meta := graph.Metadata
	fmt.Fprintf(w, "Lineage for: %s (%s)\n", meta.EntityName, meta.EntityID)
	fmt.Fprintf(w, "Upstream: %d   Downstream: %d   Processes: %d\n\n",
		meta.UpstreamCount, meta.DownstreamCount, meta.TotalProcesses)

	if noLineage {
		fmt.Fprintln(w, "No recorded lineage for this entity.")
		return nil
	}

	nodes := table.NewWriter()
	nodes.SetOutputMirror(w)
	nodes.AppendHeader(table.Row{"Band", "Label", "Kind", "Type", "More"})
	for _, n := range graph.Nodes {
		band := bandName(n.Column)
		label := n.Label
		if n.IsFocal {
			label += " *"
		}
		more := ""
		if n.AdditionalCount > 0 {
			more = fmt.Sprintf("+%d", n.AdditionalCount)
		}
		nodes.AppendRow(table.Row{band, label, n.Kind, n.TypeName, more})
	}
	nodes.Render()

	if len(graph.RawProcesses) > 0 {
		fmt.Fprintln(w)
		procs := table.NewWriter()
		procs.SetOutputMirror(w)
		procs.AppendHeader(table.Row{"Direction", "Process", "Source", "Target", "Popularity"})
		for _, p := range graph.RawProcesses {
			pop := ""
			if p.Popularity != nil {
				pop = fmt.Sprintf("%.2f", *p.Popularity)
			}
			procs.AppendRow(table.Row{
				p.Direction,
				truncate(p.Name, 48),
				p.Parsed.PrimarySource,
				p.Parsed.PrimaryTarget,
				pop,
			})
		}
		procs.Render()
	}
	return nil
}

func bandName(column int) string {
	switch column {
	case lineage.ColumnUpstream:
		return "upstream"
	case lineage.ColumnFocal:
		return "focal"
	case lineage.ColumnDownstream:
		return "downstream"
	default:
		return fmt.Sprint(column)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-1]) + "…"
}
