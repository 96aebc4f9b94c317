package lineage

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/metalens/internal/executor"
	"github.com/leapstack-labs/metalens/internal/metastore"
)

// Column-name tokens used to recognize lineage-shaped results. Kept as
// explicit lists so detection is auditable.
var (
	nameTokens   = []string{"name", "process"}
	inputTokens  = []string{"input", "source"}
	outputTokens = []string{"output", "target"}
)

// DetectLineageResult reports whether a tabular result looks like
// lineage data: a name-like column plus at least one of inputs-like or
// outputs-like, matched by case-insensitive substring.
func DetectLineageResult(columns []string) bool {
	var hasName, hasInputs, hasOutputs bool
	for _, col := range columns {
		lower := strings.ToLower(col)
		if matchesAny(lower, nameTokens) {
			hasName = true
		}
		if matchesAny(lower, inputTokens) {
			hasInputs = true
		}
		if matchesAny(lower, outputTokens) {
			hasOutputs = true
		}
	}
	return hasName && (hasInputs || hasOutputs)
}

func matchesAny(lower string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// rowRecord is the weakly-typed shape one result row decodes into.
// Column matching is by mapstructure's case-insensitive field names.
type rowRecord struct {
	GUID            string  `mapstructure:"guid"`
	Name            string  `mapstructure:"name"`
	ProcessName     string  `mapstructure:"process_name"`
	TypeName        string  `mapstructure:"typename"`
	Inputs          any     `mapstructure:"inputs"`
	Outputs         any     `mapstructure:"outputs"`
	PopularityScore float64 `mapstructure:"popularityscore"`
}

// TransformResult promotes a lineage-shaped query result to a graph
// without resolving an entity. Every row is treated as one
// process-like record; parsed sources land in column 0 and targets in
// column 2, deduplicated by label exactly like a resolved build.
// Column 1 holds one synthetic "processes" node aggregating all rows,
// focal by default. If focusLabel names an existing node label, that
// node becomes focal instead and the synthetic node is demoted.
func TransformResult(result *executor.Result, focusLabel string) (*Graph, error) {
	if result == nil || len(result.Columns) == 0 {
		return nil, fmt.Errorf("empty result")
	}
	if !DetectLineageResult(result.Columns) {
		return nil, fmt.Errorf("result does not look like lineage data (columns: %s)",
			strings.Join(result.Columns, ", "))
	}

	b := newBuilder()
	syntheticID := b.addNode(fmt.Sprintf("%d processes", result.RowCount()), KindProcess, "Process", ColumnFocal, true, 0)

	for _, row := range result.Rows {
		rec, err := decodeRow(result.Columns, row)
		if err != nil {
			// One undecodable row shouldn't sink the whole transform.
			continue
		}

		name := rec.Name
		if name == "" {
			name = rec.ProcessName
		}
		parsed := ParseProcessName(name)

		if parsed.PrimarySource != "" {
			nodeID, created := b.nodeForLabel(parsed.PrimarySource, ColumnUpstream, "", parsed.SourceCount-1)
			if created {
				b.addEdge(nodeID, syntheticID)
			}
		}
		if parsed.PrimaryTarget != "" {
			nodeID, created := b.nodeForLabel(parsed.PrimaryTarget, ColumnDownstream, "", parsed.TargetCount-1)
			if created {
				b.addEdge(syntheticID, nodeID)
			}
		}

		detail := ProcessDetail{
			Direction: metastore.Downstream,
			ProcessRecord: metastore.ProcessRecord{
				ID:       rec.GUID,
				Name:     name,
				TypeName: rec.TypeName,
				Inputs:   metastore.DecodeIDList(rec.Inputs),
				Outputs:  metastore.DecodeIDList(rec.Outputs),
			},
			Parsed: parsed,
		}
		if rec.PopularityScore != 0 {
			score := rec.PopularityScore
			detail.Popularity = &score
		}
		b.graph.RawProcesses = append(b.graph.RawProcesses, detail)
	}

	if focusLabel != "" {
		promoteFocus(b.graph, focusLabel, syntheticID)
	}

	focal := b.graph.FocalNode()
	b.graph.Metadata = Metadata{
		EntityID:        focal.ID,
		EntityName:      focal.Label,
		UpstreamCount:   b.colSizes[ColumnUpstream],
		DownstreamCount: b.colSizes[ColumnDownstream],
		TotalProcesses:  result.RowCount(),
	}
	return b.graph, nil
}

// decodeRow maps one row onto rowRecord by column name.
func decodeRow(columns []string, row []any) (*rowRecord, error) {
	m := make(map[string]any, len(columns))
	for i, col := range columns {
		if i < len(row) {
			m[strings.ToLower(col)] = row[i]
		}
	}
	var rec rowRecord
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, err
	}
	return &rec, nil
}

// promoteFocus moves focal status from the synthetic node to the node
// whose label matches focusLabel (case-insensitive), if any.
func promoteFocus(g *Graph, focusLabel, syntheticID string) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == syntheticID {
			continue
		}
		if strings.EqualFold(g.Nodes[i].Label, focusLabel) {
			for j := range g.Nodes {
				g.Nodes[j].IsFocal = g.Nodes[j].ID == g.Nodes[i].ID
			}
			return
		}
	}
}
