package lineage

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/metalens/internal/metastore"
)

// Column bands of the laid-out graph.
const (
	ColumnUpstream   = 0
	ColumnFocal      = 1
	ColumnDownstream = 2
)

// NodeKind distinguishes data assets from transformation steps.
type NodeKind string

const (
	KindDataset NodeKind = "dataset"
	KindProcess NodeKind = "process"
)

// Node is one box in the rendered graph. IDs are sequential counters
// scoped to a single build; never compare them across rebuilds of the
// same entity.
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Kind     NodeKind `json:"kind"`
	TypeName string   `json:"type_name,omitempty"`

	// Column is the band (0 upstream, 1 focal, 2 downstream); Row is
	// the slot within the band, assigned top-down in allocation order.
	Column int `json:"column"`
	Row    int `json:"row"`

	// IsFocal is true for exactly one node per graph.
	IsFocal bool `json:"is_focal"`

	// AdditionalCount is how many further assets the process name
	// claimed beyond the labeled one ("and N more").
	AdditionalCount int `json:"additional_count"`
}

// Edge links nodes in adjacent columns only, 0→1 or 1→2.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ProcessDetail is one fetched process with its direction tag and
// decoded name, kept for detail-table display.
type ProcessDetail struct {
	Direction metastore.Direction `json:"direction"`
	metastore.ProcessRecord
	Parsed ParsedProcessName `json:"parsed"`
}

// Metadata summarizes a built graph. Counts are distinct-label counts,
// not raw process counts.
type Metadata struct {
	EntityID        string `json:"entity_id"`
	EntityName      string `json:"entity_name"`
	UpstreamCount   int    `json:"upstream_count"`
	DownstreamCount int    `json:"downstream_count"`
	TotalProcesses  int    `json:"total_processes"`
}

// Graph is the laid-out lineage aggregate handed to renderers.
type Graph struct {
	Nodes        []Node          `json:"nodes"`
	Edges        []Edge          `json:"edges"`
	RawProcesses []ProcessDetail `json:"raw_processes"`
	Metadata     Metadata        `json:"metadata"`
}

// FocalNode returns the focal node, nil if the graph is empty.
func (g *Graph) FocalNode() *Node {
	for i := range g.Nodes {
		if g.Nodes[i].IsFocal {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Refocus moves focal status to the first node whose label matches,
// case-insensitively. No match leaves the graph unchanged and returns
// false.
func (g *Graph) Refocus(label string) bool {
	for i := range g.Nodes {
		if strings.EqualFold(g.Nodes[i].Label, label) {
			for j := range g.Nodes {
				g.Nodes[j].IsFocal = j == i
			}
			return true
		}
	}
	return false
}

// builder accumulates one graph. The node counter is local to one
// Build call so concurrent builds never share state.
type builder struct {
	graph    *Graph
	nextID   int
	byLabel  map[string]string // "column|label" -> node id
	colSizes [3]int
}

func newBuilder() *builder {
	return &builder{
		graph:   &Graph{Nodes: []Node{}, Edges: []Edge{}, RawProcesses: []ProcessDetail{}},
		byLabel: make(map[string]string),
	}
}

// addNode allocates the next node id and row slot in the given column.
func (b *builder) addNode(label string, kind NodeKind, typeName string, column int, focal bool, additional int) string {
	id := fmt.Sprintf("n%d", b.nextID)
	b.nextID++
	b.graph.Nodes = append(b.graph.Nodes, Node{
		ID:              id,
		Label:           label,
		Kind:            kind,
		TypeName:        typeName,
		Column:          column,
		Row:             b.colSizes[column],
		IsFocal:         focal,
		AdditionalCount: additional,
	})
	b.colSizes[column]++
	return id
}

// nodeForLabel returns the node id for label in column, allocating it
// on first sight. Duplicate labels across processes collapse to one
// node.
func (b *builder) nodeForLabel(label string, column int, typeName string, additional int) (id string, created bool) {
	key := fmt.Sprintf("%d|%s", column, label)
	if existing, ok := b.byLabel[key]; ok {
		return existing, false
	}
	id = b.addNode(label, KindDataset, typeName, column, false, additional)
	b.byLabel[key] = id
	return id, true
}

func (b *builder) addEdge(from, to string) {
	b.graph.Edges = append(b.graph.Edges, Edge{From: from, To: to})
}

// Build lays out the lineage graph for a resolved entity.
//
// The focal entity takes column 1 row 0. Each upstream process
// contributes its parsed primary source as a column-0 node; duplicate
// labels collapse, and exactly one edge per distinct label points at
// the focal node. Downstream mirrors into column 2 with edges leaving
// the focal node. Every process lands in RawProcesses regardless of
// label dedupe. Zero processes in both directions is a valid isolated
// asset, not an error.
func Build(focal *metastore.EntityRef, upstream, downstream []metastore.ProcessRecord) *Graph {
	b := newBuilder()

	focalID := b.addNode(focal.Name, KindDataset, focal.TypeName, ColumnFocal, true, 0)

	for _, proc := range upstream {
		parsed := ParseProcessName(proc.Name)
		if parsed.PrimarySource != "" {
			nodeID, created := b.nodeForLabel(parsed.PrimarySource, ColumnUpstream, proc.TypeName, parsed.SourceCount-1)
			if created {
				b.addEdge(nodeID, focalID)
			}
		}
		b.graph.RawProcesses = append(b.graph.RawProcesses, ProcessDetail{
			Direction:     metastore.Upstream,
			ProcessRecord: proc,
			Parsed:        parsed,
		})
	}

	for _, proc := range downstream {
		parsed := ParseProcessName(proc.Name)
		label := parsed.PrimaryTarget
		additional := parsed.TargetCount - 1
		if label == "" {
			// A target-less name still names something downstream of
			// the focal entity; fall back to its source side.
			label = parsed.PrimarySource
			additional = parsed.SourceCount - 1
		}
		if label != "" {
			nodeID, created := b.nodeForLabel(label, ColumnDownstream, proc.TypeName, additional)
			if created {
				b.addEdge(focalID, nodeID)
			}
		}
		b.graph.RawProcesses = append(b.graph.RawProcesses, ProcessDetail{
			Direction:     metastore.Downstream,
			ProcessRecord: proc,
			Parsed:        parsed,
		})
	}

	b.graph.Metadata = Metadata{
		EntityID:        focal.ID,
		EntityName:      focal.Name,
		UpstreamCount:   b.colSizes[ColumnUpstream],
		DownstreamCount: b.colSizes[ColumnDownstream],
		TotalProcesses:  len(upstream) + len(downstream),
	}
	return b.graph
}
