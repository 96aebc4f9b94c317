// Package metastore resolves entities and fetches process records from
// the MDLH entity tables.
//
// The warehouse stores one table per entity kind (TABLE_ENTITY,
// COLUMN_ENTITY, ...) plus PROCESS_ENTITY rows whose INPUTS/OUTPUTS
// arrays hold the GUIDs of consumed and produced entities. Names are
// not unique across collections; GUIDs are.
package metastore

import "fmt"

// EntityRef is a canonical entity record resolved from one collection.
type EntityRef struct {
	// ID is the globally unique GUID. It is the entity's identity;
	// Name is display-only and may collide across collections.
	ID            string `json:"id"`
	Name          string `json:"name"`
	QualifiedName string `json:"qualified_name,omitempty"`
	TypeName      string `json:"type_name"`

	// Collection is the entity table this record came from.
	Collection string `json:"collection"`
}

// Direction selects which side of a process links to an entity.
type Direction string

const (
	// Upstream selects processes that produced the entity (the
	// entity appears in their OUTPUTS).
	Upstream Direction = "upstream"

	// Downstream selects processes that consumed the entity (the
	// entity appears in their INPUTS).
	Downstream Direction = "downstream"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == Upstream || d == Downstream
}

// ProcessRecord is one recorded transformation step.
type ProcessRecord struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	TypeName string   `json:"type_name"`
	Inputs   []string `json:"inputs"`
	Outputs  []string `json:"outputs"`

	// Popularity is a usage score; nil means the warehouse recorded
	// none, and sorts after every non-nil score.
	Popularity *float64 `json:"popularity,omitempty"`
}

func (p ProcessRecord) String() string {
	return fmt.Sprintf("process %s (%s)", p.ID, p.Name)
}
