package graph

import (
	"github.com/grenlab/grenlin/pkg/grn"
)

// NodeID is the opaque identity of a visual node. It is generated, never
// derived from the species name: multiple nodes may reference the same
// species.
type NodeID string

// EdgeID is the opaque identity of a visual edge.
type EdgeID string

// Node is a positioned visual instance referencing a species. Alpha and
// LogicType are the per-node simulation parameters applied to any gene
// keyed on the node's species.
type Node struct {
	ID          NodeID        `json:"node_id"`
	SpeciesName string        `json:"species_name"`
	DisplayName string        `json:"display_name"`
	X           float64       `json:"x"`
	Y           float64       `json:"y"`
	LogicType   grn.LogicType `json:"logic_type"`
	Alpha       float64       `json:"alpha"`
}

// Edge is a directed regulatory connection between two nodes.
type Edge struct {
	ID       EdgeID             `json:"-"`
	SourceID NodeID             `json:"source_id"`
	TargetID NodeID             `json:"target_id"`
	Type     grn.RegulationType `json:"type"`
	Kd       float64            `json:"kd"`
	N        float64            `json:"n"`
}
