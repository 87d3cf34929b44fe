package codec

import (
	"github.com/grenlab/grenlin/pkg/grn"
)

// Defaults applied to fields a document omits.
const (
	DefaultLogic grn.LogicType = grn.LogicAnd
	DefaultAlpha               = 10.0
	DefaultKd                  = 5.0
	DefaultN                   = 2.0
	DefaultDelta               = grn.DefaultDelta
)

// Document is the on-disk shape of a network file (.grn). Two schema
// generations exist: current documents key nodes and edges by generated
// ids; legacy documents key them by species name. The record types below
// carry both field sets so a single decode accepts either.
type Document struct {
	Nodes []NodeRecord `json:"nodes"`
	Edges []EdgeRecord `json:"edges"`
	GRN   ModelRecord  `json:"grn"`
}

// NodeRecord is one persisted node. A legacy record has no NodeID and
// names its species via Name.
type NodeRecord struct {
	NodeID      string   `json:"node_id,omitempty"`
	SpeciesName string   `json:"species_name,omitempty"`
	Name        string   `json:"name,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	LogicType   string   `json:"logic_type,omitempty"`
	Alpha       *float64 `json:"alpha,omitempty"`
}

// EdgeRecord is one persisted edge. A legacy record has no SourceID or
// TargetID and names its endpoints by species via Source and Target.
type EdgeRecord struct {
	SourceID      string   `json:"source_id,omitempty"`
	TargetID      string   `json:"target_id,omitempty"`
	SourceSpecies string   `json:"source_species,omitempty"`
	TargetSpecies string   `json:"target_species,omitempty"`
	Source        string   `json:"source,omitempty"`
	Target        string   `json:"target,omitempty"`
	Type          int      `json:"type"`
	Kd            *float64 `json:"kd,omitempty"`
	N             *float64 `json:"n,omitempty"`
}

// ModelRecord is the persisted logical model.
type ModelRecord struct {
	Species           []SpeciesRecord `json:"species"`
	InputSpeciesNames []string        `json:"input_species_names"`
	Genes             []*grn.Gene     `json:"genes"`
}

// SpeciesRecord is one persisted species entry.
type SpeciesRecord struct {
	Name  string   `json:"name"`
	Delta *float64 `json:"delta,omitempty"`
}
