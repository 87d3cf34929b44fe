package codec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/grenlab/grenlin/pkg/engine"
	"github.com/grenlab/grenlin/pkg/graph"
	"github.com/grenlab/grenlin/pkg/grn"
)

// buildNetwork assembles a small network through the engine so both
// representations are populated the way interactive editing would.
func buildNetwork(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New()
	e.AddSpecies("sig", true, 0)
	e.AddSpecies("y", false, 0.2)
	nsig, err := e.AddNode("sig", grn.LogicAnd, 10, 1, 2, "sensor")
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	ny, err := e.AddNode("y", grn.LogicOr, 12, 8, 4, "")
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	if _, err := e.AddEdge(nsig.ID, ny.ID, grn.Activation, 5, 2); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	return e
}

func TestRoundTrip(t *testing.T) {
	e := buildNetwork(t)

	doc := Serialize(e.Store(), e.Model())
	store, model, err := Deserialize(doc)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if store.NodeCount() != 2 {
		t.Errorf("Expected 2 nodes, got %d", store.NodeCount())
	}
	if store.EdgeCount() != 1 {
		t.Errorf("Expected 1 edge, got %d", store.EdgeCount())
	}
	if !model.IsInput("sig") {
		t.Error("Expected sig to stay an input species")
	}
	if len(model.Genes) != 1 {
		t.Fatalf("Expected 1 gene, got %d", len(model.Genes))
	}

	// Node ids survive, so the edge still points at the same nodes.
	for _, n := range e.Store().Nodes() {
		got, ok := store.Node(n.ID)
		if !ok {
			t.Fatalf("Expected node %s to survive round trip", n.ID)
		}
		if got.DisplayName != n.DisplayName || got.X != n.X || got.Y != n.Y {
			t.Errorf("Expected node %s unchanged, got %+v", n.ID, got)
		}
	}

	if err := model.Validate(); err != nil {
		t.Errorf("Expected valid model after round trip, got %v", err)
	}
}

func TestRoundTripPreservesMultipleNodesPerSpecies(t *testing.T) {
	e := engine.New()
	e.AddSpecies("x", false, 0.1)
	e.AddNode("x", grn.LogicAnd, 10, 0, 0, "x-a")
	e.AddNode("x", grn.LogicAnd, 10, 5, 5, "x-b")

	store, _, err := Deserialize(Serialize(e.Store(), e.Model()))
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if store.NodeCount() != 2 {
		t.Errorf("Expected both nodes of species x to survive, got %d", store.NodeCount())
	}
}

// A legacy document keys nodes and edges by species name and omits the
// fields newer schemas added. Defaults fill the gaps and edges resolve
// through species names.
func TestLoadLegacyDocument(t *testing.T) {
	legacy := `{
	  "nodes": [
	    {"name": "sig", "x": 1, "y": 2},
	    {"name": "y", "x": 8, "y": 4}
	  ],
	  "edges": [
	    {"source": "sig", "target": "y", "type": -1}
	  ],
	  "grn": {
	    "species": [
	      {"name": "sig"},
	      {"name": "y", "delta": 0.2}
	    ],
	    "input_species_names": ["sig"],
	    "genes": [
	      {
	        "alpha": 10,
	        "regulators": [{"name": "sig", "type": -1, "Kd": 5, "n": 2}],
	        "products": [{"name": "y"}],
	        "logic_type": "and"
	      }
	    ]
	  }
	}`

	var doc Document
	if err := json.Unmarshal([]byte(legacy), &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	store, model, err := Deserialize(&doc)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if store.NodeCount() != 2 {
		t.Fatalf("Expected 2 nodes, got %d", store.NodeCount())
	}
	// Legacy nodes get generated ids and default display/logic/alpha.
	for _, n := range store.Nodes() {
		if n.ID == "" {
			t.Error("Expected generated node id for legacy node")
		}
		if n.DisplayName != n.SpeciesName {
			t.Errorf("Expected display name defaulted to species, got %q", n.DisplayName)
		}
		if n.LogicType != DefaultLogic {
			t.Errorf("Expected default logic, got %q", n.LogicType)
		}
		if n.Alpha != DefaultAlpha {
			t.Errorf("Expected default alpha %g, got %g", float64(DefaultAlpha), n.Alpha)
		}
	}

	if store.EdgeCount() != 1 {
		t.Fatalf("Expected 1 edge, got %d", store.EdgeCount())
	}
	edge := store.Edges()[0]
	if edge.Type != grn.Inhibition {
		t.Errorf("Expected inhibition edge, got type %d", edge.Type)
	}
	if edge.Kd != DefaultKd || edge.N != DefaultN {
		t.Errorf("Expected default kinetics Kd=%g n=%g, got Kd=%g n=%g",
			float64(DefaultKd), float64(DefaultN), edge.Kd, edge.N)
	}
	source, _ := store.Node(edge.SourceID)
	target, _ := store.Node(edge.TargetID)
	if source.SpeciesName != "sig" || target.SpeciesName != "y" {
		t.Errorf("Expected edge sig -> y, got %s -> %s", source.SpeciesName, target.SpeciesName)
	}

	if !model.IsInput("sig") {
		t.Error("Expected sig to be an input species")
	}
	if err := model.Validate(); err != nil {
		t.Errorf("Expected valid model, got %v", err)
	}
}

func TestDeserializeDropsDuplicateEdges(t *testing.T) {
	doc := &Document{
		Nodes: []NodeRecord{
			{Name: "a", X: 0, Y: 0},
			{Name: "b", X: 1, Y: 1},
		},
		Edges: []EdgeRecord{
			{Source: "a", Target: "b", Type: 1},
			{Source: "a", Target: "b", Type: -1},
		},
		GRN: ModelRecord{
			Species:           []SpeciesRecord{{Name: "a"}, {Name: "b"}},
			InputSpeciesNames: []string{"a", "b"},
		},
	}
	store, _, err := Deserialize(doc)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if store.EdgeCount() != 1 {
		t.Fatalf("Expected duplicate pair collapsed to 1 edge, got %d", store.EdgeCount())
	}
	// The first record wins.
	if store.Edges()[0].Type != grn.Activation {
		t.Errorf("Expected first edge kept, got type %d", store.Edges()[0].Type)
	}
}

func TestDeserializeRejectsSelfLoop(t *testing.T) {
	doc := &Document{
		Nodes: []NodeRecord{{Name: "a"}},
		Edges: []EdgeRecord{{Source: "a", Target: "a", Type: 1}},
		GRN: ModelRecord{
			Species:           []SpeciesRecord{{Name: "a"}},
			InputSpeciesNames: []string{"a"},
		},
	}
	if _, _, err := Deserialize(doc); err == nil {
		t.Fatal("Expected error for self-loop edge")
	}
}

func TestDeserializeRejectsUnknownReferences(t *testing.T) {
	// Node referencing an undeclared species.
	doc := &Document{
		Nodes: []NodeRecord{{Name: "ghost"}},
		GRN:   ModelRecord{},
	}
	if _, _, err := Deserialize(doc); err == nil {
		t.Error("Expected error for node with unknown species")
	}

	// Edge referencing a species with no node.
	doc = &Document{
		Nodes: []NodeRecord{{Name: "a"}},
		Edges: []EdgeRecord{{Source: "a", Target: "b", Type: 1}},
		GRN: ModelRecord{
			Species:           []SpeciesRecord{{Name: "a"}, {Name: "b"}},
			InputSpeciesNames: []string{"a", "b"},
		},
	}
	if _, _, err := Deserialize(doc); err == nil {
		t.Error("Expected error for edge endpoint with no node")
	}

	// Gene referencing an undeclared species fails model validation.
	doc = &Document{
		Nodes: []NodeRecord{{Name: "a"}},
		GRN: ModelRecord{
			Species:           []SpeciesRecord{{Name: "a"}},
			InputSpeciesNames: []string{"a"},
			Genes: []*grn.Gene{{
				Alpha:      10,
				Regulators: []grn.Regulator{{Name: "ghost", Type: 1, Kd: 5, N: 2}},
				Products:   []grn.Product{{Name: "a"}},
				Logic:      grn.LogicAnd,
			}},
		},
	}
	if _, _, err := Deserialize(doc); err == nil {
		t.Error("Expected error for gene with unknown regulator")
	}
}

func TestSaveAndLoad(t *testing.T) {
	e := buildNetwork(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "test.grn")
	if err := Save(path, e.Store(), e.Model()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the saved file in dir, got %d entries", len(entries))
	}

	store, model, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if store.NodeCount() != 2 || store.EdgeCount() != 1 {
		t.Errorf("Expected 2 nodes and 1 edge, got %d and %d",
			store.NodeCount(), store.EdgeCount())
	}
	if len(model.Genes) != 1 {
		t.Errorf("Expected 1 gene, got %d", len(model.Genes))
	}
}

func TestLoadFailuresLeaveNothingBehind(t *testing.T) {
	dir := t.TempDir()

	if _, _, err := Load(filepath.Join(dir, "missing.grn")); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.grn")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, _, err := Load(bad); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestSerializeSkipsDanglingEdges(t *testing.T) {
	e := buildNetwork(t)

	// Remove a node directly in the store, bypassing the engine cascade,
	// to simulate a stale in-memory edge.
	var victim string
	for _, n := range e.Store().Nodes() {
		if n.SpeciesName == "y" {
			victim = string(n.ID)
		}
	}
	e.Store().RemoveNode(graph.NodeID(victim))

	doc := Serialize(e.Store(), e.Model())
	if len(doc.Edges) != 0 {
		t.Errorf("Expected dangling edge filtered out, got %d edge records", len(doc.Edges))
	}
}
