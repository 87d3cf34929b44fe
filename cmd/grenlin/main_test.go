package main

import (
	"encoding/json"
	"testing"

	"github.com/grenlab/grenlin/pkg/codec"
	"github.com/grenlab/grenlin/pkg/engine"
	"github.com/grenlab/grenlin/pkg/grn"
)

func TestDecodeSnapshotRoundTrip(t *testing.T) {
	e := engine.New()
	e.AddSpecies("sig", true, 0)
	e.AddSpecies("y", false, 0.1)
	nsig, _ := e.AddNode("sig", grn.LogicAnd, 10, 0, 0, "")
	ny, _ := e.AddNode("y", grn.LogicAnd, 10, 5, 5, "")
	if _, err := e.AddEdge(nsig.ID, ny.ID, grn.Activation, 5, 2); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	// The same bytes autosave writes into the workspace database.
	data, err := json.Marshal(codec.Serialize(e.Store(), e.Model()))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	st, mdl, err := decodeSnapshot(data)
	if err != nil {
		t.Fatalf("decodeSnapshot failed: %v", err)
	}
	if st.NodeCount() != 2 || st.EdgeCount() != 1 {
		t.Errorf("Expected 2 nodes and 1 edge restored, got %d and %d",
			st.NodeCount(), st.EdgeCount())
	}
	if !mdl.IsInput("sig") {
		t.Error("Expected sig restored as an input species")
	}
	if err := mdl.Validate(); err != nil {
		t.Errorf("Expected valid restored model, got %v", err)
	}
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	if _, _, err := decodeSnapshot([]byte("{not json")); err == nil {
		t.Error("Expected error for malformed snapshot")
	}
}

func TestSnapshotName(t *testing.T) {
	m := &model{}
	if got := m.snapshotName(); got != "untitled" {
		t.Errorf("Expected untitled for unsaved network, got %q", got)
	}
	m.currentFile = "/nets/repressilator.grn"
	if got := m.snapshotName(); got != "repressilator.grn" {
		t.Errorf("Expected repressilator.grn, got %q", got)
	}
}
