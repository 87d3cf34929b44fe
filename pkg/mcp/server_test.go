package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/grenlab/grenlin/pkg/engine"
)

func callReq(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("Expected 1 content item, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

// buildViaTools drives a small network entirely through tool handlers.
func buildViaTools(t *testing.T, s *Server) (sourceID, targetID string) {
	t.Helper()
	ctx := context.Background()

	for _, args := range []map[string]any{
		{"name": "sig", "is_input": true},
		{"name": "y", "delta": 0.1},
	} {
		result, err := s.handleAddSpecies(ctx, callReq("add_species", args))
		if err != nil {
			t.Fatalf("handleAddSpecies failed: %v", err)
		}
		if result.IsError {
			t.Fatalf("add_species returned error: %s", resultText(t, result))
		}
	}

	result, err := s.handleAddNode(ctx, callReq("add_node", map[string]any{"species": "sig", "x": 1.0, "y": 2.0}))
	if err != nil || result.IsError {
		t.Fatalf("add_node sig failed: %v %v", err, result)
	}
	result, err = s.handleAddNode(ctx, callReq("add_node", map[string]any{"species": "y", "logic": "or"}))
	if err != nil || result.IsError {
		t.Fatalf("add_node y failed: %v %v", err, result)
	}

	for _, n := range s.engine.Store().Nodes() {
		switch n.SpeciesName {
		case "sig":
			sourceID = string(n.ID)
		case "y":
			targetID = string(n.ID)
		}
	}
	return sourceID, targetID
}

func TestToolsBuildNetwork(t *testing.T) {
	s := NewServer(engine.New())
	ctx := context.Background()
	sourceID, targetID := buildViaTools(t, s)

	result, err := s.handleAddEdge(ctx, callReq("add_edge", map[string]any{
		"source_id": sourceID,
		"target_id": targetID,
		"type":      "inhibition",
		"kd":        3.0,
	}))
	if err != nil {
		t.Fatalf("handleAddEdge failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("add_edge returned error: %s", resultText(t, result))
	}

	if s.engine.Store().EdgeCount() != 1 {
		t.Errorf("Expected 1 edge, got %d", s.engine.Store().EdgeCount())
	}
	genes := s.engine.Model().GenesByProduct("y")
	if len(genes) != 1 {
		t.Fatalf("Expected 1 gene, got %d", len(genes))
	}
	if genes[0].Regulators[0].Kd != 3 {
		t.Errorf("Expected Kd 3 from tool argument, got %g", genes[0].Regulators[0].Kd)
	}
}

func TestToolErrorsAreToolResults(t *testing.T) {
	s := NewServer(engine.New())
	ctx := context.Background()

	// Node for an undeclared species: a tool error, not a transport error.
	result, err := s.handleAddNode(ctx, callReq("add_node", map[string]any{"species": "ghost"}))
	if err != nil {
		t.Fatalf("Expected nil transport error, got %v", err)
	}
	if !result.IsError {
		t.Error("Expected IsError for unknown species")
	}

	result, err = s.handleDeleteEdge(ctx, callReq("delete_edge", map[string]any{
		"source_id": "a", "target_id": "b",
	}))
	if err != nil {
		t.Fatalf("Expected nil transport error, got %v", err)
	}
	if !result.IsError {
		t.Error("Expected IsError for missing edge")
	}
}

func TestDeleteTools(t *testing.T) {
	s := NewServer(engine.New())
	ctx := context.Background()
	sourceID, targetID := buildViaTools(t, s)

	s.handleAddEdge(ctx, callReq("add_edge", map[string]any{
		"source_id": sourceID, "target_id": targetID,
	}))

	result, err := s.handleDeleteEdge(ctx, callReq("delete_edge", map[string]any{
		"source_id": sourceID, "target_id": targetID,
	}))
	if err != nil || result.IsError {
		t.Fatalf("delete_edge failed: %v %v", err, result)
	}
	if s.engine.Store().EdgeCount() != 0 {
		t.Errorf("Expected 0 edges, got %d", s.engine.Store().EdgeCount())
	}

	result, err = s.handleDeleteNode(ctx, callReq("delete_node", map[string]any{"node_id": sourceID}))
	if err != nil || result.IsError {
		t.Fatalf("delete_node failed: %v %v", err, result)
	}
	if s.engine.Model().HasSpecies("sig") {
		t.Error("Expected species sig removed with its only node")
	}
}

func TestReadNetworkResource(t *testing.T) {
	s := NewServer(engine.New())
	buildViaTools(t, s)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "grenlin://network"

	result, err := s.handleReadNetwork(context.Background(), req)
	if err != nil {
		t.Fatalf("handleReadNetwork failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 resource content, got %d", len(result))
	}
	content, ok := result[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("Expected TextResourceContents, got %T", result[0])
	}
	if content.MIMEType != "application/json" {
		t.Errorf("Expected application/json, got %s", content.MIMEType)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(content.Text), &doc); err != nil {
		t.Fatalf("Failed to parse resource JSON: %v", err)
	}
	nodes, ok := doc["nodes"].([]any)
	if !ok || len(nodes) != 2 {
		t.Errorf("Expected 2 node records in document, got %v", doc["nodes"])
	}
}

func TestDumpResource(t *testing.T) {
	s := NewServer(engine.New())
	buildViaTools(t, s)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "grenlin://dump"

	result, err := s.handleReadDump(context.Background(), req)
	if err != nil {
		t.Fatalf("handleReadDump failed: %v", err)
	}
	content := result[0].(mcp.TextResourceContents)
	if !strings.Contains(content.Text, "sig") {
		t.Errorf("Expected dump to mention sig, got:\n%s", content.Text)
	}
}

func TestSimulateTool(t *testing.T) {
	s := NewServer(engine.New())
	ctx := context.Background()
	sourceID, targetID := buildViaTools(t, s)
	s.handleAddEdge(ctx, callReq("add_edge", map[string]any{
		"source_id": sourceID, "target_id": targetID,
	}))

	result, err := s.handleSimulate(ctx, callReq("simulate", map[string]any{
		"duration": 200.0, "level": 100.0,
	}))
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("simulate returned error: %s", resultText(t, result))
	}

	var state map[string]float64
	if err := json.Unmarshal([]byte(resultText(t, result)), &state); err != nil {
		t.Fatalf("Failed to parse final state: %v", err)
	}
	if state["sig"] != 100 {
		t.Errorf("Expected input held at 100, got %g", state["sig"])
	}
	if state["y"] < 90 {
		t.Errorf("Expected y activated near steady state, got %g", state["y"])
	}
}

func TestSaveAndLoadTools(t *testing.T) {
	s := NewServer(engine.New())
	ctx := context.Background()
	sourceID, targetID := buildViaTools(t, s)
	s.handleAddEdge(ctx, callReq("add_edge", map[string]any{
		"source_id": sourceID, "target_id": targetID,
	}))

	path := filepath.Join(t.TempDir(), "net.grn")
	result, err := s.handleSaveNetwork(ctx, callReq("save_network", map[string]any{"path": path}))
	if err != nil || result.IsError {
		t.Fatalf("save_network failed: %v %v", err, result)
	}

	// Load into a fresh server.
	s2 := NewServer(engine.New())
	result, err = s2.handleLoadNetwork(ctx, callReq("load_network", map[string]any{"path": path}))
	if err != nil {
		t.Fatalf("handleLoadNetwork failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("load_network returned error: %s", resultText(t, result))
	}
	if s2.engine.Store().NodeCount() != 2 || s2.engine.Store().EdgeCount() != 1 {
		t.Errorf("Expected 2 nodes and 1 edge after load, got %d and %d",
			s2.engine.Store().NodeCount(), s2.engine.Store().EdgeCount())
	}

	// A failed load leaves the current network untouched.
	before := s2.engine.Store().NodeCount()
	result, err = s2.handleLoadNetwork(ctx, callReq("load_network", map[string]any{"path": "/does/not/exist.grn"}))
	if err != nil {
		t.Fatalf("handleLoadNetwork failed: %v", err)
	}
	if !result.IsError {
		t.Error("Expected IsError for missing file")
	}
	if s2.engine.Store().NodeCount() != before {
		t.Error("Expected state untouched after failed load")
	}
}
