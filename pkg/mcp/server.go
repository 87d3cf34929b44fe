package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/grenlab/grenlin/pkg/codec"
	"github.com/grenlab/grenlin/pkg/engine"
	"github.com/grenlab/grenlin/pkg/graph"
	"github.com/grenlab/grenlin/pkg/grn"
	"github.com/grenlab/grenlin/pkg/simulation"
)

// Server adapts the network editor to the Model Context Protocol, giving
// agents programmatic access to the same mutation operations the
// interactive editor drives.
type Server struct {
	mcpServer *server.MCPServer
	engine    *engine.Engine
}

// NewServer creates a new MCP server instance over an engine.
func NewServer(e *engine.Engine) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"grenlin",
			"1.0.0",
		),
		engine: e,
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	// grenlin://network
	s.mcpServer.AddResource(mcp.NewResource(
		"grenlin://network",
		"Network Document",
		mcp.WithResourceDescription("The full network as a serialized document: nodes, edges, and the regulatory model"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadNetwork)

	// grenlin://dump
	s.mcpServer.AddResource(mcp.NewResource(
		"grenlin://dump",
		"Model State Dump",
		mcp.WithResourceDescription("Human-readable dump of species, input species, and genes"),
		mcp.WithMIMEType("text/plain"),
	), s.handleReadDump)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"add_species",
		mcp.WithDescription("Declare a species in the regulatory model. Input species are externally driven and never degrade."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Unique species name")),
		mcp.WithBoolean("is_input", mcp.Description("Whether the species is an external input (default false)")),
		mcp.WithNumber("delta", mcp.Description("Degradation rate for regular species (default 0.1)")),
	), s.handleAddSpecies)

	s.mcpServer.AddTool(mcp.NewTool(
		"add_node",
		mcp.WithDescription("Place a node for an already-declared species. Returns the node id."),
		mcp.WithString("species", mcp.Required(), mcp.Description("Species the node references")),
		mcp.WithString("logic", mcp.Description("Regulator combination logic: 'and' or 'or' (default 'and')")),
		mcp.WithNumber("alpha", mcp.Description("Maximum production rate (default 10)")),
		mcp.WithNumber("x", mcp.Description("Canvas x position")),
		mcp.WithNumber("y", mcp.Description("Canvas y position")),
		mcp.WithString("display_name", mcp.Description("Cosmetic label (defaults to the species name)")),
	), s.handleAddNode)

	s.mcpServer.AddTool(mcp.NewTool(
		"add_edge",
		mcp.WithDescription("Connect two nodes with a regulatory edge. Returns the edge id."),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("target_id", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithString("type", mcp.Description("'activation' or 'inhibition' (default 'activation')")),
		mcp.WithNumber("kd", mcp.Description("Binding constant (default 5)")),
		mcp.WithNumber("n", mcp.Description("Hill coefficient (default 2)")),
	), s.handleAddEdge)

	s.mcpServer.AddTool(mcp.NewTool(
		"delete_node",
		mcp.WithDescription("Delete a node, its incident edges, and the regulators they correspond to."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id to delete")),
	), s.handleDeleteNode)

	s.mcpServer.AddTool(mcp.NewTool(
		"delete_edge",
		mcp.WithDescription("Delete the edge between two nodes."),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("target_id", mcp.Required(), mcp.Description("Target node id")),
	), s.handleDeleteEdge)

	s.mcpServer.AddTool(mcp.NewTool(
		"rename_node",
		mcp.WithDescription("Change a node's display label. The label is cosmetic; species identity is unchanged."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithString("display_name", mcp.Required(), mcp.Description("New label")),
	), s.handleRenameNode)

	s.mcpServer.AddTool(mcp.NewTool(
		"set_species_type",
		mcp.WithDescription("Convert a species between input and regular."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Species name")),
		mcp.WithBoolean("is_input", mcp.Required(), mcp.Description("true to make the species an input")),
		mcp.WithNumber("delta", mcp.Description("Degradation rate when converting to regular (default 0.1)")),
	), s.handleSetSpeciesType)

	s.mcpServer.AddTool(mcp.NewTool(
		"simulate",
		mcp.WithDescription("Run a single simulation with all inputs held at a level. Returns the final state per species."),
		mcp.WithNumber("duration", mcp.Description("Simulated time span (default 100)")),
		mcp.WithNumber("level", mcp.Description("Level every input species is held at (default 10)")),
	), s.handleSimulate)

	s.mcpServer.AddTool(mcp.NewTool(
		"save_network",
		mcp.WithDescription("Save the network to a .grn file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Destination file path")),
	), s.handleSaveNetwork)

	s.mcpServer.AddTool(mcp.NewTool(
		"load_network",
		mcp.WithDescription("Load a .grn file, replacing the current network. The load is all-or-nothing."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Source file path")),
	), s.handleLoadNetwork)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"grenlin-aware",
		mcp.WithPromptDescription("Provides context about network concepts (Species, Genes, Nodes, Edges)"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadNetwork(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc := codec.Serialize(s.engine.Store(), s.engine.Model())
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal network: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleReadDump(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     s.engine.Model().Dump(),
		},
	}, nil
}

func (s *Server) handleAddSpecies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := mcp.ParseString(request, "name", "")
	isInput := mcp.ParseBoolean(request, "is_input", false)
	delta := mcp.ParseFloat64(request, "delta", grn.DefaultDelta)

	if err := s.engine.AddSpecies(name, isInput, delta); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add_species failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Species %q declared", name)), nil
}

func (s *Server) handleAddNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	species := mcp.ParseString(request, "species", "")
	logic := grn.LogicType(mcp.ParseString(request, "logic", string(grn.LogicAnd)))
	alpha := mcp.ParseFloat64(request, "alpha", engine.DefaultAlpha)
	x := mcp.ParseFloat64(request, "x", 0)
	y := mcp.ParseFloat64(request, "y", 0)
	display := mcp.ParseString(request, "display_name", "")

	node, err := s.engine.AddNode(species, logic, alpha, x, y, display)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add_node failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Node %s placed for species %q", node.ID, species)), nil
}

func (s *Server) handleAddEdge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sourceID := graph.NodeID(mcp.ParseString(request, "source_id", ""))
	targetID := graph.NodeID(mcp.ParseString(request, "target_id", ""))
	regType := grn.Activation
	if mcp.ParseString(request, "type", "activation") == "inhibition" {
		regType = grn.Inhibition
	}
	kd := mcp.ParseFloat64(request, "kd", engine.DefaultKd)
	n := mcp.ParseFloat64(request, "n", engine.DefaultN)

	edge, err := s.engine.AddEdge(sourceID, targetID, regType, kd, n)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("add_edge failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Edge %s created: %s -> %s", edge.ID, sourceID, targetID)), nil
}

func (s *Server) handleDeleteNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := graph.NodeID(mcp.ParseString(request, "node_id", ""))
	if err := s.engine.DeleteNode(id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete_node failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Node %s deleted", id)), nil
}

func (s *Server) handleDeleteEdge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sourceID := graph.NodeID(mcp.ParseString(request, "source_id", ""))
	targetID := graph.NodeID(mcp.ParseString(request, "target_id", ""))
	edge, ok := s.engine.Store().FindEdge(sourceID, targetID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no edge %s -> %s", sourceID, targetID)), nil
	}
	if err := s.engine.DeleteEdge(edge.ID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delete_edge failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Edge %s -> %s deleted", sourceID, targetID)), nil
}

func (s *Server) handleRenameNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := graph.NodeID(mcp.ParseString(request, "node_id", ""))
	display := mcp.ParseString(request, "display_name", "")
	if err := s.engine.RenameNodeDisplay(id, display); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rename_node failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Node %s renamed to %q", id, display)), nil
}

func (s *Server) handleSetSpeciesType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := mcp.ParseString(request, "name", "")
	isInput := mcp.ParseBoolean(request, "is_input", false)
	delta := mcp.ParseFloat64(request, "delta", grn.DefaultDelta)
	if err := s.engine.RetypeSpecies(name, isInput, delta); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("set_species_type failed: %v", err)), nil
	}
	kind := "regular"
	if isInput {
		kind = "input"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Species %q is now %s", name, kind)), nil
}

func (s *Server) handleSimulate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := simulation.DefaultConfig()
	cfg.Duration = mcp.ParseFloat64(request, "duration", cfg.Duration)
	level := mcp.ParseFloat64(request, "level", 10)

	model := s.engine.Model()
	inputs := make([]float64, len(model.InputSpeciesNames))
	for i := range inputs {
		inputs[i] = level
	}
	result, err := simulation.SimulateSingle(model, inputs, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("simulation failed: %v", err)), nil
	}

	final := result.Values[len(result.Values)-1]
	state := make(map[string]float64, len(result.Species))
	for i, name := range result.Species {
		state[name] = final[i]
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal final state: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleSaveNetwork(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := mcp.ParseString(request, "path", "")
	if err := codec.Save(path, s.engine.Store(), s.engine.Model()); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Network saved to %s", path)), nil
}

func (s *Server) handleLoadNetwork(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := mcp.ParseString(request, "path", "")
	store, model, err := codec.Load(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	s.engine.Replace(store, model)
	return mcp.NewToolResultText(fmt.Sprintf("Network loaded from %s (%d nodes, %d edges)", path, store.NodeCount(), store.EdgeCount())), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "grenlin-aware" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are interacting with Grenlin, a gene regulatory network editor.

Concepts:
- Species: a named biological entity. Regular species degrade at rate delta; input species are externally driven and never degrade.
- Node: a positioned visual instance referencing a species. Several nodes may reference the same species.
- Edge: a directed regulatory connection between two nodes, either activation or inhibition, with binding constant Kd and Hill coefficient n.
- Gene: the model-side rule produced by edges into a node: its regulators combine under AND/OR logic to drive the product species.

Declare species with 'add_species' before placing nodes. Edges keep the gene records synchronized automatically.
`

	return mcp.NewGetPromptResult(
		"grenlin-aware",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}
