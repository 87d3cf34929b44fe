package codec

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/grenlab/grenlin/pkg/graph"
	"github.com/grenlab/grenlin/pkg/grn"
)

// Serialize emits a current-schema document for the given state. Node
// records are keyed by id so multiple nodes per species survive the
// round trip; edges whose endpoints no longer exist are filtered out.
func Serialize(store *graph.Store, model *grn.Network) *Document {
	doc := &Document{
		Nodes: make([]NodeRecord, 0, store.NodeCount()),
		Edges: make([]EdgeRecord, 0, store.EdgeCount()),
		GRN: ModelRecord{
			Species:           make([]SpeciesRecord, 0, len(model.Species)),
			InputSpeciesNames: append([]string(nil), model.InputSpeciesNames...),
			Genes:             model.Genes,
		},
	}

	for _, node := range store.Nodes() {
		alpha := node.Alpha
		doc.Nodes = append(doc.Nodes, NodeRecord{
			NodeID:      string(node.ID),
			SpeciesName: node.SpeciesName,
			DisplayName: node.DisplayName,
			X:           node.X,
			Y:           node.Y,
			LogicType:   string(node.LogicType),
			Alpha:       &alpha,
		})
	}
	// Map iteration order is random; keep the document stable.
	sort.Slice(doc.Nodes, func(i, j int) bool { return doc.Nodes[i].NodeID < doc.Nodes[j].NodeID })

	for _, edge := range store.Edges() {
		source, ok := store.Node(edge.SourceID)
		if !ok {
			continue
		}
		target, ok := store.Node(edge.TargetID)
		if !ok {
			continue
		}
		kd, n := edge.Kd, edge.N
		doc.Edges = append(doc.Edges, EdgeRecord{
			SourceID:      string(edge.SourceID),
			TargetID:      string(edge.TargetID),
			SourceSpecies: source.SpeciesName,
			TargetSpecies: target.SpeciesName,
			Type:          int(edge.Type),
			Kd:            &kd,
			N:             &n,
		})
	}

	for _, s := range model.Species {
		doc.GRN.Species = append(doc.GRN.Species, SpeciesRecord{Name: s.Name, Delta: s.Delta})
	}

	return doc
}

// Deserialize rebuilds graph and model state from a document of either
// schema generation. Legacy species-keyed nodes get fresh ids. The
// returned state satisfies every model and graph invariant, or an error
// is returned and nothing of the existing state needs to change.
func Deserialize(doc *Document) (*graph.Store, *grn.Network, error) {
	model := grn.NewNetwork()

	// Species come first so retype-derived invariants hold before nodes
	// and genes attach.
	inputs := make(map[string]bool, len(doc.GRN.InputSpeciesNames))
	for _, name := range doc.GRN.InputSpeciesNames {
		inputs[name] = true
	}
	for _, s := range doc.GRN.Species {
		var err error
		if inputs[s.Name] {
			err = model.AddInputSpecies(s.Name)
		} else {
			delta := DefaultDelta
			if s.Delta != nil {
				delta = *s.Delta
			}
			err = model.AddSpecies(s.Name, delta)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("invalid species list: %w", err)
		}
	}

	store := graph.NewStore()
	bySpecies := make(map[string]graph.NodeID)
	for i, rec := range doc.Nodes {
		species := rec.SpeciesName
		if species == "" {
			species = rec.Name
		}
		if species == "" {
			return nil, nil, fmt.Errorf("node %d has no species reference", i)
		}
		if !model.HasSpecies(species) {
			return nil, nil, fmt.Errorf("node %d references unknown species %q", i, species)
		}
		id := graph.NodeID(rec.NodeID)
		if id == "" {
			id = graph.NodeID(uuid.NewString())
		}
		if _, exists := store.Node(id); exists {
			return nil, nil, fmt.Errorf("duplicate node id %q", id)
		}
		display := rec.DisplayName
		if display == "" {
			display = species
		}
		logic := grn.LogicType(rec.LogicType)
		if logic == "" {
			logic = DefaultLogic
		}
		alpha := float64(DefaultAlpha)
		if rec.Alpha != nil {
			alpha = *rec.Alpha
		}
		store.AddNode(&graph.Node{
			ID:          id,
			SpeciesName: species,
			DisplayName: display,
			X:           rec.X,
			Y:           rec.Y,
			LogicType:   logic,
			Alpha:       alpha,
		})
		if _, taken := bySpecies[species]; !taken {
			bySpecies[species] = id
		}
	}

	for i, rec := range doc.Edges {
		sourceID, err := resolveEndpoint(store, bySpecies, rec.SourceID, rec.SourceSpecies, rec.Source)
		if err != nil {
			return nil, nil, fmt.Errorf("edge %d: source: %w", i, err)
		}
		targetID, err := resolveEndpoint(store, bySpecies, rec.TargetID, rec.TargetSpecies, rec.Target)
		if err != nil {
			return nil, nil, fmt.Errorf("edge %d: target: %w", i, err)
		}
		if sourceID == targetID {
			return nil, nil, fmt.Errorf("edge %d is a self loop", i)
		}
		// Duplicate ordered pairs are dropped, keeping the first.
		if _, exists := store.FindEdge(sourceID, targetID); exists {
			continue
		}
		kd := float64(DefaultKd)
		if rec.Kd != nil {
			kd = *rec.Kd
		}
		n := float64(DefaultN)
		if rec.N != nil {
			n = *rec.N
		}
		store.AddEdge(&graph.Edge{
			ID:       graph.EdgeID(uuid.NewString()),
			SourceID: sourceID,
			TargetID: targetID,
			Type:     grn.RegulationType(rec.Type),
			Kd:       kd,
			N:        n,
		})
	}

	model.Genes = doc.GRN.Genes
	if model.Genes == nil {
		model.Genes = make([]*grn.Gene, 0)
	}
	if err := model.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid model: %w", err)
	}

	return store, model, nil
}

func resolveEndpoint(store *graph.Store, bySpecies map[string]graph.NodeID, id, species, legacy string) (graph.NodeID, error) {
	if id != "" {
		if _, ok := store.Node(graph.NodeID(id)); !ok {
			return "", fmt.Errorf("unknown node id %q", id)
		}
		return graph.NodeID(id), nil
	}
	name := species
	if name == "" {
		name = legacy
	}
	if name == "" {
		return "", fmt.Errorf("no endpoint reference")
	}
	nodeID, ok := bySpecies[name]
	if !ok {
		return "", fmt.Errorf("no node for species %q", name)
	}
	return nodeID, nil
}

// Save writes the state to path as indented JSON. The write goes through
// a temp file and an atomic rename so a crash never leaves a truncated
// network file behind.
func Save(path string, store *graph.Store, model *grn.Network) error {
	doc := Serialize(store, model)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode network: %w", err)
	}

	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, "grn-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return fmt.Errorf("failed to write network file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return fmt.Errorf("failed to sync network file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tempFile.Name(), path); err != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}

// Load reads a network file and rebuilds the state. The load is
// all-or-nothing: on any error the caller's current state is untouched.
func Load(path string) (*graph.Store, *grn.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read network file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse network file: %w", err)
	}
	return Deserialize(&doc)
}
