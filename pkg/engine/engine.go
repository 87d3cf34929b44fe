package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/grenlab/grenlin/pkg/graph"
	"github.com/grenlab/grenlin/pkg/grn"
)

var (
	// ErrUnknownSpecies is returned when an operation references a species
	// that was never declared in the model.
	ErrUnknownSpecies = errors.New("unknown species")
	// ErrNodeNotFound is returned when a node id does not resolve.
	ErrNodeNotFound = errors.New("node not found")
	// ErrEdgeNotFound is returned when an edge id does not resolve.
	ErrEdgeNotFound = errors.New("edge not found")
	// ErrSelfLoop is returned when an edge would connect a node to itself.
	ErrSelfLoop = errors.New("edge source and target are the same node")
	// ErrDuplicateEdge is returned when an ordered (source, target) pair
	// already carries an edge.
	ErrDuplicateEdge = errors.New("edge already exists for this node pair")
)

// Engine is the only writer permitted to touch the graph store and the
// logical model together. Every operation is atomic: it validates before
// mutating, restores all invariants, and ends with a single
// model-changed notification.
//
// All calls are serialized through one mutex so callers that introduce
// background work (autosave, MCP) stay on the single-writer path.
type Engine struct {
	notifier

	mu    sync.Mutex
	store *graph.Store
	model *grn.Network
}

// New creates an engine over an empty graph and model.
func New() *Engine {
	return &Engine{
		store: graph.NewStore(),
		model: grn.NewNetwork(),
	}
}

// NewWith creates an engine over existing state, e.g. after a load.
func NewWith(store *graph.Store, model *grn.Network) *Engine {
	return &Engine{store: store, model: model}
}

// Store exposes the graph store for read-only consumers (renderer,
// codec). Mutation outside the engine breaks the dual-representation
// contract.
func (e *Engine) Store() *graph.Store {
	return e.store
}

// Model exposes the logical model for read-only consumers (simulator,
// codec, inspector).
func (e *Engine) Model() *grn.Network {
	return e.model
}

// Replace swaps in freshly loaded state. Used by the load path after a
// document parsed successfully; the previous state is discarded whole.
func (e *Engine) Replace(store *graph.Store, model *grn.Network) {
	e.mu.Lock()
	e.store = store
	e.model = model
	e.mu.Unlock()
	updateSizeMetrics(e.store)
	e.notifyModelChanged()
}

// Reset clears both representations, giving a new empty network.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.store = graph.NewStore()
	e.model = grn.NewNetwork()
	e.mu.Unlock()
	updateSizeMetrics(e.store)
	e.notifyModelChanged()
}

// AddSpecies declares a species in the model. Nodes referencing it can
// then be placed on the canvas.
func (e *Engine) AddSpecies(name string, isInput bool, delta float64) error {
	e.mu.Lock()
	var err error
	if isInput {
		err = e.model.AddInputSpecies(name)
	} else {
		err = e.model.AddSpecies(name, delta)
	}
	e.mu.Unlock()
	if err != nil {
		return err
	}
	mutationsTotal.WithLabelValues("add_species").Inc()
	e.notifyModelChanged()
	return nil
}

// AddNode creates a visual node for an already-declared species and
// returns it. It never creates a species entry.
func (e *Engine) AddNode(speciesName string, logic grn.LogicType, alpha, x, y float64, displayName string) (*graph.Node, error) {
	e.mu.Lock()
	if !e.model.HasSpecies(speciesName) {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownSpecies, speciesName)
	}
	if displayName == "" {
		displayName = speciesName
	}
	node := &graph.Node{
		ID:          graph.NodeID(uuid.NewString()),
		SpeciesName: speciesName,
		DisplayName: displayName,
		X:           x,
		Y:           y,
		LogicType:   logic,
		Alpha:       alpha,
	}
	e.store.AddNode(node)
	e.mu.Unlock()
	mutationsTotal.WithLabelValues("add_node").Inc()
	updateSizeMetrics(e.store)
	e.notifyModelChanged()
	return node, nil
}

// RenameNodeDisplay updates a node's display label. The label is
// cosmetic and decoupled from species identity, so the model is not
// touched. An empty name resets the label to the species name.
func (e *Engine) RenameNodeDisplay(id graph.NodeID, displayName string) error {
	e.mu.Lock()
	node, ok := e.store.Node(id)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if displayName == "" {
		displayName = node.SpeciesName
	}
	node.DisplayName = displayName
	e.mu.Unlock()
	mutationsTotal.WithLabelValues("rename_node").Inc()
	e.notifyModelChanged()
	return nil
}

// RetypeSpecies converts a species between input and regular. The change
// applies to the model record; every node referencing the species shares
// the resulting appearance rules, they carry no separate state.
func (e *Engine) RetypeSpecies(name string, toInput bool, delta float64) error {
	e.mu.Lock()
	var err error
	if toInput {
		err = e.model.SetSpeciesInput(name)
	} else {
		if delta <= 0 {
			delta = grn.DefaultDelta
		}
		err = e.model.SetSpeciesRegular(name, delta)
	}
	e.mu.Unlock()
	if err != nil {
		return err
	}
	mutationsTotal.WithLabelValues("retype_species").Inc()
	e.notifyModelChanged()
	return nil
}

// MoveNode updates a node's position. Position is part of the node but
// not part of the model, so only the view-dirty channel fires; external
// views re-render edges incident to the node.
func (e *Engine) MoveNode(id graph.NodeID, x, y float64) error {
	e.mu.Lock()
	ok := e.store.MoveNode(id, x, y)
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	e.notifyViewDirty()
	return nil
}

// DeleteNode removes a node, every incident edge, the regulators those
// edges correspond to (dropping genes that end up regulator-less), and
// finally the node's species when no other node still references it.
// Deleting an absent node is a no-op.
func (e *Engine) DeleteNode(id graph.NodeID) error {
	e.mu.Lock()
	node, ok := e.store.Node(id)
	if !ok {
		e.mu.Unlock()
		return nil
	}
	for _, edge := range e.store.IncidentEdges(id) {
		e.removeEdgeLocked(edge)
	}
	e.store.RemoveNode(id)
	if len(e.store.NodesBySpecies(node.SpeciesName)) == 0 {
		e.model.RemoveSpecies(node.SpeciesName)
	}
	e.mu.Unlock()
	mutationsTotal.WithLabelValues("delete_node").Inc()
	updateSizeMetrics(e.store)
	e.notifyModelChanged()
	return nil
}

// AddEdge connects two nodes with a typed, parameterized edge and keeps
// the gene records in step: the gene keyed on the target species gains a
// regulator entry for the source species, or is created if absent. The
// target node's alpha and logic are the source of truth for a newly
// created gene.
func (e *Engine) AddEdge(sourceID, targetID graph.NodeID, regType grn.RegulationType, kd, n float64) (*graph.Edge, error) {
	e.mu.Lock()
	if sourceID == targetID {
		e.mu.Unlock()
		return nil, ErrSelfLoop
	}
	source, ok := e.store.Node(sourceID)
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: source %s", ErrNodeNotFound, sourceID)
	}
	target, ok := e.store.Node(targetID)
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: target %s", ErrNodeNotFound, targetID)
	}
	if _, exists := e.store.FindEdge(sourceID, targetID); exists {
		e.mu.Unlock()
		return nil, ErrDuplicateEdge
	}

	regulator := grn.Regulator{Name: source.SpeciesName, Type: regType, Kd: kd, N: n}
	if gene := e.geneByProductLocked(target.SpeciesName); gene != nil {
		if !geneHasRegulator(gene, source.SpeciesName) {
			gene.Regulators = append(gene.Regulators, regulator)
		}
	} else {
		if _, err := e.model.AddGene(target.Alpha, []grn.Regulator{regulator}, []grn.Product{{Name: target.SpeciesName}}, target.LogicType); err != nil {
			e.mu.Unlock()
			return nil, err
		}
	}

	edge := &graph.Edge{
		ID:       graph.EdgeID(uuid.NewString()),
		SourceID: sourceID,
		TargetID: targetID,
		Type:     regType,
		Kd:       kd,
		N:        n,
	}
	e.store.AddEdge(edge)
	e.mu.Unlock()
	mutationsTotal.WithLabelValues("add_edge").Inc()
	updateSizeMetrics(e.store)
	e.notifyModelChanged()
	return edge, nil
}

// EditEdgeParameters updates an edge's kinetic parameters and type, and
// the matching regulator entry. The regulator is located by the
// (source species, target species) pair; edges sharing that pair resolve
// to the same regulator record.
func (e *Engine) EditEdgeParameters(id graph.EdgeID, kd, n float64, regType grn.RegulationType) error {
	e.mu.Lock()
	edge, ok := e.store.Edge(id)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}
	source, _ := e.store.Node(edge.SourceID)
	target, _ := e.store.Node(edge.TargetID)
	edge.Kd = kd
	edge.N = n
	edge.Type = regType
	if gene := e.geneByProductLocked(target.SpeciesName); gene != nil {
		for i := range gene.Regulators {
			if gene.Regulators[i].Name == source.SpeciesName {
				gene.Regulators[i].Kd = kd
				gene.Regulators[i].N = n
				gene.Regulators[i].Type = regType
				break
			}
		}
	}
	e.mu.Unlock()
	mutationsTotal.WithLabelValues("edit_edge").Inc()
	e.notifyModelChanged()
	return nil
}

// DeleteEdge removes an edge and its corresponding regulator, dropping
// the gene entirely when that regulator was its last.
func (e *Engine) DeleteEdge(id graph.EdgeID) error {
	e.mu.Lock()
	edge, ok := e.store.Edge(id)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}
	e.removeEdgeLocked(edge)
	e.mu.Unlock()
	mutationsTotal.WithLabelValues("delete_edge").Inc()
	updateSizeMetrics(e.store)
	e.notifyModelChanged()
	return nil
}

// removeEdgeLocked removes an edge and its regulator entry. Caller holds
// the engine mutex.
func (e *Engine) removeEdgeLocked(edge *graph.Edge) {
	source, _ := e.store.Node(edge.SourceID)
	target, _ := e.store.Node(edge.TargetID)
	e.store.RemoveEdge(edge.ID)
	if source == nil || target == nil {
		return
	}
	gene := e.geneByProductLocked(target.SpeciesName)
	if gene == nil {
		return
	}
	for i := range gene.Regulators {
		if gene.Regulators[i].Name == source.SpeciesName {
			gene.Regulators = append(gene.Regulators[:i], gene.Regulators[i+1:]...)
			break
		}
	}
	if len(gene.Regulators) == 0 {
		e.model.RemoveGene(gene)
	}
}

// geneByProductLocked returns the gene producing the named species, if
// any. Edge-to-gene correspondence keys off species names, so there is
// at most one such gene per species in engine-maintained state.
func (e *Engine) geneByProductLocked(species string) *grn.Gene {
	genes := e.model.GenesByProduct(species)
	if len(genes) == 0 {
		return nil
	}
	return genes[0]
}

func geneHasRegulator(g *grn.Gene, name string) bool {
	for _, r := range g.Regulators {
		if r.Name == name {
			return true
		}
	}
	return false
}
