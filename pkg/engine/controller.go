package engine

import (
	"github.com/grenlab/grenlin/pkg/graph"
	"github.com/grenlab/grenlin/pkg/grn"
)

// Mode is the editing mode the controller is in. It decides what a
// pointer gesture means at any moment.
type Mode int

const (
	// ModeIdle is the default: nodes are draggable and selectable.
	ModeIdle Mode = iota
	// ModePlacingNode means the next pointer-down instantiates a node
	// from the pending spec.
	ModePlacingNode
	// ModeDrawingEdge means pointer gestures build an edge between two
	// nodes. The mode is sticky across abandoned attempts.
	ModeDrawingEdge
)

func (m Mode) String() string {
	switch m {
	case ModePlacingNode:
		return "placing-node"
	case ModeDrawingEdge:
		return "drawing-edge"
	default:
		return "idle"
	}
}

// PendingNode carries the already-validated values a placement click
// will instantiate a node from.
type PendingNode struct {
	SpeciesName string
	Logic       grn.LogicType
	Alpha       float64
	DisplayName string
}

// Controller interprets pointer and keyboard events and drives engine
// mutations. It owns only ephemeral gesture state; no model mutation
// happens until a gesture completes, so cancelling discards nothing
// but the pending spec or edge source.
type Controller struct {
	engine *Engine

	mode     Mode
	pending  *PendingNode
	edgeType grn.RegulationType
	sourceID graph.NodeID
	dragID   graph.NodeID

	modeObservers []func(Mode)
}

// NewController creates a controller in Idle mode drawing activation
// edges.
func NewController(e *Engine) *Controller {
	return &Controller{engine: e, edgeType: grn.Activation}
}

// Mode returns the current editing mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// OnModeChanged registers an observer invoked whenever the mode changes.
func (c *Controller) OnModeChanged(fn func(Mode)) {
	c.modeObservers = append(c.modeObservers, fn)
}

// EdgeType returns the regulation type pending edges are created with.
func (c *Controller) EdgeType() grn.RegulationType {
	return c.edgeType
}

// SetEdgeType selects the regulation type for subsequently drawn edges.
func (c *Controller) SetEdgeType(t grn.RegulationType) {
	c.edgeType = t
}

// PendingSource returns the source node of the edge being drawn, or ""
// when no pending edge is started.
func (c *Controller) PendingSource() graph.NodeID {
	return c.sourceID
}

// StartPlacingNode enters PlacingNode mode. Any pending edge gesture is
// discarded first.
func (c *Controller) StartPlacingNode(spec PendingNode) {
	c.sourceID = ""
	c.dragID = ""
	c.pending = &spec
	c.setMode(ModePlacingNode)
}

// SetEdgeMode toggles between Idle and DrawingEdge.
func (c *Controller) SetEdgeMode(enabled bool) {
	c.pending = nil
	c.sourceID = ""
	c.dragID = ""
	if enabled {
		c.setMode(ModeDrawingEdge)
	} else {
		c.setMode(ModeIdle)
	}
}

// Escape cancels the current gesture from any non-Idle state and returns
// to Idle, discarding the pending spec or edge source.
func (c *Controller) Escape() {
	c.pending = nil
	c.sourceID = ""
	c.dragID = ""
	c.setMode(ModeIdle)
}

// PointerDown handles a pointer press. hit is the node under the
// pointer, or "" over empty canvas. In PlacingNode mode the press
// instantiates the pending node and returns it; in DrawingEdge mode a
// press on a node starts the pending edge; in Idle a press on a node
// begins a drag.
func (c *Controller) PointerDown(x, y float64, hit graph.NodeID) (*graph.Node, error) {
	switch c.mode {
	case ModePlacingNode:
		spec := c.pending
		c.pending = nil
		c.setMode(ModeIdle)
		if spec == nil {
			return nil, nil
		}
		return c.engine.AddNode(spec.SpeciesName, spec.Logic, spec.Alpha, x, y, spec.DisplayName)
	case ModeDrawingEdge:
		if c.sourceID == "" && hit != "" {
			c.sourceID = hit
		}
		return nil, nil
	default:
		if hit != "" {
			c.dragID = hit
		}
		return nil, nil
	}
}

// PointerMove handles pointer motion. While dragging in Idle mode the
// node position is updated synchronously; incident edges follow the
// node because they reference it by id.
func (c *Controller) PointerMove(x, y float64) error {
	if c.mode != ModeIdle || c.dragID == "" {
		return nil
	}
	return c.engine.MoveNode(c.dragID, x, y)
}

// PointerUp handles a pointer release. In DrawingEdge mode a release
// over a different node commits the pending edge; any other release
// abandons the attempt and stays in edge mode with no source.
func (c *Controller) PointerUp(hit graph.NodeID) (*graph.Edge, error) {
	if c.mode == ModeDrawingEdge {
		source := c.sourceID
		c.sourceID = ""
		if source == "" || hit == "" || hit == source {
			return nil, nil
		}
		edge, err := c.engine.AddEdge(source, hit, c.edgeType, DefaultKd, DefaultN)
		if err != nil {
			return nil, err
		}
		c.setMode(ModeIdle)
		return edge, nil
	}
	c.dragID = ""
	return nil, nil
}

// Default kinetic parameters for interactively drawn edges. The values
// match the ones a loaded document falls back to.
const (
	DefaultKd    = 5.0
	DefaultN     = 2.0
	DefaultAlpha = 10.0
)

func (c *Controller) setMode(m Mode) {
	if c.mode == m {
		return
	}
	c.mode = m
	for _, fn := range c.modeObservers {
		fn(m)
	}
}
