package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grenlab/grenlin/pkg/codec"
	"github.com/grenlab/grenlin/pkg/engine"
	"github.com/grenlab/grenlin/pkg/graph"
	"github.com/grenlab/grenlin/pkg/grn"
	"github.com/grenlab/grenlin/pkg/simulation"
	"github.com/grenlab/grenlin/pkg/store"
)

const (
	canvasWidth  = 72
	canvasHeight = 20
	dumpHeight   = 20
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	statusStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	canvasStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	nodeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	inputNodeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	cursorNodeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Reverse(true)
	sourceNodeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)

	activationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	inhibitionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	selectedStyle   = lipgloss.NewStyle().Reverse(true)
)

type tickMsg time.Time

// promptKind identifies which form field the text input is collecting.
type promptKind int

const (
	promptNone promptKind = iota
	promptSpeciesName
	promptSpeciesType
	promptSpeciesDelta
	promptNodeSpecies
	promptNodeDisplay
	promptNodeLogic
	promptNodeAlpha
	promptRename
	promptRetypeDelta
	promptEdgeKd
	promptEdgeN
	promptEdgeType
	promptSavePath
	promptOpenPath
	promptRestore
)

type model struct {
	cfg Config
	eng *engine.Engine
	ctl *engine.Controller
	ws  *store.Store

	cursorX, cursorY int
	dragging         bool
	edgeSel          int

	input      textinput.Model
	prompt     promptKind
	promptNote string
	snapshots  []store.Snapshot
	// partial form values carried between chained prompts
	formName    string
	formDisplay string
	formInput   bool
	formLogic   grn.LogicType
	formAlpha   float64
	formKd      float64
	formN       float64
	retypeOf    graph.NodeID
	renameOf    graph.NodeID

	dump     viewport.Model
	showDump bool

	currentFile string
	modified    bool
	status      string
	err         error
}

func initialModel(cfg Config, ws *store.Store) *model {
	eng := engine.New()
	ctl := engine.NewController(eng)

	ti := textinput.New()
	ti.CharLimit = 128

	vp := viewport.New(canvasWidth, dumpHeight)

	m := &model{
		cfg:     cfg,
		eng:     eng,
		ctl:     ctl,
		ws:      ws,
		cursorX: canvasWidth / 2,
		cursorY: canvasHeight / 2,
		input:   ti,
		dump:    vp,
		edgeSel: -1,
	}
	eng.OnModelChanged(func() { m.modified = true })
	return m
}

func (m *model) Init() tea.Cmd {
	if m.cfg.AutosaveInterval > 0 && m.ws != nil {
		return tick(m.cfg.AutosaveInterval)
	}
	return nil
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		if m.showDump {
			if msg.String() == "q" || msg.String() == "esc" || msg.String() == "v" {
				m.showDump = false
				return m, nil
			}
			var cmd tea.Cmd
			m.dump, cmd = m.dump.Update(msg)
			return m, cmd
		}
		return m.updateCanvas(msg)

	case tickMsg:
		m.autosave()
		return m, tick(m.cfg.AutosaveInterval)
	}
	return m, nil
}

func (m *model) updateCanvas(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.autosave()
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(0, -1)
	case "down", "j":
		m.moveCursor(0, 1)
	case "left", "h":
		m.moveCursor(-1, 0)
	case "right", "l":
		m.moveCursor(1, 0)

	case "esc":
		m.ctl.Escape()
		m.dragging = false
		m.status = ""

	case "a":
		m.startPrompt(promptSpeciesName, "species name")

	case "n":
		if len(m.eng.Model().Species) == 0 {
			m.fail(errors.New("declare a species first (press 'a')"))
			return m, nil
		}
		m.startPrompt(promptNodeSpecies, "species for node")

	case "e":
		m.ctl.SetEdgeMode(m.ctl.Mode() != engine.ModeDrawingEdge)
		m.dragging = false
		if m.ctl.Mode() == engine.ModeDrawingEdge {
			m.status = "edge mode: enter on source node, then enter on target node"
		} else {
			m.status = ""
		}

	case "t":
		if m.ctl.EdgeType() == grn.Activation {
			m.ctl.SetEdgeType(grn.Inhibition)
			m.status = "drawing inhibition edges"
		} else {
			m.ctl.SetEdgeType(grn.Activation)
			m.status = "drawing activation edges"
		}

	case "enter", " ":
		m.pointerPress()

	case "d":
		if id := m.nodeAtCursor(); id != "" {
			if err := m.eng.DeleteNode(id); err != nil {
				m.fail(err)
			} else {
				m.status = "node deleted"
				m.edgeSel = -1
			}
		}

	case "r":
		if id := m.nodeAtCursor(); id != "" {
			m.renameOf = id
			m.startPrompt(promptRename, "new display name")
		}

	case "i":
		if id := m.nodeAtCursor(); id != "" {
			node, _ := m.eng.Store().Node(id)
			if m.eng.Model().IsInput(node.SpeciesName) {
				m.retypeOf = id
				m.startPrompt(promptRetypeDelta, "degradation rate (delta)")
			} else if err := m.eng.RetypeSpecies(node.SpeciesName, true, 0); err != nil {
				m.fail(err)
			} else {
				m.status = fmt.Sprintf("species %q is now an input", node.SpeciesName)
			}
		}

	case "tab":
		if n := m.eng.Store().EdgeCount(); n > 0 {
			m.edgeSel = (m.edgeSel + 1) % n
		}

	case "p":
		if e := m.selectedEdge(); e != nil {
			m.formKd = e.Kd
			m.formN = e.N
			m.startPrompt(promptEdgeKd, fmt.Sprintf("Kd (current %g)", e.Kd))
		}

	case "x":
		if e := m.selectedEdge(); e != nil {
			if err := m.eng.DeleteEdge(e.ID); err != nil {
				m.fail(err)
			} else {
				m.status = "edge deleted"
				m.edgeSel = -1
			}
		}

	case "s":
		if m.currentFile == "" {
			m.startPrompt(promptSavePath, "save to path (.grn)")
		} else {
			m.saveTo(m.currentFile)
		}

	case "S":
		m.startPrompt(promptSavePath, "save to path (.grn)")

	case "o":
		m.promptNote = m.recentFilesNote()
		m.startPrompt(promptOpenPath, "open path (.grn)")

	case "u":
		m.startRestore()

	case "N":
		m.eng.Reset()
		m.currentFile = ""
		m.modified = false
		m.edgeSel = -1
		m.status = "new network"

	case "v":
		m.dump.SetContent(m.eng.Model().Dump())
		m.showDump = true

	case "m":
		m.runSimulation()
	}
	return m, nil
}

// pointerPress maps the action key at the cursor onto the pointer
// protocol the controller expects.
func (m *model) pointerPress() {
	hit := m.nodeAtCursor()

	switch m.ctl.Mode() {
	case engine.ModePlacingNode:
		node, err := m.ctl.PointerDown(float64(m.cursorX), float64(m.cursorY), hit)
		if err != nil {
			m.fail(err)
			return
		}
		if node != nil {
			m.status = fmt.Sprintf("placed node %q", node.DisplayName)
		}

	case engine.ModeDrawingEdge:
		if m.ctl.PendingSource() == "" {
			m.ctl.PointerDown(float64(m.cursorX), float64(m.cursorY), hit)
			if m.ctl.PendingSource() != "" {
				m.status = "edge started: enter on target node"
			}
			return
		}
		edge, err := m.ctl.PointerUp(hit)
		if err != nil {
			m.fail(err)
			return
		}
		if edge != nil {
			m.status = "edge created"
		} else {
			m.status = "edge abandoned: enter on source node to retry"
		}

	default:
		if m.dragging {
			m.ctl.PointerUp("")
			m.dragging = false
			m.status = "node dropped"
			return
		}
		if hit != "" {
			m.ctl.PointerDown(float64(m.cursorX), float64(m.cursorY), hit)
			m.dragging = true
			m.status = "dragging: move with arrows, enter to drop"
		}
	}
}

func (m *model) moveCursor(dx, dy int) {
	m.cursorX = clamp(m.cursorX+dx, 0, canvasWidth-1)
	m.cursorY = clamp(m.cursorY+dy, 0, canvasHeight-1)
	if m.dragging {
		if err := m.ctl.PointerMove(float64(m.cursorX), float64(m.cursorY)); err != nil {
			m.fail(err)
			m.dragging = false
		}
	}
}

func (m *model) nodeAtCursor() graph.NodeID {
	for _, n := range m.eng.Store().Nodes() {
		if int(math.Round(n.X)) == m.cursorX && int(math.Round(n.Y)) == m.cursorY {
			return n.ID
		}
	}
	return ""
}

func (m *model) selectedEdge() *graph.Edge {
	edges := m.eng.Store().Edges()
	if m.edgeSel < 0 || m.edgeSel >= len(edges) {
		return nil
	}
	return edges[m.edgeSel]
}

// --- prompt handling ---

func (m *model) startPrompt(kind promptKind, placeholder string) {
	m.prompt = kind
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	m.input.Focus()
}

func (m *model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompt = promptNone
		m.promptNote = ""
		m.snapshots = nil
		m.input.Blur()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		kind := m.prompt
		m.prompt = promptNone
		m.promptNote = ""
		m.finishPrompt(kind, value)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) finishPrompt(kind promptKind, value string) {
	switch kind {
	case promptSpeciesName:
		if value == "" {
			m.fail(errors.New("species name cannot be empty"))
			return
		}
		if m.eng.Model().HasSpecies(value) {
			m.fail(fmt.Errorf("species %q already exists", value))
			return
		}
		m.formName = value
		m.startPrompt(promptSpeciesType, "species type: (i)nput or (r)egular")

	case promptSpeciesType:
		m.formInput = strings.HasPrefix(strings.ToLower(value), "i")
		if m.formInput {
			m.declareSpecies(0)
		} else {
			m.startPrompt(promptSpeciesDelta, "degradation rate (delta)")
		}

	case promptSpeciesDelta:
		delta, err := parseFloatOr(value, grn.DefaultDelta)
		if err != nil {
			m.fail(err)
			return
		}
		m.declareSpecies(delta)

	case promptNodeSpecies:
		if !m.eng.Model().HasSpecies(value) {
			m.fail(fmt.Errorf("unknown species %q", value))
			return
		}
		m.formName = value
		m.startPrompt(promptNodeDisplay, "display name (empty = species name)")

	case promptNodeDisplay:
		m.formDisplay = value
		m.startPrompt(promptNodeLogic, "logic: (a)nd or (o)r")

	case promptNodeLogic:
		m.formLogic = grn.LogicAnd
		if strings.HasPrefix(strings.ToLower(value), "o") {
			m.formLogic = grn.LogicOr
		}
		m.startPrompt(promptNodeAlpha, "alpha (production rate)")

	case promptNodeAlpha:
		alpha, err := parseFloatOr(value, engine.DefaultAlpha)
		if err != nil {
			m.fail(err)
			return
		}
		m.formAlpha = alpha
		m.ctl.StartPlacingNode(engine.PendingNode{
			SpeciesName: m.formName,
			Logic:       m.formLogic,
			Alpha:       m.formAlpha,
			DisplayName: m.formDisplay,
		})
		m.status = fmt.Sprintf("placing node for %q: move cursor, enter to place (esc cancels)", m.formName)

	case promptRename:
		if err := m.eng.RenameNodeDisplay(m.renameOf, value); err != nil {
			m.fail(err)
		} else {
			m.status = "node renamed"
		}

	case promptRetypeDelta:
		delta, err := parseFloatOr(value, grn.DefaultDelta)
		if err != nil {
			m.fail(err)
			return
		}
		node, ok := m.eng.Store().Node(m.retypeOf)
		if !ok {
			return
		}
		if err := m.eng.RetypeSpecies(node.SpeciesName, false, delta); err != nil {
			m.fail(err)
		} else {
			m.status = fmt.Sprintf("species %q is now regular (delta %g)", node.SpeciesName, delta)
		}

	case promptEdgeKd:
		kd, err := parseFloatOr(value, m.formKd)
		if err != nil {
			m.fail(err)
			return
		}
		m.formKd = kd
		m.startPrompt(promptEdgeN, fmt.Sprintf("n (current %g)", m.formN))

	case promptEdgeN:
		n, err := parseFloatOr(value, m.formN)
		if err != nil {
			m.fail(err)
			return
		}
		m.formN = n
		m.startPrompt(promptEdgeType, "type: (a)ctivation or (i)nhibition")

	case promptEdgeType:
		regType := grn.Activation
		if strings.HasPrefix(strings.ToLower(value), "i") {
			regType = grn.Inhibition
		}
		e := m.selectedEdge()
		if e == nil {
			return
		}
		if err := m.eng.EditEdgeParameters(e.ID, m.formKd, m.formN, regType); err != nil {
			m.fail(err)
		} else {
			m.status = "edge parameters updated"
		}

	case promptSavePath:
		if value == "" {
			return
		}
		if !strings.HasSuffix(value, ".grn") {
			value += ".grn"
		}
		m.saveTo(value)

	case promptOpenPath:
		if value == "" {
			return
		}
		m.openFrom(value)

	case promptRestore:
		snaps := m.snapshots
		m.snapshots = nil
		if len(snaps) == 0 {
			return
		}
		var snap store.Snapshot
		if value == "" {
			latest, err := m.ws.LatestSnapshot(context.Background(), m.snapshotName())
			if err != nil {
				m.fail(err)
				return
			}
			snap = *latest
		} else {
			idx, err := strconv.Atoi(value)
			if err != nil || idx < 1 || idx > len(snaps) {
				m.fail(fmt.Errorf("invalid autosave number %q", value))
				return
			}
			snap = snaps[idx-1]
		}
		st, mdl, err := decodeSnapshot(snap.Document)
		if err != nil {
			m.fail(err)
			return
		}
		m.eng.Replace(st, mdl)
		m.modified = false
		m.edgeSel = -1
		m.status = okStyle.Render(fmt.Sprintf("restored autosave from %s",
			snap.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	}
}

func (m *model) declareSpecies(delta float64) {
	if err := m.eng.AddSpecies(m.formName, m.formInput, delta); err != nil {
		m.fail(err)
		return
	}
	m.status = fmt.Sprintf("species %q declared (press 'n' to place a node)", m.formName)
}

// --- file and workspace operations ---

func (m *model) saveTo(path string) {
	if err := codec.Save(path, m.eng.Store(), m.eng.Model()); err != nil {
		m.fail(err)
		return
	}
	m.currentFile = path
	m.modified = false
	m.status = okStyle.Render(fmt.Sprintf("saved to %s", path))
	m.touchRecent(path)
}

func (m *model) openFrom(path string) {
	st, mdl, err := codec.Load(path)
	if err != nil {
		// Load is all-or-nothing: the current network stays untouched.
		m.fail(err)
		return
	}
	m.eng.Replace(st, mdl)
	m.currentFile = path
	m.modified = false
	m.edgeSel = -1
	m.status = okStyle.Render(fmt.Sprintf("loaded %s (%d nodes, %d edges)", path, st.NodeCount(), st.EdgeCount()))
	m.touchRecent(path)
}

func (m *model) touchRecent(path string) {
	if m.ws == nil {
		return
	}
	if err := m.ws.TouchRecentFile(context.Background(), path); err != nil {
		log.Printf("failed to record recent file: %v", err)
	}
}

func (m *model) autosave() {
	if m.ws == nil || !m.modified {
		return
	}
	doc := codec.Serialize(m.eng.Store(), m.eng.Model())
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	name := m.snapshotName()
	ctx := context.Background()
	if _, err := m.ws.SaveSnapshot(ctx, name, data); err != nil {
		log.Printf("autosave failed: %v", err)
		return
	}
	if _, err := m.ws.PruneSnapshots(ctx, name, m.cfg.AutosaveKeep); err != nil {
		log.Printf("autosave prune failed: %v", err)
	}
}

// snapshotName is the workspace key autosaves of the current network
// file in the sqlite store under.
func (m *model) snapshotName() string {
	if m.currentFile == "" {
		return "untitled"
	}
	return filepath.Base(m.currentFile)
}

// recentFilesNote lists recently opened files to show alongside the
// open-path prompt.
func (m *model) recentFilesNote() string {
	if m.ws == nil {
		return ""
	}
	files, err := m.ws.RecentFiles(context.Background(), 5)
	if err != nil {
		log.Printf("failed to read recent files: %v", err)
		return ""
	}
	if len(files) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("recent:")
	for _, f := range files {
		b.WriteString("\n  " + f.Path)
	}
	return b.String()
}

// startRestore lists the autosaves for the current network and prompts
// for the one to bring back.
func (m *model) startRestore() {
	if m.ws == nil {
		m.fail(errors.New("no workspace database configured"))
		return
	}
	snaps, err := m.ws.ListSnapshots(context.Background(), m.snapshotName(), 10)
	if err != nil {
		m.fail(err)
		return
	}
	if len(snaps) == 0 {
		m.status = fmt.Sprintf("no autosaves for %q", m.snapshotName())
		return
	}
	m.snapshots = snaps
	var b strings.Builder
	b.WriteString("autosaves for " + m.snapshotName() + ":")
	for i, snap := range snaps {
		b.WriteString(fmt.Sprintf("\n  %d: %s", i+1, snap.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	}
	m.promptNote = b.String()
	m.startPrompt(promptRestore, "autosave number (empty = latest)")
}

// decodeSnapshot rebuilds editor state from an autosaved document.
func decodeSnapshot(data []byte) (*graph.Store, *grn.Network, error) {
	var doc codec.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return codec.Deserialize(&doc)
}

func (m *model) runSimulation() {
	mdl := m.eng.Model()
	if len(mdl.Species) == 0 {
		m.fail(errors.New("add some nodes to the network first"))
		return
	}
	cfg := simulation.DefaultConfig()
	inputs := make([]float64, len(mdl.InputSpeciesNames))
	for i := range inputs {
		inputs[i] = 10
	}
	result, err := simulation.SimulateSingle(mdl, inputs, cfg)
	if err != nil {
		m.fail(err)
		return
	}
	final := result.Values[len(result.Values)-1]
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Simulation: t=0..%g, inputs held at 10\n\nFinal state:\n", cfg.Duration))
	for i, name := range result.Species {
		b.WriteString(fmt.Sprintf("  %-20s %.4f\n", name, final[i]))
	}
	b.WriteString("\n")
	b.WriteString(mdl.Dump())
	m.dump.SetContent(b.String())
	m.showDump = true
}

func (m *model) fail(err error) {
	m.err = err
	m.status = errorStyle.Render(err.Error())
}

// --- rendering ---

func (m *model) View() string {
	var b strings.Builder

	title := "grenlin"
	if m.currentFile != "" {
		title = filepath.Base(m.currentFile)
	}
	if m.modified {
		title += "*"
	}
	b.WriteString(titleStyle.Render(title) + subtleStyle.Render("  mode: "+m.ctl.Mode().String()+edgeTypeSuffix(m.ctl)))
	b.WriteString("\n")

	if m.showDump {
		b.WriteString(paneStyle.Render(m.dump.View()))
		b.WriteString("\n" + subtleStyle.Render("v/esc: back"))
		return b.String()
	}

	b.WriteString(canvasStyle.Render(m.renderCanvas()))
	b.WriteString("\n")
	b.WriteString(paneStyle.Render(m.renderEdges()))
	b.WriteString("\n")

	if m.prompt != promptNone {
		if m.promptNote != "" {
			b.WriteString(subtleStyle.Render(m.promptNote))
			b.WriteString("\n")
		}
		b.WriteString(m.input.View())
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(subtleStyle.Render("a:species  n:node  e:edge-mode  t:edge-type  enter:act  d:del-node  tab/p/x:edges  r:rename  i:input  s:save  o:open  u:restore  m:simulate  v:dump  q:quit"))
	return b.String()
}

func edgeTypeSuffix(ctl *engine.Controller) string {
	if ctl.Mode() != engine.ModeDrawingEdge {
		return ""
	}
	if ctl.EdgeType() == grn.Inhibition {
		return " (inhibition)"
	}
	return " (activation)"
}

func (m *model) renderCanvas() string {
	type cell struct {
		text  string
		style lipgloss.Style
	}
	grid := make(map[[2]int]cell)

	mdl := m.eng.Model()
	nodes := make([]*graph.Node, 0, m.eng.Store().NodeCount())
	for _, n := range m.eng.Store().Nodes() {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	for _, n := range nodes {
		x := clamp(int(math.Round(n.X)), 0, canvasWidth-1)
		y := clamp(int(math.Round(n.Y)), 0, canvasHeight-1)
		style := nodeStyle
		if mdl.IsInput(n.SpeciesName) {
			style = inputNodeStyle
		}
		if n.ID == m.ctl.PendingSource() {
			style = sourceNodeStyle
		}
		label := n.DisplayName
		if len(label) > 10 {
			label = label[:10]
		}
		grid[[2]int{x, y}] = cell{text: "●" + label, style: style}
	}

	var b strings.Builder
	for y := 0; y < canvasHeight; y++ {
		x := 0
		for x < canvasWidth {
			if c, ok := grid[[2]int{x, y}]; ok {
				style := c.style
				if x == m.cursorX && y == m.cursorY {
					style = cursorNodeStyle
				}
				b.WriteString(style.Render(c.text))
				x += lipgloss.Width(c.text)
				continue
			}
			if x == m.cursorX && y == m.cursorY {
				b.WriteString(cursorNodeStyle.Render("+"))
			} else {
				b.WriteString(" ")
			}
			x++
		}
		if y < canvasHeight-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *model) renderEdges() string {
	edges := m.eng.Store().Edges()
	if len(edges) == 0 {
		return subtleStyle.Render("no edges")
	}
	var b strings.Builder
	for i, e := range edges {
		source, _ := m.eng.Store().Node(e.SourceID)
		target, _ := m.eng.Store().Node(e.TargetID)
		arrow := activationStyle.Render("→")
		if e.Type == grn.Inhibition {
			arrow = inhibitionStyle.Render("⊣")
		}
		line := fmt.Sprintf("%s %s %s  (Kd=%g n=%g)", source.DisplayName, arrow, target.DisplayName, e.Kd, e.N)
		if i == m.edgeSel {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		if i < len(edges)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func parseFloatOr(value string, fallback float64) (float64, error) {
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", value)
	}
	return f, nil
}

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "grenlin: %v\n", err)
		os.Exit(1)
	}

	var ws *store.Store
	if cfg.DBPath != "" {
		ws, err = store.NewStore(cfg.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "grenlin: workspace db: %v\n", err)
			os.Exit(1)
		}
		defer ws.Close()
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("metrics listener failed: %v", err)
			}
		}()
	}

	m := initialModel(cfg, ws)
	if cfg.NetworkPath != "" {
		m.openFrom(cfg.NetworkPath)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "grenlin: %v\n", err)
		os.Exit(1)
	}
}
