package simulation

import (
	"fmt"
	"math"

	"github.com/grenlab/grenlin/pkg/grn"
)

// SimulateSingle integrates the model from a zero initial state with the
// input species held at the supplied levels. inputs is aligned with the
// model's input-species order.
func SimulateSingle(model *grn.Network, inputs []float64, cfg Config) (*Result, error) {
	sys, err := newSystem(model, inputs)
	if err != nil {
		return nil, err
	}
	state := sys.initialState()
	return sys.run(state, 0, cfg), nil
}

// SimulateSequence integrates the model across a sequence of input
// combinations, holding each combination for the configured duration and
// carrying the final state of one segment into the next.
func SimulateSequence(model *grn.Network, combinations [][]float64, cfg Config) (*Result, error) {
	if len(combinations) == 0 {
		return nil, fmt.Errorf("no input combinations to simulate")
	}
	sys, err := newSystem(model, combinations[0])
	if err != nil {
		return nil, err
	}

	total := &Result{Species: sys.names}
	state := sys.initialState()
	offset := 0.0
	for _, combo := range combinations {
		if err := sys.setInputs(combo); err != nil {
			return nil, err
		}
		sys.applyInputs(state)
		seg := sys.run(state, offset, cfg)
		total.Time = append(total.Time, seg.Time...)
		total.Values = append(total.Values, seg.Values...)
		state = append([]float64(nil), seg.Values[len(seg.Values)-1]...)
		offset += cfg.Duration
	}
	return total, nil
}

// InputCombinations enumerates every 0/level assignment over the given
// number of inputs, in binary counting order.
func InputCombinations(numInputs int, level float64) [][]float64 {
	count := 1 << numInputs
	out := make([][]float64, 0, count)
	for mask := 0; mask < count; mask++ {
		combo := make([]float64, numInputs)
		for i := 0; i < numInputs; i++ {
			if mask&(1<<i) != 0 {
				combo[i] = level
			}
		}
		out = append(out, combo)
	}
	return out
}

// system holds the model compiled into index-based form so the
// derivative evaluation inside the integrator loop does no name lookups.
type system struct {
	names    []string
	index    map[string]int
	deltas   []float64 // 0 for inputs
	isInput  []bool
	inputIdx []int
	inputs   []float64
	genes    []compiledGene
}

type compiledGene struct {
	alpha      float64
	logic      grn.LogicType
	products   []int
	regulators []compiledRegulator
}

type compiledRegulator struct {
	index int
	kind  grn.RegulationType
	kd    float64
	n     float64
}

func newSystem(model *grn.Network, inputs []float64) (*system, error) {
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("model not simulatable: %w", err)
	}
	sys := &system{
		names: model.SpeciesNames(),
		index: make(map[string]int, len(model.Species)),
	}
	for i, name := range sys.names {
		sys.index[name] = i
	}
	sys.deltas = make([]float64, len(sys.names))
	sys.isInput = make([]bool, len(sys.names))
	for i, s := range model.Species {
		if s.Delta != nil {
			sys.deltas[i] = *s.Delta
		}
	}
	for _, name := range model.InputSpeciesNames {
		idx := sys.index[name]
		sys.isInput[idx] = true
		sys.inputIdx = append(sys.inputIdx, idx)
	}
	if err := sys.setInputs(inputs); err != nil {
		return nil, err
	}

	for _, g := range model.Genes {
		cg := compiledGene{alpha: g.Alpha, logic: g.Logic}
		for _, p := range g.Products {
			cg.products = append(cg.products, sys.index[p.Name])
		}
		for _, r := range g.Regulators {
			cg.regulators = append(cg.regulators, compiledRegulator{
				index: sys.index[r.Name],
				kind:  r.Type,
				kd:    r.Kd,
				n:     r.N,
			})
		}
		sys.genes = append(sys.genes, cg)
	}
	return sys, nil
}

func (sys *system) setInputs(levels []float64) error {
	if len(levels) != len(sys.inputIdx) {
		return fmt.Errorf("expected %d input levels, got %d", len(sys.inputIdx), len(levels))
	}
	sys.inputs = append(sys.inputs[:0], levels...)
	return nil
}

func (sys *system) initialState() []float64 {
	state := make([]float64, len(sys.names))
	sys.applyInputs(state)
	return state
}

// applyInputs clamps input species to their driven levels.
func (sys *system) applyInputs(state []float64) {
	for i, idx := range sys.inputIdx {
		state[idx] = sys.inputs[i]
	}
}

// derivatives evaluates dx/dt: gene production terms via Hill kinetics
// minus first-order degradation. Input species are externally driven and
// have zero derivative.
func (sys *system) derivatives(state, out []float64) {
	for i := range out {
		out[i] = 0
	}
	for _, g := range sys.genes {
		activation := 1.0
		if g.logic == grn.LogicOr {
			activation = 0.0
		}
		for _, r := range g.regulators {
			x := math.Max(state[r.index], 0)
			xn := math.Pow(x, r.n)
			kdn := math.Pow(r.kd, r.n)
			term := xn / (kdn + xn)
			if r.kind == grn.Inhibition {
				term = kdn / (kdn + xn)
			}
			if g.logic == grn.LogicOr {
				// Probabilistic sum: independent activation events.
				activation = activation + term - activation*term
			} else {
				activation *= term
			}
		}
		for _, p := range g.products {
			out[p] += g.alpha * activation
		}
	}
	for i := range out {
		if sys.isInput[i] {
			out[i] = 0
			continue
		}
		out[i] -= sys.deltas[i] * state[i]
	}
}

// run integrates with classic fixed-step RK4 and samples every step.
func (sys *system) run(state []float64, tOffset float64, cfg Config) *Result {
	if cfg.Step <= 0 {
		cfg.Step = DefaultConfig().Step
	}
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultConfig().Duration
	}
	steps := int(math.Ceil(cfg.Duration / cfg.Step))

	dim := len(state)
	res := &Result{
		Species: sys.names,
		Time:    make([]float64, 0, steps+1),
		Values:  make([][]float64, 0, steps+1),
	}
	record := func(t float64, s []float64) {
		res.Time = append(res.Time, t)
		res.Values = append(res.Values, append([]float64(nil), s...))
	}
	record(tOffset, state)

	k1 := make([]float64, dim)
	k2 := make([]float64, dim)
	k3 := make([]float64, dim)
	k4 := make([]float64, dim)
	tmp := make([]float64, dim)
	cur := append([]float64(nil), state...)

	h := cfg.Step
	for i := 1; i <= steps; i++ {
		sys.derivatives(cur, k1)
		for j := range tmp {
			tmp[j] = cur[j] + h/2*k1[j]
		}
		sys.derivatives(tmp, k2)
		for j := range tmp {
			tmp[j] = cur[j] + h/2*k2[j]
		}
		sys.derivatives(tmp, k3)
		for j := range tmp {
			tmp[j] = cur[j] + h*k3[j]
		}
		sys.derivatives(tmp, k4)
		for j := range cur {
			cur[j] += h / 6 * (k1[j] + 2*k2[j] + 2*k3[j] + k4[j])
			if cur[j] < 0 {
				cur[j] = 0
			}
		}
		sys.applyInputs(cur)
		record(tOffset+float64(i)*h, cur)
	}
	return res
}
