package grn

import (
	"encoding/json"
	"fmt"
)

// LogicType selects how multiple regulators of a gene combine.
type LogicType string

const (
	LogicAnd LogicType = "and"
	LogicOr  LogicType = "or"
)

// RegulationType is the sign of a regulatory interaction.
type RegulationType int

const (
	Activation RegulationType = 1
	Inhibition RegulationType = -1
)

// DefaultDelta is the degradation rate assigned when a species is
// converted to a regular (non-input) species without an explicit rate.
const DefaultDelta = 0.1

// Species is a named biological entity. Delta is the degradation rate;
// it is nil exactly when the species is in the input set.
type Species struct {
	Name  string   `json:"name"`
	Delta *float64 `json:"delta,omitempty"`
}

// Regulator is one input term of a gene.
type Regulator struct {
	Name string         `json:"name"`
	Type RegulationType `json:"type"`
	Kd   float64        `json:"Kd"`
	N    float64        `json:"n"`
}

// Product names a species produced by a gene.
type Product struct {
	Name string `json:"name"`
}

// Gene is a regulatory rule: an activator function over regulators
// producing its product species under AND/OR logic.
type Gene struct {
	Alpha      float64     `json:"alpha"`
	Regulators []Regulator `json:"regulators"`
	Products   []Product   `json:"products"`
	Logic      LogicType   `json:"logic_type"`
}

// Network is the logical regulatory model consumed by the simulator.
// It knows nothing about visual state.
type Network struct {
	Species           []Species `json:"species"`
	InputSpeciesNames []string  `json:"input_species_names"`
	Genes             []*Gene   `json:"genes"`
}

// NewNetwork creates an empty model.
func NewNetwork() *Network {
	return &Network{
		Species:           make([]Species, 0),
		InputSpeciesNames: make([]string, 0),
		Genes:             make([]*Gene, 0),
	}
}

// HasSpecies reports whether a species with the given name exists.
func (n *Network) HasSpecies(name string) bool {
	for _, s := range n.Species {
		if s.Name == name {
			return true
		}
	}
	return false
}

// SpeciesNames returns all species names in declaration order.
func (n *Network) SpeciesNames() []string {
	names := make([]string, 0, len(n.Species))
	for _, s := range n.Species {
		names = append(names, s.Name)
	}
	return names
}

// IsInput reports whether the named species is in the input set.
func (n *Network) IsInput(name string) bool {
	for _, in := range n.InputSpeciesNames {
		if in == name {
			return true
		}
	}
	return false
}

// AddSpecies declares a regular species with a degradation rate.
func (n *Network) AddSpecies(name string, delta float64) error {
	if name == "" {
		return fmt.Errorf("species name cannot be empty")
	}
	if n.HasSpecies(name) {
		return fmt.Errorf("species %q already exists", name)
	}
	d := delta
	n.Species = append(n.Species, Species{Name: name, Delta: &d})
	return nil
}

// AddInputSpecies declares a species treated as an external input.
// Input species never carry a degradation rate.
func (n *Network) AddInputSpecies(name string) error {
	if name == "" {
		return fmt.Errorf("species name cannot be empty")
	}
	if n.HasSpecies(name) {
		return fmt.Errorf("species %q already exists", name)
	}
	n.Species = append(n.Species, Species{Name: name})
	n.InputSpeciesNames = append(n.InputSpeciesNames, name)
	return nil
}

// SetSpeciesInput moves a species into the input set, dropping its
// degradation rate.
func (n *Network) SetSpeciesInput(name string) error {
	idx := n.speciesIndex(name)
	if idx < 0 {
		return fmt.Errorf("species %q does not exist", name)
	}
	n.Species[idx].Delta = nil
	if !n.IsInput(name) {
		n.InputSpeciesNames = append(n.InputSpeciesNames, name)
	}
	return nil
}

// SetSpeciesRegular removes a species from the input set and assigns it
// a degradation rate.
func (n *Network) SetSpeciesRegular(name string, delta float64) error {
	idx := n.speciesIndex(name)
	if idx < 0 {
		return fmt.Errorf("species %q does not exist", name)
	}
	d := delta
	n.Species[idx].Delta = &d
	for i, in := range n.InputSpeciesNames {
		if in == name {
			n.InputSpeciesNames = append(n.InputSpeciesNames[:i], n.InputSpeciesNames[i+1:]...)
			break
		}
	}
	return nil
}

// RemoveSpecies deletes a species record and its input-set entry.
// Genes referencing the species are the caller's responsibility.
func (n *Network) RemoveSpecies(name string) {
	for i, s := range n.Species {
		if s.Name == name {
			n.Species = append(n.Species[:i], n.Species[i+1:]...)
			break
		}
	}
	for i, in := range n.InputSpeciesNames {
		if in == name {
			n.InputSpeciesNames = append(n.InputSpeciesNames[:i], n.InputSpeciesNames[i+1:]...)
			break
		}
	}
}

// AddGene appends a regulatory rule. Every regulator and product must
// reference a declared species and at least one regulator is required.
func (n *Network) AddGene(alpha float64, regulators []Regulator, products []Product, logic LogicType) (*Gene, error) {
	if len(regulators) == 0 {
		return nil, fmt.Errorf("gene requires at least one regulator")
	}
	for _, r := range regulators {
		if !n.HasSpecies(r.Name) {
			return nil, fmt.Errorf("regulator references unknown species %q", r.Name)
		}
	}
	for _, p := range products {
		if !n.HasSpecies(p.Name) {
			return nil, fmt.Errorf("product references unknown species %q", p.Name)
		}
	}
	g := &Gene{
		Alpha:      alpha,
		Regulators: append([]Regulator(nil), regulators...),
		Products:   append([]Product(nil), products...),
		Logic:      logic,
	}
	n.Genes = append(n.Genes, g)
	return g, nil
}

// RemoveGene deletes a gene record.
func (n *Network) RemoveGene(g *Gene) {
	for i, have := range n.Genes {
		if have == g {
			n.Genes = append(n.Genes[:i], n.Genes[i+1:]...)
			return
		}
	}
}

// GenesByProduct returns every gene producing the named species.
func (n *Network) GenesByProduct(name string) []*Gene {
	var out []*Gene
	for _, g := range n.Genes {
		for _, p := range g.Products {
			if p.Name == name {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// Validate checks the model invariants: unique species names, the input
// set being a subset of species, input/delta exclusivity, and genes
// being non-empty with resolvable references.
func (n *Network) Validate() error {
	seen := make(map[string]bool, len(n.Species))
	for _, s := range n.Species {
		if seen[s.Name] {
			return fmt.Errorf("duplicate species %q", s.Name)
		}
		seen[s.Name] = true
	}
	for _, in := range n.InputSpeciesNames {
		if !seen[in] {
			return fmt.Errorf("input set references unknown species %q", in)
		}
	}
	for _, s := range n.Species {
		if n.IsInput(s.Name) && s.Delta != nil {
			return fmt.Errorf("input species %q carries a degradation rate", s.Name)
		}
		if !n.IsInput(s.Name) && s.Delta == nil {
			return fmt.Errorf("species %q has no degradation rate", s.Name)
		}
	}
	for _, g := range n.Genes {
		if len(g.Regulators) == 0 {
			return fmt.Errorf("gene producing %v has no regulators", g.Products)
		}
		for _, r := range g.Regulators {
			if !seen[r.Name] {
				return fmt.Errorf("regulator references unknown species %q", r.Name)
			}
		}
		for _, p := range g.Products {
			if !seen[p.Name] {
				return fmt.Errorf("product references unknown species %q", p.Name)
			}
		}
	}
	return nil
}

func (n *Network) speciesIndex(name string) int {
	for i, s := range n.Species {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Dump renders a human-readable view of the model state for inspection.
// The output is not consumed back in.
func (n *Network) Dump() string {
	species, _ := json.MarshalIndent(n.Species, "", "  ")
	inputs, _ := json.MarshalIndent(n.InputSpeciesNames, "", "  ")
	genes, _ := json.MarshalIndent(n.Genes, "", "  ")
	return fmt.Sprintf("Species:\n%s\n\nInput Species:\n%s\n\nGenes:\n%s", species, inputs, genes)
}
