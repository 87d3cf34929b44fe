package simulation

// Config controls the integration run.
type Config struct {
	// Duration is the simulated time span of a single run.
	Duration float64 `json:"duration"`
	// Step is the fixed integrator step size.
	Step float64 `json:"step"`
}

// DefaultConfig mirrors the editor's simulation panel defaults.
func DefaultConfig() Config {
	return Config{Duration: 100, Step: 0.1}
}

// Result is the time series produced by a run. Values is row-major:
// one row per time point, one column per species in Species order.
type Result struct {
	Species []string    `json:"species"`
	Time    []float64   `json:"time"`
	Values  [][]float64 `json:"values"`
}

// SeriesFor returns the trajectory of one species, or nil when the
// species is not part of the result.
func (r *Result) SeriesFor(name string) []float64 {
	col := -1
	for i, s := range r.Species {
		if s == name {
			col = i
			break
		}
	}
	if col < 0 {
		return nil
	}
	out := make([]float64, len(r.Values))
	for i, row := range r.Values {
		out[i] = row[col]
	}
	return out
}
