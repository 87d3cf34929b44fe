package reports

import (
	"io"

	"github.com/grenlab/grenlin/pkg/simulation"
)

// Format selects the report output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Generator renders a simulation result into a report.
type Generator interface {
	Generate(result *simulation.Result) (io.Reader, error)
}

// ForFormat returns the generator for a format.
func ForFormat(f Format) (Generator, bool) {
	switch f {
	case FormatCSV:
		return &CSVGenerator{}, true
	case FormatJSON:
		return &JSONGenerator{}, true
	default:
		return nil, false
	}
}
