package reports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/grenlab/grenlin/pkg/simulation"
)

// CSVGenerator renders a trajectory as CSV: a time column followed by
// one column per species.
type CSVGenerator struct{}

// Generate writes the result time series as CSV.
func (g *CSVGenerator) Generate(result *simulation.Result) (io.Reader, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	headers := append([]string{"time"}, result.Species...)
	if err := writer.Write(headers); err != nil {
		return nil, err
	}

	for i, t := range result.Time {
		row := make([]string, 0, len(headers))
		row = append(row, strconv.FormatFloat(t, 'g', -1, 64))
		for _, v := range result.Values[i] {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf, nil
}

// JSONGenerator renders a trajectory as indented JSON.
type JSONGenerator struct{}

// Generate writes the result as JSON.
func (g *JSONGenerator) Generate(result *simulation.Result) (io.Reader, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return bytes.NewReader(data), nil
}
