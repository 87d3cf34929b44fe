package reports

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"testing"

	"github.com/grenlab/grenlin/pkg/simulation"
)

func sampleResult() *simulation.Result {
	return &simulation.Result{
		Species: []string{"sig", "y"},
		Time:    []float64{0, 0.5, 1},
		Values: [][]float64{
			{10, 0},
			{10, 2.5},
			{10, 4.75},
		},
	}
}

func TestCSVGenerator(t *testing.T) {
	gen, ok := ForFormat(FormatCSV)
	if !ok {
		t.Fatal("Expected generator for csv format")
	}
	r, err := gen.Generate(sampleResult())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("Expected header plus 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "time" || rows[0][1] != "sig" || rows[0][2] != "y" {
		t.Errorf("Expected header [time sig y], got %v", rows[0])
	}
	if rows[2][0] != "0.5" || rows[2][2] != "2.5" {
		t.Errorf("Expected row [0.5 10 2.5], got %v", rows[2])
	}
}

func TestJSONGenerator(t *testing.T) {
	gen, ok := ForFormat(FormatJSON)
	if !ok {
		t.Fatal("Expected generator for json format")
	}
	r, err := gen.Generate(sampleResult())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	var decoded simulation.Result
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(decoded.Species) != 2 || len(decoded.Time) != 3 {
		t.Errorf("Expected 2 species and 3 time points, got %d and %d",
			len(decoded.Species), len(decoded.Time))
	}
	if decoded.Values[1][1] != 2.5 {
		t.Errorf("Expected value 2.5, got %g", decoded.Values[1][1])
	}
}

func TestForFormatUnknown(t *testing.T) {
	if _, ok := ForFormat("xml"); ok {
		t.Error("Expected no generator for unknown format")
	}
}
