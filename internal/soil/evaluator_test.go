package soil

import (
	"testing"

	"fertilizer-advisory/internal/catalog"
)

func TestDeficientIsStrictAgainstMedium(t *testing.T) {
	thresholds := catalog.Default().SoilThresholds

	tests := []struct {
		name     string
		nutrient catalog.Nutrient
		value    float64
		expected bool
	}{
		{name: "N just below medium", nutrient: catalog.Nitrogen, value: 279, expected: true},
		{name: "N at medium", nutrient: catalog.Nitrogen, value: 280, expected: false},
		{name: "N just above medium", nutrient: catalog.Nitrogen, value: 281, expected: false},
		{name: "P just below medium", nutrient: catalog.Phosphorus, value: 9, expected: true},
		{name: "P at medium", nutrient: catalog.Phosphorus, value: 10, expected: false},
		{name: "P just above medium", nutrient: catalog.Phosphorus, value: 11, expected: false},
		{name: "K just below medium", nutrient: catalog.Potassium, value: 279, expected: true},
		{name: "K at medium", nutrient: catalog.Potassium, value: 280, expected: false},
		{name: "K just above medium", nutrient: catalog.Potassium, value: 281, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Snapshot
			switch tt.nutrient {
			case catalog.Nitrogen:
				s.N = tt.value
			case catalog.Phosphorus:
				s.P = tt.value
			case catalog.Potassium:
				s.K = tt.value
			}
			if got := Deficient(s, thresholds, tt.nutrient); got != tt.expected {
				t.Errorf("Deficient(%s=%v) = %v, expected %v", tt.nutrient, tt.value, got, tt.expected)
			}
		})
	}
}

func TestDefaultSnapshotDeficiencies(t *testing.T) {
	thresholds := catalog.Default().SoilThresholds
	s := NewDefaultEvaluator().Evaluate("NTR", "TIRUVURU")

	if s != DefaultSnapshot {
		t.Fatalf("expected default snapshot, got %+v", s)
	}

	expected := map[catalog.Nutrient]bool{
		catalog.Nitrogen:   true,
		catalog.Phosphorus: false,
		catalog.Potassium:  true,
	}
	for n, want := range expected {
		if got := Deficient(s, thresholds, n); got != want {
			t.Errorf("default snapshot %s deficient = %v, expected %v", n, got, want)
		}
	}
}

func TestEvaluateIgnoresLocation(t *testing.T) {
	e := NewDefaultEvaluator()

	a := e.Evaluate("NTR", "IBRAHIMPATNAM")
	b := e.Evaluate("GUNTUR", "")
	if a != b {
		t.Errorf("expected identical snapshots, got %+v and %+v", a, b)
	}
}
