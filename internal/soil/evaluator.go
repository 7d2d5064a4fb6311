package soil

import "fertilizer-advisory/internal/catalog"

// Snapshot holds the soil parameters used for one recommendation
type Snapshot struct {
	N  float64 `json:"N"`
	P  float64 `json:"P"`
	K  float64 `json:"K"`
	PH float64 `json:"pH"`
	OC float64 `json:"OC"`
}

// Get returns the snapshot value of a nutrient
func (s Snapshot) Get(n catalog.Nutrient) float64 {
	switch n {
	case catalog.Nitrogen:
		return s.N
	case catalog.Phosphorus:
		return s.P
	case catalog.Potassium:
		return s.K
	}
	return 0
}

// DefaultSnapshot stands in for per-location soil sampling, which is not
// available yet. Values are kg/ha except pH and organic carbon (%).
var DefaultSnapshot = Snapshot{N: 250, P: 15, K: 150, PH: 6.5, OC: 0.5}

// Evaluator supplies soil parameters for a location
type Evaluator interface {
	Evaluate(district, mandal string) Snapshot
}

// StaticEvaluator returns the same snapshot for every location
type StaticEvaluator struct {
	Snapshot Snapshot
}

// NewDefaultEvaluator returns an evaluator backed by DefaultSnapshot
func NewDefaultEvaluator() *StaticEvaluator {
	return &StaticEvaluator{Snapshot: DefaultSnapshot}
}

// Evaluate returns a fresh copy of the configured snapshot
func (e *StaticEvaluator) Evaluate(district, mandal string) Snapshot {
	return e.Snapshot
}

// Deficient reports whether a nutrient is strictly below its medium threshold
func Deficient(s Snapshot, thresholds catalog.SoilThresholds, n catalog.Nutrient) bool {
	return s.Get(n) < thresholds.For(n).Medium
}
