package schedule

import (
	"errors"
	"math"
	"testing"
	"time"

	"fertilizer-advisory/internal/catalog"
	"fertilizer-advisory/internal/dosage"
)

const twoStageCatalog = `
default_crop: wheat
schedule_fallback_crop: wheat
default_requirement: {N: 40, P: 20, K: 20}
soil_thresholds:
  N: {low: 140, medium: 280, high: 560}
  P: {low: 5, medium: 10, high: 25}
  K: {low: 108, medium: 280, high: 560}
products:
  urea: {name: {en: Urea, te: యూరియా}, composition: {N: 0.46}, price_per_kg: 6}
  dap: {name: {en: DAP, te: డిఎపి}, composition: {N: 0.18, P: 0.46}, price_per_kg: 27}
  mop: {name: {en: MOP, te: ఎంఓపి}, composition: {K: 0.60}, price_per_kg: 34}
carriers: {N: urea, P: dap, K: mop}
generic_instruction: {en: Apply as recommended., te: సిఫార్సు ప్రకారం వర్తించండి.}
crops:
  - key: wheat
    name: {en: Wheat, te: గోధుమ}
    aliases: [wheat]
    schedule:
      - {key: sowing, label: {en: Sowing, te: విత్తడం}, day: 0, duration: 10}
      - {key: jointing, label: {en: Jointing, te: జాయింటింగ్}, day: 40, duration: 20}
    splits:
      N: {sowing: 0.25, jointing: 0.75}
`

var sowing = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestBuildSplitsNutrientTotals(t *testing.T) {
	c, err := catalog.Load([]byte(twoStageCatalog))
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	builder := NewBuilder(c)

	// 100 kg of N supplied as urea
	items := []dosage.LineItem{{Product: "urea", AmountKg: 100 / 0.46, Nutrient: catalog.Nitrogen}}

	got, err := builder.Build("wheat", sowing, items, 1)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if got.TotalStages != 2 || got.TotalDurationDays != 60 {
		t.Fatalf("unexpected schedule shape: %d stages, %d days", got.TotalStages, got.TotalDurationDays)
	}

	tests := []struct {
		stage      int
		amountKg   float64
		percentage string
	}{
		{stage: 0, amountKg: 54.35, percentage: "25% of total N"},
		{stage: 1, amountKg: 163.04, percentage: "75% of total N"},
	}
	for _, tt := range tests {
		fertilizers := got.Stages[tt.stage].Fertilizers
		if len(fertilizers) != 1 {
			t.Fatalf("stage %d: expected 1 fertilizer, got %d", tt.stage, len(fertilizers))
		}
		if fertilizers[0].AmountKg != tt.amountKg {
			t.Errorf("stage %d: expected %.2f kg, got %.2f", tt.stage, tt.amountKg, fertilizers[0].AmountKg)
		}
		if fertilizers[0].Percentage != tt.percentage {
			t.Errorf("stage %d: expected %q, got %q", tt.stage, tt.percentage, fertilizers[0].Percentage)
		}
	}

	if got.Stages[1].Instructions.EN != "Apply as recommended." {
		t.Errorf("expected generic instructions, got %q", got.Stages[1].Instructions.EN)
	}
}

func TestBuildPaddySchedule(t *testing.T) {
	builder := NewBuilder(catalog.Default())
	items := []dosage.LineItem{
		{Product: "urea", AmountKg: 100, Nutrient: catalog.Nitrogen},
		{Product: "dap", AmountKg: 50, Nutrient: catalog.Phosphorus},
		{Product: "mop", AmountKg: 100, Nutrient: catalog.Potassium},
	}

	got, err := builder.Build("వరి", sowing, items, 2)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if got.CropKey != "paddy" || got.Crop != "వరి" {
		t.Errorf("unexpected crop identity: %s / %s", got.CropKey, got.Crop)
	}
	if got.TotalStages != 5 || len(got.Stages) != 5 {
		t.Fatalf("expected 5 stages, got %d", got.TotalStages)
	}
	if got.TotalDurationDays != 95 {
		t.Errorf("expected total duration 95, got %d", got.TotalDurationDays)
	}
	if got.SowingDateFormatted != "Jun 01, 2024" {
		t.Errorf("unexpected sowing date format: %q", got.SowingDateFormatted)
	}

	basal := got.Stages[0]
	if basal.StageName != "basal" || basal.ApplicationDate != "2024-06-01" {
		t.Errorf("unexpected basal stage: %s on %s", basal.StageName, basal.ApplicationDate)
	}
	if len(basal.Fertilizers) != 3 {
		t.Fatalf("expected N, P and K at basal, got %d fertilizers", len(basal.Fertilizers))
	}
	order := []catalog.Nutrient{catalog.Nitrogen, catalog.Phosphorus, catalog.Potassium}
	for i, n := range order {
		if basal.Fertilizers[i].Nutrient != n {
			t.Errorf("basal fertilizer %d: expected %s, got %s", i, n, basal.Fertilizers[i].Nutrient)
		}
	}
	// N total is 46 from urea plus 9 from DAP
	if basal.Fertilizers[0].AmountKg != 29.89 || basal.Fertilizers[0].AmountPerAcre != 14.95 {
		t.Errorf("unexpected basal urea: %+v", basal.Fertilizers[0])
	}
	if basal.Fertilizers[1].AmountKg != 50 || basal.Fertilizers[1].Percentage != "100% of total P" {
		t.Errorf("unexpected basal DAP: %+v", basal.Fertilizers[1])
	}
	if basal.Fertilizers[2].AmountKg != 50 || basal.Fertilizers[2].AmountPerAcre != 25 {
		t.Errorf("unexpected basal MOP: %+v", basal.Fertilizers[2])
	}

	tillering := got.Stages[1]
	if tillering.ApplicationDate != "2024-06-16" || tillering.ApplicationDateFormatted != "Jun 16, 2024" {
		t.Errorf("unexpected tillering date: %s / %s", tillering.ApplicationDate, tillering.ApplicationDateFormatted)
	}
	if len(tillering.Fertilizers) != 1 || tillering.Fertilizers[0].Product != "urea" {
		t.Errorf("expected only urea at tillering, got %+v", tillering.Fertilizers)
	}
	if tillering.Instructions.TE == "" || tillering.Instructions.EN == "" {
		t.Errorf("expected bilingual instructions")
	}

	grainFilling := got.Stages[4]
	if grainFilling.Fertilizers == nil || len(grainFilling.Fertilizers) != 0 {
		t.Errorf("expected empty fertilizer list at grain filling, got %v", grainFilling.Fertilizers)
	}
}

func TestBuildCropNormalization(t *testing.T) {
	builder := NewBuilder(catalog.Default())
	items := []dosage.LineItem{{Product: "urea", AmountKg: 100}}

	tests := []struct {
		name     string
		crop     string
		expected catalog.CropKey
	}{
		{name: "telugu paddy", crop: "వరి", expected: "paddy"},
		{name: "english cotton", crop: "Cotton", expected: "cotton"},
		{name: "maize variant", crop: "Hybrid Maize", expected: "maize"},
		{name: "corn alias", crop: "corn", expected: "maize"},
		{name: "crop without schedule", crop: "groundnut", expected: "paddy"},
		{name: "unknown crop", crop: "sugarcane", expected: "paddy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := builder.Build(tt.crop, sowing, items, 1)
			if err != nil {
				t.Fatalf("Build returned error: %v", err)
			}
			if got.CropKey != tt.expected {
				t.Errorf("Build(%q) crop key = %s, expected %s", tt.crop, got.CropKey, tt.expected)
			}
		})
	}
}

func TestBuildRejectsNonPositiveArea(t *testing.T) {
	builder := NewBuilder(catalog.Default())
	for _, area := range []float64{0, -1.5} {
		if _, err := builder.Build("paddy", sowing, nil, area); !errors.Is(err, ErrInvalidArea) {
			t.Errorf("area %v: expected ErrInvalidArea, got %v", area, err)
		}
	}
}

func TestNutrientTotals(t *testing.T) {
	builder := NewBuilder(catalog.Default())
	items := []dosage.LineItem{
		{Product: "urea", AmountKg: 100},
		{Product: "complex_10_26_26", AmountKg: 50},
		{Product: "unknown", AmountKg: 500},
	}

	got := builder.NutrientTotals(items)
	expected := catalog.NPK{N: 51, P: 13, K: 13}
	for _, n := range catalog.Nutrients {
		if math.Abs(got.Get(n)-expected.Get(n)) > 1e-9 {
			t.Errorf("%s total = %f, expected %f", n, got.Get(n), expected.Get(n))
		}
	}
}
