package dosage

import (
	"errors"
	"fmt"
	"math"

	"fertilizer-advisory/internal/catalog"
	"fertilizer-advisory/internal/soil"
)

// ErrInvalidArea is returned when the sown area is not positive
var ErrInvalidArea = errors.New("area sown must be greater than zero")

// LineItem is one fertilizer product to apply for the season
type LineItem struct {
	Product       catalog.ProductKey `json:"type"`
	Name          catalog.Text       `json:"name"`
	AmountKg      float64            `json:"amount_kg"`
	AmountPerAcre float64            `json:"amount_per_acre"`
	Timing        string             `json:"timing"`
	Cost          float64            `json:"cost"`
	Nutrient      catalog.Nutrient   `json:"nutrient"`
}

// Plan is the full single-shot dosage for a field
type Plan struct {
	Items     []LineItem `json:"fertilizers"`
	TotalCost float64    `json:"total_cost"`
}

// Calculator turns nutrient deficiencies into product quantities and cost
type Calculator struct {
	catalog *catalog.Catalog
}

// NewCalculator creates a dosage calculator over the crop catalog
func NewCalculator(c *catalog.Catalog) *Calculator {
	return &Calculator{catalog: c}
}

// Compute returns line items for each deficient nutrient in N, P, K order.
// A nil profile or a stage without a defined requirement uses the catalog's
// default per-acre requirement.
func (c *Calculator) Compute(profile *catalog.CropProfile, stage string, snapshot soil.Snapshot, areaSown float64) (Plan, error) {
	if areaSown <= 0 {
		return Plan{}, ErrInvalidArea
	}

	requirement := c.catalog.DefaultRequirement
	if profile != nil {
		if req, ok := profile.Requirement(stage); ok {
			requirement = req
		}
	}

	plan := Plan{Items: make([]LineItem, 0, len(catalog.Nutrients))}
	var totalCost float64

	for _, n := range catalog.Nutrients {
		if !soil.Deficient(snapshot, c.catalog.SoilThresholds, n) {
			continue
		}

		product, ok := c.catalog.Carrier(n)
		if !ok {
			return Plan{}, fmt.Errorf("no carrier product for nutrient %s", n)
		}

		nutrientKg := requirement.Get(n) * areaSown
		amount := ProductWeight(nutrientKg, product.Fraction(n)*100)
		cost := amount * product.PricePerKg

		plan.Items = append(plan.Items, LineItem{
			Product:       product.Key,
			Name:          product.Name,
			AmountKg:      round2(amount),
			AmountPerAcre: round2(PerAcre(amount, areaSown)),
			Timing:        timing(n, stage),
			Cost:          round2(cost),
			Nutrient:      n,
		})
		totalCost += cost
	}

	plan.TotalCost = round2(totalCost)
	return plan, nil
}

// ProductWeight converts kg of nutrient into kg of product with the given nutrient percentage
func ProductWeight(nutrientKg, percent float64) float64 {
	return nutrientKg * 100 / percent
}

// PerAcre divides an absolute amount by the sown area
func PerAcre(amountKg, areaSown float64) float64 {
	return amountKg / areaSown
}

func timing(n catalog.Nutrient, stage string) string {
	switch {
	case n == catalog.Nitrogen && stage == "vegetative":
		return "Immediate"
	case n == catalog.Phosphorus && stage == "vegetative":
		return "Basal application"
	default:
		return fmt.Sprintf("During %s stage", stage)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
