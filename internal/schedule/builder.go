package schedule

import (
	"errors"
	"fmt"
	"math"
	"time"

	"fertilizer-advisory/internal/catalog"
	"fertilizer-advisory/internal/dosage"
)

// ErrInvalidArea is returned when the sown area is not positive
var ErrInvalidArea = errors.New("area sown must be greater than zero")

const (
	dateLayout          = "2006-01-02"
	formattedDateLayout = "Jan 02, 2006"
)

// StageFertilizer is the share of one nutrient applied at a stage
type StageFertilizer struct {
	Product       catalog.ProductKey `json:"type"`
	Name          catalog.Text       `json:"name"`
	AmountKg      float64            `json:"amount_kg"`
	AmountPerAcre float64            `json:"amount_per_acre"`
	Nutrient      catalog.Nutrient   `json:"nutrient"`
	SharePercent  float64            `json:"share_percent"`
	Percentage    string             `json:"percentage"`
}

// StageApplication is one stage of the application calendar
type StageApplication struct {
	StageName                string            `json:"stage_name"`
	Label                    catalog.Text      `json:"label"`
	Icon                     string            `json:"icon"`
	DaysAfterSowing          int               `json:"days_after_sowing"`
	DurationDays             int               `json:"duration_days"`
	ApplicationDate          string            `json:"application_date"`
	ApplicationDateFormatted string            `json:"application_date_formatted"`
	Fertilizers              []StageFertilizer `json:"fertilizers"`
	Instructions             catalog.Text      `json:"instructions"`
}

// Schedule splits the season dosage across a crop's application stages
type Schedule struct {
	Crop                string             `json:"crop"`
	CropKey             catalog.CropKey    `json:"crop_key"`
	SowingDate          string             `json:"sowing_date"`
	SowingDateFormatted string             `json:"sowing_date_formatted"`
	TotalDurationDays   int                `json:"total_duration_days"`
	AreaSown            float64            `json:"area_sown"`
	Stages              []StageApplication `json:"stages"`
	TotalStages         int                `json:"total_stages"`
}

// Builder produces stage-wise application calendars
type Builder struct {
	catalog *catalog.Catalog
}

// NewBuilder creates a schedule builder over the crop catalog
func NewBuilder(c *catalog.Catalog) *Builder {
	return &Builder{catalog: c}
}

// Build splits the nutrient content of items across the crop's schedule.
// Crops without a schedule of their own use the catalog's fallback crop.
// Stage amounts are expressed in each nutrient's carrier product, whatever
// product supplied the season total.
func (b *Builder) Build(cropName string, sowingDate time.Time, items []dosage.LineItem, areaSown float64) (*Schedule, error) {
	if areaSown <= 0 {
		return nil, ErrInvalidArea
	}

	profile := b.profileFor(cropName)
	if profile == nil || !profile.HasSchedule() {
		return nil, fmt.Errorf("no application schedule for crop %q", cropName)
	}

	totals := b.NutrientTotals(items)

	stages := make([]StageApplication, 0, len(profile.Schedule))
	for _, stage := range profile.Schedule {
		fertilizers := make([]StageFertilizer, 0, len(catalog.Nutrients))
		for _, n := range catalog.Nutrients {
			ratio, ok := profile.Split(n, stage.Key)
			if !ok {
				continue
			}
			nutrientKg := totals.Get(n) * ratio
			if nutrientKg <= 0 {
				continue
			}

			carrier, ok := b.catalog.Carrier(n)
			if !ok {
				return nil, fmt.Errorf("no carrier product for nutrient %s", n)
			}
			amount := nutrientKg / carrier.Fraction(n)

			fertilizers = append(fertilizers, StageFertilizer{
				Product:       carrier.Key,
				Name:          carrier.Name,
				AmountKg:      round2(amount),
				AmountPerAcre: round2(dosage.PerAcre(amount, areaSown)),
				Nutrient:      n,
				SharePercent:  round2(ratio * 100),
				Percentage:    fmt.Sprintf("%.0f%% of total %s", ratio*100, n),
			})
		}

		applicationDate := sowingDate.AddDate(0, 0, stage.Day)
		stages = append(stages, StageApplication{
			StageName:                stage.Key,
			Label:                    stage.Label,
			Icon:                     stage.Icon,
			DaysAfterSowing:          stage.Day,
			DurationDays:             stage.Duration,
			ApplicationDate:          applicationDate.Format(dateLayout),
			ApplicationDateFormatted: applicationDate.Format(formattedDateLayout),
			Fertilizers:              fertilizers,
			Instructions:             b.catalog.Instruction(stage.Key),
		})
	}

	last := profile.Schedule[len(profile.Schedule)-1]
	return &Schedule{
		Crop:                cropName,
		CropKey:             profile.Key,
		SowingDate:          sowingDate.Format(dateLayout),
		SowingDateFormatted: sowingDate.Format(formattedDateLayout),
		TotalDurationDays:   last.Day + last.Duration,
		AreaSown:            areaSown,
		Stages:              stages,
		TotalStages:         len(stages),
	}, nil
}

// NutrientTotals reverses each line item's product composition into kg of
// N, P and K. Items with an unknown product contribute nothing.
func (b *Builder) NutrientTotals(items []dosage.LineItem) catalog.NPK {
	var totals catalog.NPK
	for _, item := range items {
		product, ok := b.catalog.Product(item.Product)
		if !ok {
			continue
		}
		totals.N += item.AmountKg * product.Fraction(catalog.Nitrogen)
		totals.P += item.AmountKg * product.Fraction(catalog.Phosphorus)
		totals.K += item.AmountKg * product.Fraction(catalog.Potassium)
	}
	return totals
}

func (b *Builder) profileFor(cropName string) *catalog.CropProfile {
	if profile, ok := b.catalog.Lookup(cropName); ok && profile.HasSchedule() {
		return profile
	}
	profile, _ := b.catalog.Crop(b.catalog.ScheduleFallbackCrop)
	return profile
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
