package growth

import (
	"time"

	"fertilizer-advisory/internal/catalog"
)

// Generic stage names used when a crop has no profile
const (
	StageNotSown    = "not_sown"
	StageVegetative = "vegetative"
	StageFlowering  = "flowering"
	StageRipening   = "ripening"
)

const (
	genericDescription  = "Growth stage"
	terminalDescription = "Maturity stage"
)

// Stage is the resolved phenological stage of a crop on a given day
type Stage struct {
	Name            string `json:"stage"`
	DaysAfterSowing int    `json:"days_after_sowing"`
	Description     string `json:"description"`
}

// Resolver maps a crop and its sowing date to the current growth stage
type Resolver struct {
	catalog *catalog.Catalog
}

// NewResolver creates a resolver backed by the crop catalog
func NewResolver(c *catalog.Catalog) *Resolver {
	return &Resolver{catalog: c}
}

// Resolve returns the stage of the crop on asOf. Crops without a profile use
// the generic three-bucket model. For profiled crops the first stage whose
// inclusive range contains the day wins; days outside every range, including
// negative ones, resolve to the terminal ripening stage.
func (r *Resolver) Resolve(cropName string, sowingDate, asOf time.Time) Stage {
	das := DaysAfterSowing(sowingDate, asOf)

	profile, ok := r.catalog.Lookup(cropName)
	if !ok || len(profile.GrowthStages) == 0 {
		return Stage{
			Name:            genericStage(das),
			DaysAfterSowing: das,
			Description:     genericDescription,
		}
	}

	for _, s := range profile.GrowthStages {
		if s.Contains(das) {
			return Stage{
				Name:            s.Key,
				DaysAfterSowing: das,
				Description:     s.Description,
			}
		}
	}

	return Stage{
		Name:            StageRipening,
		DaysAfterSowing: das,
		Description:     terminalDescription,
	}
}

// DaysAfterSowing counts whole calendar days between the two dates. The
// result is negative when asOf precedes the sowing date.
func DaysAfterSowing(sowingDate, asOf time.Time) int {
	from := civilDate(sowingDate)
	to := civilDate(asOf)
	return int(to.Sub(from).Hours() / 24)
}

func genericStage(das int) string {
	switch {
	case das < 0:
		return StageNotSown
	case das <= 30:
		return StageVegetative
	case das <= 60:
		return StageFlowering
	default:
		return StageRipening
	}
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
