package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed crops.yaml
var embeddedCrops []byte

// ErrInvalidCatalog is returned when reference data violates a catalog invariant
var ErrInvalidCatalog = errors.New("invalid crop catalog")

// splitEpsilon is the tolerance for split ratios summing to 1.0
const splitEpsilon = 1e-6

// Nutrient identifies one of the tracked macronutrients
type Nutrient string

const (
	Nitrogen   Nutrient = "N"
	Phosphorus Nutrient = "P"
	Potassium  Nutrient = "K"
)

// Nutrients lists the tracked nutrients in their fixed output order
var Nutrients = []Nutrient{Nitrogen, Phosphorus, Potassium}

// CropKey is the canonical, language-neutral identifier of a crop
type CropKey string

// ProductKey identifies a fertilizer product
type ProductKey string

// Text is a user-facing label carried in both supported locales
type Text struct {
	EN string `yaml:"en" json:"en"`
	TE string `yaml:"te" json:"te"`
}

// NPK holds one value per nutrient
type NPK struct {
	N float64 `yaml:"N" json:"N"`
	P float64 `yaml:"P" json:"P"`
	K float64 `yaml:"K" json:"K"`
}

// Get returns the value for the given nutrient
func (v NPK) Get(n Nutrient) float64 {
	switch n {
	case Nitrogen:
		return v.N
	case Phosphorus:
		return v.P
	case Potassium:
		return v.K
	}
	return 0
}

// Product is a fertilizer with its nutrient composition by weight (0-1)
type Product struct {
	Key         ProductKey `yaml:"-" json:"key"`
	Name        Text       `yaml:"name" json:"name"`
	Composition NPK        `yaml:"composition" json:"composition"`
	PricePerKg  float64    `yaml:"price_per_kg" json:"price_per_kg"`
}

// Fraction returns the weight fraction of a nutrient in the product
func (p Product) Fraction(n Nutrient) float64 {
	return p.Composition.Get(n)
}

// Threshold holds the boundaries classifying soil sufficiency of one nutrient
type Threshold struct {
	Low    float64 `yaml:"low" json:"low"`
	Medium float64 `yaml:"medium" json:"medium"`
	High   float64 `yaml:"high" json:"high"`
}

// SoilThresholds holds per-nutrient sufficiency thresholds
type SoilThresholds struct {
	N Threshold `yaml:"N" json:"N"`
	P Threshold `yaml:"P" json:"P"`
	K Threshold `yaml:"K" json:"K"`
}

// For returns the threshold of the given nutrient
func (t SoilThresholds) For(n Nutrient) Threshold {
	switch n {
	case Nitrogen:
		return t.N
	case Phosphorus:
		return t.P
	default:
		return t.K
	}
}

// GrowthStage is a phenological stage with an inclusive day-after-sowing range
type GrowthStage struct {
	Key         string `yaml:"key"`
	Label       Text   `yaml:"label"`
	Days        []int  `yaml:"days"`
	Description string `yaml:"description"`
	Requirement NPK    `yaml:"requirement"`
}

// Contains reports whether the day falls within the stage range
func (s GrowthStage) Contains(day int) bool {
	return day >= s.Days[0] && day <= s.Days[1]
}

// ScheduleStage is one application window of the split schedule
type ScheduleStage struct {
	Key      string `yaml:"key"`
	Label    Text   `yaml:"label"`
	Day      int    `yaml:"day"`
	Duration int    `yaml:"duration"`
	Icon     string `yaml:"icon"`
}

// CropProfile describes a crop's stages, nutrient requirements and split ratios
type CropProfile struct {
	Key          CropKey                        `yaml:"key"`
	Name         Text                           `yaml:"name"`
	Aliases      []string                       `yaml:"aliases"`
	GrowthStages []GrowthStage                  `yaml:"growth_stages"`
	Schedule     []ScheduleStage                `yaml:"schedule"`
	Splits       map[Nutrient]map[string]float64 `yaml:"splits"`
}

// Requirement returns the per-acre nutrient requirement for a growth stage
func (c *CropProfile) Requirement(stage string) (NPK, bool) {
	for _, s := range c.GrowthStages {
		if s.Key == stage {
			return s.Requirement, true
		}
	}
	return NPK{}, false
}

// HasSchedule reports whether the crop defines a split application schedule
func (c *CropProfile) HasSchedule() bool {
	return len(c.Schedule) > 0
}

// Split returns the share of a nutrient's season total applied at a schedule stage
func (c *CropProfile) Split(n Nutrient, stage string) (float64, bool) {
	ratio, ok := c.Splits[n][stage]
	return ratio, ok
}

// OrganicOption is a manure, bio-fertilizer or green manure suggestion
type OrganicOption struct {
	Name        Text     `yaml:"name" json:"name"`
	RatePerAcre string   `yaml:"rate_per_acre" json:"rate_per_acre,omitempty"`
	Season      string   `yaml:"season" json:"season,omitempty"`
	Crops       []string `yaml:"crops" json:"crops,omitempty"`
}

// OrganicOptions groups organic and biological alternatives
type OrganicOptions struct {
	Manures        []OrganicOption `yaml:"manures" json:"manures"`
	BioFertilizers []OrganicOption `yaml:"bio_fertilizers" json:"bio_fertilizers"`
	GreenManures   []OrganicOption `yaml:"green_manures" json:"green_manures"`
}

// Catalog is the immutable crop reference table
type Catalog struct {
	DefaultCrop          CropKey                 `yaml:"default_crop"`
	ScheduleFallbackCrop CropKey                 `yaml:"schedule_fallback_crop"`
	DefaultRequirement   NPK                     `yaml:"default_requirement"`
	SoilThresholds       SoilThresholds          `yaml:"soil_thresholds"`
	Products             map[ProductKey]Product  `yaml:"products"`
	Carriers             map[Nutrient]ProductKey `yaml:"carriers"`
	GenericInstruction   Text                    `yaml:"generic_instruction"`
	StageInstructions    map[string]Text         `yaml:"stage_instructions"`
	Crops                []CropProfile           `yaml:"crops"`
	Organic              OrganicOptions          `yaml:"organic"`
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the embedded catalog. It panics if the embedded data is invalid.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(embeddedCrops)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load parses and validates a YAML catalog
func Load(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	for key, p := range c.Products {
		p.Key = key
		c.Products[key] = p
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	for key, p := range c.Products {
		if p.Composition.N <= 0 && p.Composition.P <= 0 && p.Composition.K <= 0 {
			return fmt.Errorf("%w: product %s has no nutrient content", ErrInvalidCatalog, key)
		}
	}
	for _, n := range Nutrients {
		carrier, ok := c.Carrier(n)
		if !ok {
			return fmt.Errorf("%w: no carrier product for %s", ErrInvalidCatalog, n)
		}
		if carrier.Fraction(n) <= 0 {
			return fmt.Errorf("%w: carrier %s has no %s", ErrInvalidCatalog, carrier.Key, n)
		}
	}

	for i := range c.Crops {
		crop := &c.Crops[i]
		for _, s := range crop.GrowthStages {
			if len(s.Days) != 2 || s.Days[0] > s.Days[1] {
				return fmt.Errorf("%w: crop %s stage %s has a bad day range", ErrInvalidCatalog, crop.Key, s.Key)
			}
		}
		stages := make(map[string]bool, len(crop.Schedule))
		for _, s := range crop.Schedule {
			stages[s.Key] = true
		}
		for n, split := range crop.Splits {
			var sum float64
			for stage, ratio := range split {
				if !stages[stage] {
					return fmt.Errorf("%w: crop %s splits %s at unknown stage %s", ErrInvalidCatalog, crop.Key, n, stage)
				}
				sum += ratio
			}
			if math.Abs(sum-1.0) > splitEpsilon {
				return fmt.Errorf("%w: crop %s %s splits sum to %.4f", ErrInvalidCatalog, crop.Key, n, sum)
			}
		}
	}

	if _, ok := c.Crop(c.DefaultCrop); !ok {
		return fmt.Errorf("%w: default crop %s not defined", ErrInvalidCatalog, c.DefaultCrop)
	}
	fallback, ok := c.Crop(c.ScheduleFallbackCrop)
	if !ok || !fallback.HasSchedule() {
		return fmt.Errorf("%w: schedule fallback crop %s has no schedule", ErrInvalidCatalog, c.ScheduleFallbackCrop)
	}
	return nil
}

// Crop returns the profile with the given canonical key
func (c *Catalog) Crop(key CropKey) (*CropProfile, bool) {
	for i := range c.Crops {
		if c.Crops[i].Key == key {
			return &c.Crops[i], true
		}
	}
	return nil, false
}

// Lookup resolves a free-text crop name in either locale. Exact matches on the
// key, display names or aliases win; otherwise the first crop with an alias
// contained in the name is returned.
func (c *Catalog) Lookup(name string) (*CropProfile, bool) {
	needle := normalize(name)
	if needle == "" {
		return nil, false
	}
	for i := range c.Crops {
		crop := &c.Crops[i]
		if needle == normalize(string(crop.Key)) || needle == normalize(crop.Name.EN) || needle == normalize(crop.Name.TE) {
			return crop, true
		}
		for _, alias := range crop.Aliases {
			if needle == normalize(alias) {
				return crop, true
			}
		}
	}
	for i := range c.Crops {
		for _, alias := range c.Crops[i].Aliases {
			if strings.Contains(needle, normalize(alias)) {
				return &c.Crops[i], true
			}
		}
	}
	return nil, false
}

// Product returns a fertilizer product by key
func (c *Catalog) Product(key ProductKey) (Product, bool) {
	p, ok := c.Products[key]
	return p, ok
}

// Carrier returns the canonical product used to supply a nutrient
func (c *Catalog) Carrier(n Nutrient) (Product, bool) {
	key, ok := c.Carriers[n]
	if !ok {
		return Product{}, false
	}
	return c.Product(key)
}

// Instruction returns the application instructions for a schedule stage
func (c *Catalog) Instruction(stage string) Text {
	if text, ok := c.StageInstructions[stage]; ok {
		return text
	}
	return c.GenericInstruction
}

// BioFertilizersFor returns the bio-fertilizers applicable to any of the given crop names
func (c *Catalog) BioFertilizersFor(names ...string) []OrganicOption {
	result := make([]OrganicOption, 0, len(c.Organic.BioFertilizers))
	for _, bf := range c.Organic.BioFertilizers {
		if appliesTo(bf.Crops, names) {
			result = append(result, bf)
		}
	}
	return result
}

func appliesTo(crops, names []string) bool {
	for _, crop := range crops {
		if crop == "All Crops" {
			return true
		}
		for _, name := range names {
			if name != "" && strings.EqualFold(crop, name) {
				return true
			}
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
