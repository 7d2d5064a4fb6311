package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fertilizer-advisory/internal/catalog"
	"fertilizer-advisory/internal/dosage"
	"fertilizer-advisory/internal/growth"
	"fertilizer-advisory/internal/schedule"
	"fertilizer-advisory/internal/soil"
	"fertilizer-advisory/internal/weather"
)

// ErrInvalidInput is returned when a request fails basic validation
var ErrInvalidInput = errors.New("invalid input")

const (
	dateLayout            = "2006-01-02"
	expectedYieldIncrease = "10-15%"
	weatherUnavailable    = "Weather data unavailable - check conditions before application"
)

var baseNotes = []string{
	"Apply fertilizers in split doses for better efficiency",
	"Ensure adequate soil moisture before application",
}

// WeatherService supplies current conditions and forecasts for a location
type WeatherService interface {
	CurrentWeather(ctx context.Context, district, mandal string) (weather.Snapshot, error)
	Forecast(ctx context.Context, district, mandal string) ([]weather.ForecastDay, error)
}

// ScheduleBuilder splits a season dosage into a stage calendar
type ScheduleBuilder interface {
	Build(cropName string, sowingDate time.Time, items []dosage.LineItem, areaSown float64) (*schedule.Schedule, error)
}

// RecommendationRequest is the engine input
type RecommendationRequest struct {
	CropName       string
	Variety        *string
	SowingDate     time.Time
	District       string
	Mandal         string
	AreaSown       float64
	IncludeWeather bool
}

// Validate checks the minimal preconditions of the engine
func (r RecommendationRequest) Validate() error {
	if r.CropName == "" {
		return fmt.Errorf("%w: crop name is required", ErrInvalidInput)
	}
	if r.SowingDate.IsZero() {
		return fmt.Errorf("%w: sowing date is required", ErrInvalidInput)
	}
	if r.AreaSown <= 0 {
		return fmt.Errorf("%w: area sown must be greater than zero", ErrInvalidInput)
	}
	return nil
}

// ParseSowingDate parses a YYYY-MM-DD date
func ParseSowingDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: sowing date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return t, nil
}

// Degradation names an optional section that was dropped or substituted
type Degradation struct {
	Section string `json:"section"`
	Reason  string `json:"reason"`
}

// OrganicRecommendations groups organic alternatives for the crop
type OrganicRecommendations struct {
	Manures        []catalog.OrganicOption `json:"manures"`
	BioFertilizers []catalog.OrganicOption `json:"bio_fertilizers"`
	GreenManures   []catalog.OrganicOption `json:"green_manures"`
}

// Recommendation is the full fertilizer advice for one field
type Recommendation struct {
	Crop                   string                  `json:"crop"`
	CropKey                catalog.CropKey         `json:"crop_key"`
	EnglishName            string                  `json:"english_name"`
	TeluguName             string                  `json:"telugu_name"`
	Variety                *string                 `json:"variety"`
	AreaSown               float64                 `json:"area_sown"`
	SowingDate             string                  `json:"sowing_date"`
	CurrentStage           string                  `json:"current_stage"`
	DaysAfterSowing        int                     `json:"days_after_sowing"`
	StageDescription       string                  `json:"stage_description"`
	Fertilizers            []dosage.LineItem       `json:"fertilizers"`
	TotalCost              float64                 `json:"total_cost"`
	ExpectedYieldIncrease  string                  `json:"expected_yield_increase"`
	SoilParameters         soil.Snapshot           `json:"soil_parameters"`
	Notes                  []string                `json:"notes"`
	District               string                  `json:"district"`
	Mandal                 string                  `json:"mandal"`
	Weather                *weather.Snapshot       `json:"weather"`
	WeatherAnalysis        *weather.Advisory       `json:"weather_analysis"`
	Forecast               []weather.ForecastDay   `json:"forecast"`
	StageSchedule          *schedule.Schedule      `json:"stage_schedule"`
	OrganicRecommendations *OrganicRecommendations `json:"organic_recommendations"`
	Degraded               []Degradation           `json:"degraded,omitempty"`
}

// Engine composes the stage resolver, soil evaluator, dosage calculator,
// weather advisory and schedule builder into a Recommendation
type Engine struct {
	catalog    *catalog.Catalog
	resolver   *growth.Resolver
	soil       soil.Evaluator
	calculator *dosage.Calculator
	weather    WeatherService
	schedules  ScheduleBuilder
	logger     *slog.Logger
	now        func() time.Time
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithNow overrides the clock used to resolve the growth stage
func WithNow(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithScheduleBuilder overrides the stage schedule builder
func WithScheduleBuilder(b ScheduleBuilder) EngineOption {
	return func(e *Engine) { e.schedules = b }
}

// NewEngine creates a recommendation engine. A nil weather service disables
// the weather overlay.
func NewEngine(c *catalog.Catalog, evaluator soil.Evaluator, weatherService WeatherService, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		catalog:    c,
		resolver:   growth.NewResolver(c),
		soil:       evaluator,
		calculator: dosage.NewCalculator(c),
		weather:    weatherService,
		schedules:  schedule.NewBuilder(c),
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the reference table the engine was built with
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// BuildRecommendation assembles a recommendation. Only an invalid request
// fails; weather and schedule problems degrade the corresponding sections.
func (e *Engine) BuildRecommendation(ctx context.Context, req RecommendationRequest) (*Recommendation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	stage := e.resolver.Resolve(req.CropName, req.SowingDate, e.now())
	snapshot := e.soil.Evaluate(req.District, req.Mandal)

	profile, ok := e.catalog.Lookup(req.CropName)
	if !ok {
		profile, _ = e.catalog.Crop(e.catalog.DefaultCrop)
	}

	plan, err := e.calculator.Compute(profile, stage.Name, snapshot, req.AreaSown)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dosage: %w", err)
	}

	rec := &Recommendation{
		Crop:                  req.CropName,
		CropKey:               profile.Key,
		EnglishName:           profile.Name.EN,
		TeluguName:            profile.Name.TE,
		Variety:               req.Variety,
		AreaSown:              req.AreaSown,
		SowingDate:            req.SowingDate.Format(dateLayout),
		CurrentStage:          stage.Name,
		DaysAfterSowing:       stage.DaysAfterSowing,
		StageDescription:      stage.Description,
		Fertilizers:           plan.Items,
		TotalCost:             plan.TotalCost,
		ExpectedYieldIncrease: expectedYieldIncrease,
		SoilParameters:        snapshot,
		Notes:                 append([]string(nil), baseNotes...),
		District:              req.District,
		Mandal:                req.Mandal,
	}

	if req.IncludeWeather && e.weather != nil {
		if err := e.attachWeather(ctx, rec); err != nil {
			e.logger.Warn("weather unavailable for recommendation",
				"district", req.District,
				"mandal", req.Mandal,
				"error", err.Error(),
			)
			rec.Notes = append([]string{weatherUnavailable}, rec.Notes...)
			rec.Degraded = append(rec.Degraded, Degradation{Section: "weather", Reason: err.Error()})
		}
	}

	sched, err := e.schedules.Build(profile.Name.EN, req.SowingDate, plan.Items, req.AreaSown)
	if err != nil {
		e.logger.Warn("stage schedule unavailable",
			"crop", req.CropName,
			"error", err.Error(),
		)
		rec.Degraded = append(rec.Degraded, Degradation{Section: "stage_schedule", Reason: err.Error()})
	} else {
		rec.StageSchedule = sched
	}

	rec.OrganicRecommendations = &OrganicRecommendations{
		Manures:        e.catalog.Organic.Manures,
		BioFertilizers: e.catalog.BioFertilizersFor(req.CropName, profile.Name.EN, profile.Name.TE, string(profile.Key)),
		GreenManures:   e.catalog.Organic.GreenManures,
	}

	return rec, nil
}

func (e *Engine) attachWeather(ctx context.Context, rec *Recommendation) error {
	current, err := e.weather.CurrentWeather(ctx, rec.District, rec.Mandal)
	if err != nil {
		return err
	}
	forecast, err := e.weather.Forecast(ctx, rec.District, rec.Mandal)
	if err != nil {
		return err
	}

	advisory := weather.AnalyzeForFertilizer(current, forecast)
	rec.Weather = &current
	rec.WeatherAnalysis = &advisory
	rec.Forecast = forecast
	rec.Notes = append(append([]string(nil), advisory.Notes...), rec.Notes...)

	if current.IsMock {
		rec.Degraded = append(rec.Degraded, Degradation{Section: "weather", Reason: current.FallbackReason})
	}
	return nil
}
