package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"fertilizer-advisory/internal/catalog"
	"fertilizer-advisory/internal/model"
	"fertilizer-advisory/internal/repository"
	"fertilizer-advisory/internal/weather"
)

var (
	// ErrFarmerNotFound is returned when no farmer is registered with a mobile number
	ErrFarmerNotFound = errors.New("farmer not found")
	// ErrFarmerExists is returned when registering a mobile number twice
	ErrFarmerExists = errors.New("farmer already registered")
)

// HistoryLimit is the number of past recommendations returned
const HistoryLimit = 10

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// AdvisoryService defines the interface for farmer-facing advisory operations
type AdvisoryService interface {
	RegisterFarmer(input FarmerRegistration) (*model.Farmer, error)
	Recommend(ctx context.Context, mobile string, input RecommendationInput) (*Recommendation, error)
	History(mobile string) ([]HistoryEntry, error)
	Crops() ([]CropInfo, error)
	Districts() ([]string, error)
	Mandals(district string) ([]string, error)
	CurrentWeather(ctx context.Context, district, mandal string) (weather.Snapshot, error)
}

// FarmerRegistration is the input for registering a farmer
type FarmerRegistration struct {
	Mobile             string `json:"mobile" binding:"required"`
	Name               string `json:"name" binding:"required"`
	District           string `json:"district" binding:"required"`
	Mandal             string `json:"mandal"`
	LanguagePreference string `json:"language_preference"`
}

// Validate checks and normalizes the registration
func (f *FarmerRegistration) Validate() error {
	f.Mobile = strings.TrimSpace(f.Mobile)
	if !mobilePattern.MatchString(f.Mobile) {
		return fmt.Errorf("%w: mobile must be 10 digits", ErrInvalidInput)
	}
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	switch f.LanguagePreference {
	case "":
		f.LanguagePreference = "en"
	case "en", "te":
	default:
		return fmt.Errorf("%w: language_preference must be en or te", ErrInvalidInput)
	}
	return nil
}

// RecommendationInput is the transport form of a recommendation request
type RecommendationInput struct {
	CropName       string  `json:"crop_name" binding:"required"`
	Variety        *string `json:"variety"`
	SowingDate     string  `json:"sowing_date" binding:"required"`
	District       string  `json:"district" binding:"required"`
	Mandal         string  `json:"mandal" binding:"required"`
	AreaSown       float64 `json:"area_sown" binding:"required"`
	IncludeWeather *bool   `json:"include_weather"`
}

// Request validates the input and converts it into an engine request.
// Weather is included unless explicitly disabled.
func (in RecommendationInput) Request() (RecommendationRequest, error) {
	sowing, err := ParseSowingDate(in.SowingDate)
	if err != nil {
		return RecommendationRequest{}, err
	}
	req := RecommendationRequest{
		CropName:       strings.TrimSpace(in.CropName),
		Variety:        in.Variety,
		SowingDate:     sowing,
		District:       in.District,
		Mandal:         in.Mandal,
		AreaSown:       in.AreaSown,
		IncludeWeather: in.IncludeWeather == nil || *in.IncludeWeather,
	}
	if err := req.Validate(); err != nil {
		return RecommendationRequest{}, err
	}
	return req, nil
}

// HistoryEntry is a stored recommendation
type HistoryEntry struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	Recommendation json.RawMessage `json:"recommendation"`
}

// CropInfo is a selectable crop
type CropInfo struct {
	Key         catalog.CropKey `json:"key,omitempty"`
	TeluguName  string          `json:"telugu_name"`
	EnglishName string          `json:"english_name"`
}

// advisoryService implements AdvisoryService
type advisoryService struct {
	repo    repository.AdvisoryRepository
	engine  *Engine
	weather WeatherService
	logger  *slog.Logger
}

// NewAdvisoryService creates a new advisory service
func NewAdvisoryService(repo repository.AdvisoryRepository, engine *Engine, weatherService WeatherService, logger *slog.Logger) AdvisoryService {
	return &advisoryService{
		repo:    repo,
		engine:  engine,
		weather: weatherService,
		logger:  logger,
	}
}

// RegisterFarmer validates and stores a new farmer
func (s *advisoryService) RegisterFarmer(input FarmerRegistration) (*model.Farmer, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.FarmerExists(input.Mobile)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrFarmerExists
	}

	farmer := &model.Farmer{
		Mobile:             input.Mobile,
		Name:               strings.TrimSpace(input.Name),
		District:           input.District,
		Mandal:             input.Mandal,
		LanguagePreference: input.LanguagePreference,
	}
	if err := s.repo.CreateFarmer(farmer); err != nil {
		return nil, err
	}
	return farmer, nil
}

// Recommend builds a recommendation for a farmer's field and stores both
func (s *advisoryService) Recommend(ctx context.Context, mobile string, input RecommendationInput) (*Recommendation, error) {
	farmer, err := s.farmer(mobile)
	if err != nil {
		return nil, err
	}

	req, err := input.Request()
	if err != nil {
		return nil, err
	}

	rec, err := s.engine.BuildRecommendation(ctx, req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recommendation: %w", err)
	}

	field := &model.Field{
		FarmerID:   farmer.ID,
		Location:   fmt.Sprintf("%s, %s", req.Mandal, req.District),
		CropType:   req.CropName,
		Variety:    req.Variety,
		SowingDate: req.SowingDate,
		AreaSown:   req.AreaSown,
	}
	stored := &model.Recommendation{Payload: string(payload)}
	if err := s.repo.SaveRecommendation(field, stored); err != nil {
		return nil, err
	}

	s.logger.Info("recommendation stored",
		"recommendation_id", stored.PublicID,
		"farmer_id", farmer.ID,
		"crop", rec.CropKey,
		"stage", rec.CurrentStage,
		"degraded_sections", len(rec.Degraded),
	)
	return rec, nil
}

// History returns the farmer's most recent recommendations, newest first
func (s *advisoryService) History(mobile string) ([]HistoryEntry, error) {
	farmer, err := s.farmer(mobile)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.RecentRecommendations(farmer.ID, HistoryLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(stored))
	for _, r := range stored {
		entries = append(entries, HistoryEntry{
			ID:             r.PublicID,
			CreatedAt:      r.CreatedAt,
			Recommendation: json.RawMessage(r.Payload),
		})
	}
	return entries, nil
}

// Crops lists catalog crops followed by crop names only seen in farmer records
func (s *advisoryService) Crops() ([]CropInfo, error) {
	c := s.engine.Catalog()
	crops := make([]CropInfo, 0, len(c.Crops))
	for _, crop := range c.Crops {
		crops = append(crops, CropInfo{
			Key:         crop.Key,
			TeluguName:  crop.Name.TE,
			EnglishName: crop.Name.EN,
		})
	}

	recorded, err := s.repo.RecordedCropNames()
	if err != nil {
		return nil, err
	}
	for _, name := range recorded {
		if _, ok := c.Lookup(name); ok {
			continue
		}
		crops = append(crops, CropInfo{TeluguName: name, EnglishName: name})
	}
	return crops, nil
}

// Districts lists districts found in farmer records
func (s *advisoryService) Districts() ([]string, error) {
	return s.repo.Districts()
}

// Mandals lists the mandals of a district found in farmer records
func (s *advisoryService) Mandals(district string) ([]string, error) {
	if strings.TrimSpace(district) == "" {
		return nil, fmt.Errorf("%w: district is required", ErrInvalidInput)
	}
	return s.repo.Mandals(district)
}

// CurrentWeather returns current conditions for a location
func (s *advisoryService) CurrentWeather(ctx context.Context, district, mandal string) (weather.Snapshot, error) {
	if strings.TrimSpace(district) == "" || strings.TrimSpace(mandal) == "" {
		return weather.Snapshot{}, fmt.Errorf("%w: district and mandal are required", ErrInvalidInput)
	}
	return s.weather.CurrentWeather(ctx, district, mandal)
}

func (s *advisoryService) farmer(mobile string) (*model.Farmer, error) {
	farmer, err := s.repo.FindFarmerByMobile(strings.TrimSpace(mobile))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrFarmerNotFound
	}
	if err != nil {
		return nil, err
	}
	return farmer, nil
}
