package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"fertilizer-advisory/internal/catalog"
	"fertilizer-advisory/internal/model"
	"fertilizer-advisory/internal/repository"
	"fertilizer-advisory/internal/soil"
	"fertilizer-advisory/internal/weather"
)

// mockAdvisoryRepository is an in-memory implementation of AdvisoryRepository
type mockAdvisoryRepository struct {
	farmers         map[string]*model.Farmer
	fields          []model.Field
	recommendations []model.Recommendation
	cropNames       []string
	saveErr         error
}

func newMockRepository() *mockAdvisoryRepository {
	return &mockAdvisoryRepository{farmers: make(map[string]*model.Farmer)}
}

func (m *mockAdvisoryRepository) CreateFarmer(farmer *model.Farmer) error {
	farmer.ID = uint(len(m.farmers) + 1)
	m.farmers[farmer.Mobile] = farmer
	return nil
}

func (m *mockAdvisoryRepository) FarmerExists(mobile string) (bool, error) {
	_, ok := m.farmers[mobile]
	return ok, nil
}

func (m *mockAdvisoryRepository) FindFarmerByMobile(mobile string) (*model.Farmer, error) {
	farmer, ok := m.farmers[mobile]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return farmer, nil
}

func (m *mockAdvisoryRepository) SaveRecommendation(field *model.Field, recommendation *model.Recommendation) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	field.ID = uint(len(m.fields) + 1)
	m.fields = append(m.fields, *field)
	recommendation.FieldID = field.ID
	recommendation.FarmerID = field.FarmerID
	recommendation.PublicID = fmt.Sprintf("rec-%d", len(m.recommendations))
	recommendation.CreatedAt = time.Date(2024, 6, 21, 0, len(m.recommendations), 0, 0, time.UTC)
	m.recommendations = append(m.recommendations, *recommendation)
	return nil
}

func (m *mockAdvisoryRepository) RecentRecommendations(farmerID uint, limit int) ([]model.Recommendation, error) {
	var result []model.Recommendation
	for i := len(m.recommendations) - 1; i >= 0 && len(result) < limit; i-- {
		if m.recommendations[i].FarmerID == farmerID {
			result = append(result, m.recommendations[i])
		}
	}
	return result, nil
}

func (m *mockAdvisoryRepository) RecordedCropNames() ([]string, error) {
	return m.cropNames, nil
}

func (m *mockAdvisoryRepository) Districts() ([]string, error) {
	return []string{"NTR"}, nil
}

func (m *mockAdvisoryRepository) Mandals(district string) ([]string, error) {
	return []string{"A KONDURU", "TIRUVURU"}, nil
}

func newTestAdvisoryService(repo *mockAdvisoryRepository) AdvisoryService {
	now := time.Date(2024, 6, 21, 9, 0, 0, 0, time.UTC)
	weatherService := weather.NewService(nil, time.Hour, testLogger(), weather.WithClock(fixedNow(now)))
	engine := NewEngine(catalog.Default(), soil.NewDefaultEvaluator(), weatherService, testLogger(), WithNow(fixedNow(now)))
	return NewAdvisoryService(repo, engine, weatherService, testLogger())
}

func TestRegisterFarmer(t *testing.T) {
	tests := []struct {
		name        string
		input       FarmerRegistration
		expectedErr error
		language    string
	}{
		{
			name:     "valid registration defaults language",
			input:    FarmerRegistration{Mobile: "9876543210", Name: "Ravi", District: "NTR"},
			language: "en",
		},
		{
			name:     "telugu preference",
			input:    FarmerRegistration{Mobile: "9876543211", Name: "Lakshmi", District: "NTR", LanguagePreference: "te"},
			language: "te",
		},
		{
			name:        "short mobile",
			input:       FarmerRegistration{Mobile: "98765", Name: "Ravi", District: "NTR"},
			expectedErr: ErrInvalidInput,
		},
		{
			name:        "non digit mobile",
			input:       FarmerRegistration{Mobile: "98765abcde", Name: "Ravi", District: "NTR"},
			expectedErr: ErrInvalidInput,
		},
		{
			name:        "unsupported language",
			input:       FarmerRegistration{Mobile: "9876543212", Name: "Ravi", District: "NTR", LanguagePreference: "hi"},
			expectedErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAdvisoryService(newMockRepository())
			farmer, err := svc.RegisterFarmer(tt.input)
			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Errorf("expected %v, got %v", tt.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RegisterFarmer returned error: %v", err)
			}
			if farmer.LanguagePreference != tt.language {
				t.Errorf("expected language %s, got %s", tt.language, farmer.LanguagePreference)
			}
		})
	}
}

func TestRegisterFarmerDuplicate(t *testing.T) {
	svc := newTestAdvisoryService(newMockRepository())
	input := FarmerRegistration{Mobile: "9876543210", Name: "Ravi", District: "NTR"}

	if _, err := svc.RegisterFarmer(input); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if _, err := svc.RegisterFarmer(input); !errors.Is(err, ErrFarmerExists) {
		t.Errorf("expected ErrFarmerExists, got %v", err)
	}
}

func TestRecommendStoresAndHistoryIsNewestFirst(t *testing.T) {
	repo := newMockRepository()
	svc := newTestAdvisoryService(repo)
	if _, err := svc.RegisterFarmer(FarmerRegistration{Mobile: "9876543210", Name: "Ravi", District: "NTR"}); err != nil {
		t.Fatalf("RegisterFarmer failed: %v", err)
	}

	crops := []string{"వరి", "Cotton"}
	for _, crop := range crops {
		input := RecommendationInput{
			CropName:   crop,
			SowingDate: "2024-06-01",
			District:   "NTR",
			Mandal:     "TIRUVURU",
			AreaSown:   2,
		}
		rec, err := svc.Recommend(context.Background(), "9876543210", input)
		if err != nil {
			t.Fatalf("Recommend(%s) returned error: %v", crop, err)
		}
		if rec.Weather == nil {
			t.Errorf("expected weather by default")
		}
	}

	if len(repo.fields) != 2 || repo.fields[0].Location != "TIRUVURU, NTR" {
		t.Errorf("unexpected stored fields: %+v", repo.fields)
	}

	history, err := svc.History("9876543210")
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}

	var newest Recommendation
	if err := json.Unmarshal(history[0].Recommendation, &newest); err != nil {
		t.Fatalf("stored payload is not a recommendation: %v", err)
	}
	if newest.CropKey != "cotton" {
		t.Errorf("expected newest entry first, got %s", newest.CropKey)
	}
}

func TestRecommendErrors(t *testing.T) {
	repo := newMockRepository()
	svc := newTestAdvisoryService(repo)
	if _, err := svc.RegisterFarmer(FarmerRegistration{Mobile: "9876543210", Name: "Ravi", District: "NTR"}); err != nil {
		t.Fatalf("RegisterFarmer failed: %v", err)
	}

	valid := RecommendationInput{CropName: "వరి", SowingDate: "2024-06-01", District: "NTR", Mandal: "TIRUVURU", AreaSown: 2}

	tests := []struct {
		name        string
		mobile      string
		modify      func(*RecommendationInput)
		expectedErr error
	}{
		{name: "unknown farmer", mobile: "9000000000", modify: func(*RecommendationInput) {}, expectedErr: ErrFarmerNotFound},
		{name: "bad date", mobile: "9876543210", modify: func(in *RecommendationInput) { in.SowingDate = "01/06/2024" }, expectedErr: ErrInvalidInput},
		{name: "zero area", mobile: "9876543210", modify: func(in *RecommendationInput) { in.AreaSown = 0 }, expectedErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := valid
			tt.modify(&input)
			if _, err := svc.Recommend(context.Background(), tt.mobile, input); !errors.Is(err, tt.expectedErr) {
				t.Errorf("expected %v, got %v", tt.expectedErr, err)
			}
		})
	}
	if len(repo.recommendations) != 0 {
		t.Errorf("nothing should be stored for rejected requests")
	}
}

func TestRecommendationInputWeatherFlag(t *testing.T) {
	disabled := false
	input := RecommendationInput{CropName: "paddy", SowingDate: "2024-06-01", AreaSown: 1, IncludeWeather: &disabled}

	req, err := input.Request()
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}
	if req.IncludeWeather {
		t.Errorf("expected weather to be disabled")
	}

	input.IncludeWeather = nil
	req, _ = input.Request()
	if !req.IncludeWeather {
		t.Errorf("expected weather to be enabled by default")
	}
}

func TestCrops(t *testing.T) {
	repo := newMockRepository()
	repo.cropNames = []string{"వరి", "Chilli"}
	svc := newTestAdvisoryService(repo)

	crops, err := svc.Crops()
	if err != nil {
		t.Fatalf("Crops returned error: %v", err)
	}
	catalogSize := len(catalog.Default().Crops)
	if len(crops) != catalogSize+1 {
		t.Fatalf("expected %d crops, got %d", catalogSize+1, len(crops))
	}
	if crops[0].Key != "paddy" || crops[0].TeluguName != "వరి" {
		t.Errorf("unexpected first crop: %+v", crops[0])
	}
	last := crops[len(crops)-1]
	if last.EnglishName != "Chilli" || last.Key != "" {
		t.Errorf("expected recorded-only crop last, got %+v", last)
	}
}

func TestMandalsRequiresDistrict(t *testing.T) {
	svc := newTestAdvisoryService(newMockRepository())
	if _, err := svc.Mandals(" "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	mandals, err := svc.Mandals("NTR")
	if err != nil || len(mandals) != 2 {
		t.Errorf("unexpected mandals: %v, %v", mandals, err)
	}
}
