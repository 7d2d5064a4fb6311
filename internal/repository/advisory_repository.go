package repository

import (
	"errors"

	"fertilizer-advisory/internal/model"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// AdvisoryRepository defines the interface for advisory data operations
type AdvisoryRepository interface {
	CreateFarmer(farmer *model.Farmer) error
	FarmerExists(mobile string) (bool, error)
	FindFarmerByMobile(mobile string) (*model.Farmer, error)
	SaveRecommendation(field *model.Field, recommendation *model.Recommendation) error
	RecentRecommendations(farmerID uint, limit int) ([]model.Recommendation, error)
	RecordedCropNames() ([]string, error)
	Districts() ([]string, error)
	Mandals(district string) ([]string, error)
}

// advisoryRepository implements AdvisoryRepository
type advisoryRepository struct {
	db *gorm.DB
}

// NewAdvisoryRepository creates a new advisory repository
func NewAdvisoryRepository(db *gorm.DB) AdvisoryRepository {
	return &advisoryRepository{db: db}
}

// CreateFarmer inserts a new farmer
func (r *advisoryRepository) CreateFarmer(farmer *model.Farmer) error {
	return r.db.Create(farmer).Error
}

// FarmerExists checks if a farmer with the given mobile number exists
func (r *advisoryRepository) FarmerExists(mobile string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Farmer{}).Where("mobile = ?", mobile).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindFarmerByMobile fetches a farmer by mobile number
func (r *advisoryRepository) FindFarmerByMobile(mobile string) (*model.Farmer, error) {
	var farmer model.Farmer
	err := r.db.Where("mobile = ?", mobile).First(&farmer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &farmer, nil
}

// SaveRecommendation stores the field and its recommendation in one transaction
func (r *advisoryRepository) SaveRecommendation(field *model.Field, recommendation *model.Recommendation) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(field).Error; err != nil {
			return err
		}
		recommendation.FieldID = field.ID
		recommendation.FarmerID = field.FarmerID
		return tx.Create(recommendation).Error
	})
}

// RecentRecommendations returns the newest recommendations of a farmer first
func (r *advisoryRepository) RecentRecommendations(farmerID uint, limit int) ([]model.Recommendation, error) {
	var recommendations []model.Recommendation
	err := r.db.
		Where("farmer_id = ?", farmerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&recommendations).Error
	if err != nil {
		return nil, err
	}
	return recommendations, nil
}

// RecordedCropNames returns the distinct crop names found in farmer records
func (r *advisoryRepository) RecordedCropNames() ([]string, error) {
	return r.distinct("crop_name", "")
}

// Districts returns the distinct districts found in farmer records
func (r *advisoryRepository) Districts() ([]string, error) {
	return r.distinct("district", "")
}

// Mandals returns the distinct mandals of a district
func (r *advisoryRepository) Mandals(district string) ([]string, error) {
	return r.distinct("mandal", district)
}

func (r *advisoryRepository) distinct(column, district string) ([]string, error) {
	var values []string
	query := r.db.Model(&model.FarmerRecord{}).
		Where(column+" IS NOT NULL AND "+column+" <> ''")
	if district != "" {
		query = query.Where("district = ?", district)
	}
	err := query.Distinct(column).Order(column + " ASC").Pluck(column, &values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}
