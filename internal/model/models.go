package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Farmer represents a registered farmer of the advisory platform
type Farmer struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Mobile             string `gorm:"not null;size:10;uniqueIndex" json:"mobile"`
	Name               string `gorm:"not null;size:255" json:"name"`
	District           string `gorm:"size:255" json:"district"`
	Mandal             string `gorm:"size:255" json:"mandal"`
	LanguagePreference string `gorm:"size:2;default:en" json:"language_preference"`

	// Relationships
	Fields          []Field          `gorm:"foreignKey:FarmerID;constraint:OnDelete:CASCADE" json:"fields,omitempty"`
	Recommendations []Recommendation `gorm:"foreignKey:FarmerID;constraint:OnDelete:CASCADE" json:"recommendations,omitempty"`
}

// TableName specifies the table name for Farmer
func (Farmer) TableName() string {
	return "farmers"
}

// Field represents a sown field a recommendation was requested for
type Field struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FarmerID   uint      `gorm:"not null;index" json:"farmer_id"`
	Location   string    `gorm:"size:255" json:"location"`
	CropType   string    `gorm:"not null;size:255" json:"crop_type"`
	Variety    *string   `gorm:"size:255" json:"variety,omitempty"`
	SowingDate time.Time `gorm:"not null" json:"sowing_date"`
	AreaSown   float64   `gorm:"type:decimal(10,2);not null" json:"area_sown"` // acres

	// Relationships
	Farmer Farmer `gorm:"foreignKey:FarmerID" json:"-"`
}

// TableName specifies the table name for Field
func (Field) TableName() string {
	return "fields"
}

// Recommendation stores a generated recommendation verbatim as JSON
type Recommendation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"index:idx_farmer_created,priority:2" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PublicID string `gorm:"not null;size:36;uniqueIndex" json:"public_id"`
	FarmerID uint   `gorm:"not null;index:idx_farmer_created,priority:1" json:"farmer_id"`
	FieldID  uint   `gorm:"not null;index" json:"field_id"`
	Payload  string `gorm:"type:text;not null;column:recommendation_json" json:"-"`

	// Relationships
	Farmer Farmer `gorm:"foreignKey:FarmerID" json:"-"`
	Field  Field  `gorm:"foreignKey:FieldID" json:"-"`
}

// TableName specifies the table name for Recommendation
func (Recommendation) TableName() string {
	return "recommendations"
}

// BeforeCreate hook to assign a public identifier if not set
func (r *Recommendation) BeforeCreate(tx *gorm.DB) error {
	if r.PublicID == "" {
		r.PublicID = uuid.NewString()
	}
	return nil
}

// SoilSample is one row of the district soil survey
type SoilSample struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Code         int    `gorm:"index" json:"code"`
	Depth        string `gorm:"size:255" json:"depth"`
	Drainage     string `gorm:"size:255" json:"drainage"`
	Texture      string `gorm:"size:255" json:"texture"`
	Slope        string `gorm:"size:255" json:"slope"`
	Temperature  string `gorm:"size:255" json:"temperature"`
	HSG          string `gorm:"size:16;column:hsg" json:"hsg"`
	SoilTaxonomy string `gorm:"size:255" json:"soil_taxonomy"`
	Landform     string `gorm:"size:255" json:"landform"`
}

// TableName specifies the table name for SoilSample
func (SoilSample) TableName() string {
	return "soil_data"
}

// FarmerRecord is one crop booking row of the farmer survey
type FarmerRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	BookingID          *int64     `json:"booking_id,omitempty"`
	District           string     `gorm:"size:255;index:idx_district_mandal,priority:1" json:"district"`
	Mandal             string     `gorm:"size:255;index:idx_district_mandal,priority:2" json:"mandal"`
	Village            string     `gorm:"size:255" json:"village"`
	CropName           string     `gorm:"size:255;index" json:"crop_name"`
	Variety            string     `gorm:"size:255" json:"variety"`
	AreaSown           *float64   `gorm:"type:decimal(10,2)" json:"area_sown,omitempty"`
	DateOfSowing       *time.Time `json:"date_of_sowing,omitempty"`
	CropNature         string     `gorm:"size:255" json:"crop_nature"`
	IrrigationSource   string     `gorm:"size:255" json:"irrigation_source"`
	MethodOfIrrigation string     `gorm:"size:255" json:"method_of_irrigation"`
	FarmingType        string     `gorm:"size:255" json:"farming_type"`
}

// TableName specifies the table name for FarmerRecord
func (FarmerRecord) TableName() string {
	return "farmer_records"
}
