package repository

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"fertilizer-advisory/internal/model"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const seedBatchSize = 100

// Soil survey column headers. Drinage and Temperatur are spelled as in the
// survey export.
var soilColumns = []string{"Code", "Depth", "Drinage", "Texture", "Slope", "Temperatur", "HSG", "SoilTaxono", "Landform"}

// sowingDateLayouts are tried in order for text sowing dates
var sowingDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02/01/2006",
	"01-02-06",
	"1/2/06",
}

// SeedRepository handles spreadsheet ingestion of reference survey data
type SeedRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewSeedRepository creates a new seed repository
func NewSeedRepository(db *gorm.DB, logger *slog.Logger) *SeedRepository {
	return &SeedRepository{db: db, logger: logger}
}

// SeedDatabase loads the soil survey and farmer booking workbooks. An empty
// path skips that dataset; a table that already holds rows is left untouched.
func (s *SeedRepository) SeedDatabase(soilPath, recordsPath string) error {
	if soilPath != "" {
		count, err := s.LoadSoilData(soilPath)
		if err != nil {
			return fmt.Errorf("failed to load soil data: %w", err)
		}
		s.logger.Info("soil data seeded", "file", soilPath, "rows", count)
	}

	if recordsPath != "" {
		count, err := s.LoadFarmerRecords(recordsPath)
		if err != nil {
			return fmt.Errorf("failed to load farmer records: %w", err)
		}
		s.logger.Info("farmer records seeded", "file", recordsPath, "rows", count)
	}

	return nil
}

// LoadSoilData ingests the soil survey workbook and returns the rows inserted
func (s *SeedRepository) LoadSoilData(path string) (int, error) {
	loaded, err := s.hasRows(&model.SoilSample{})
	if err != nil || loaded {
		if loaded {
			s.logger.Info("soil data already loaded, skipping", "file", path)
		}
		return 0, err
	}

	header, rows, err := readFirstSheet(path)
	if err != nil {
		return 0, err
	}
	index := headerIndex(header)

	samples := make([]model.SoilSample, 0, len(rows))
	for i, row := range rows {
		sample, err := ParseSoilRow(index, row)
		if err != nil {
			s.logger.Warn("skipping soil row", "row", i+2, "error", err.Error())
			continue
		}
		samples = append(samples, sample)
	}

	if len(samples) == 0 {
		return 0, nil
	}
	if err := s.db.CreateInBatches(&samples, seedBatchSize).Error; err != nil {
		return 0, err
	}
	return len(samples), nil
}

// LoadFarmerRecords ingests the crop booking workbook and returns the rows inserted
func (s *SeedRepository) LoadFarmerRecords(path string) (int, error) {
	loaded, err := s.hasRows(&model.FarmerRecord{})
	if err != nil || loaded {
		if loaded {
			s.logger.Info("farmer records already loaded, skipping", "file", path)
		}
		return 0, err
	}

	header, rows, err := readFirstSheet(path)
	if err != nil {
		return 0, err
	}
	index := headerIndex(header)

	records := make([]model.FarmerRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, ParseFarmerRecordRow(index, row))
	}

	if len(records) == 0 {
		return 0, nil
	}
	if err := s.db.CreateInBatches(&records, seedBatchSize).Error; err != nil {
		return 0, err
	}
	return len(records), nil
}

func (s *SeedRepository) hasRows(table interface{}) (bool, error) {
	var count int64
	if err := s.db.Model(table).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func readFirstSheet(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s has no header row", path)
	}
	return rows[0], rows[1:], nil
}

// headerIndex maps cleaned column names to positions. Type suffixes such as
// "Code,N,10" and surrounding spaces are dropped.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		name := strings.TrimSpace(strings.SplitN(col, ",", 2)[0])
		if name != "" {
			index[name] = i
		}
	}
	return index
}

func cell(index map[string]int, row []string, column string) string {
	i, ok := index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseSoilRow converts one soil survey row. The survey code is required.
func ParseSoilRow(index map[string]int, row []string) (model.SoilSample, error) {
	for _, col := range soilColumns {
		if _, ok := index[col]; !ok {
			return model.SoilSample{}, fmt.Errorf("missing column %s", col)
		}
	}

	rawCode := cell(index, row, "Code")
	code, ok := parseNumber(rawCode)
	if !ok {
		return model.SoilSample{}, fmt.Errorf("invalid code %q", rawCode)
	}

	return model.SoilSample{
		Code:         int(code),
		Depth:        cell(index, row, "Depth"),
		Drainage:     cell(index, row, "Drinage"),
		Texture:      cell(index, row, "Texture"),
		Slope:        cell(index, row, "Slope"),
		Temperature:  cell(index, row, "Temperatur"),
		HSG:          cell(index, row, "HSG"),
		SoilTaxonomy: cell(index, row, "SoilTaxono"),
		Landform:     cell(index, row, "Landform"),
	}, nil
}

// ParseFarmerRecordRow converts one crop booking row. Blank or unparseable
// numeric and date cells are stored as nulls.
func ParseFarmerRecordRow(index map[string]int, row []string) model.FarmerRecord {
	record := model.FarmerRecord{
		District:           cell(index, row, "District"),
		Mandal:             cell(index, row, "Mandal"),
		Village:            cell(index, row, "Village"),
		CropName:           cell(index, row, "Crop Name"),
		Variety:            cell(index, row, "Variety"),
		CropNature:         cell(index, row, "Crop Nature"),
		IrrigationSource:   cell(index, row, "Irrigation Source"),
		MethodOfIrrigation: cell(index, row, "Method of Irrigation"),
		FarmingType:        cell(index, row, "Farming Type"),
	}

	if v, ok := parseNumber(cell(index, row, "Booking-id")); ok {
		id := int64(v)
		record.BookingID = &id
	}
	if v, ok := parseNumber(cell(index, row, "Area Sown")); ok {
		record.AreaSown = &v
	}
	if t, ok := parseSowingDate(cell(index, row, "Date of Sowing")); ok {
		record.DateOfSowing = &t
	}

	return record
}

func parseSowingDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range sowingDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	if serial, ok := parseNumber(value); ok {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumber accepts finite numbers only. NaN and Inf count as blank.
func parseNumber(value string) (float64, bool) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
