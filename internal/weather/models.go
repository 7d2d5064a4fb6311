package weather

import "time"

// Snapshot represents current conditions at a location
type Snapshot struct {
	Location       string    `json:"location"`
	Temperature    float64   `json:"temperature"`
	FeelsLike      float64   `json:"feels_like"`
	Humidity       float64   `json:"humidity"`
	Description    string    `json:"description"`
	Main           string    `json:"main"`
	Icon           string    `json:"icon"`
	WindSpeed      float64   `json:"wind_speed"`
	Clouds         float64   `json:"clouds"`
	Rain1h         float64   `json:"rain_1h"`
	Rain3h         float64   `json:"rain_3h"`
	Timestamp      time.Time `json:"timestamp"`
	IsMock         bool      `json:"is_mock"`
	FallbackReason string    `json:"fallback_reason,omitempty"`
}

// ForecastDay is one calendar day aggregated from sub-daily samples
type ForecastDay struct {
	Date            string  `json:"date"`
	TempMax         float64 `json:"temp_max"`
	TempMin         float64 `json:"temp_min"`
	Description     string  `json:"description"`
	RainProbability int     `json:"rain_probability"`
	RainMM          float64 `json:"rain_mm"`
}

// Sample is a single sub-daily forecast point
type Sample struct {
	Time        time.Time
	Temperature float64
	Description string
	Rain3h      float64
}

// Coordinates is a latitude/longitude pair
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Condition is the qualitative weather category used for advice
type Condition string

const (
	Rainy  Condition = "RAINY"
	Cloudy Condition = "CLOUDY"
	Sunny  Condition = "SUNNY"
)

// Advisory is the weather-conditioned fertilizer application guidance
type Advisory struct {
	Condition       Condition `json:"condition"`
	CanApply        bool      `json:"can_apply"`
	TimingAdvice    string    `json:"timing_advice"`
	Notes           []string  `json:"weather_notes"`
	Temperature     float64   `json:"temperature"`
	Rainfall3h      float64   `json:"rainfall_3h"`
	RainExpected24h bool      `json:"rain_expected_24h"`
}
