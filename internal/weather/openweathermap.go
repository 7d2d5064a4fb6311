package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultOpenWeatherMapURL is the public OpenWeatherMap API base
const DefaultOpenWeatherMapURL = "https://api.openweathermap.org/data/2.5"

// fetchTimeout bounds every live call to the weather provider
const fetchTimeout = 5 * time.Second

// ErrMalformedPayload is returned when the provider response cannot be used
var ErrMalformedPayload = errors.New("malformed weather payload")

// Source fetches live weather for a coordinate pair
type Source interface {
	Name() string
	CurrentConditions(ctx context.Context, at Coordinates) (Snapshot, error)
	ForecastSamples(ctx context.Context, at Coordinates) ([]Sample, error)
}

// OpenWeatherMapSource is a rate limited OpenWeatherMap client
type OpenWeatherMapSource struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// Ensure OpenWeatherMapSource implements Source
var _ Source = (*OpenWeatherMapSource)(nil)

// NewOpenWeatherMapSource creates a client. rps is the maximum outbound
// requests per second (may be fractional) and burst the limiter burst size.
func NewOpenWeatherMapSource(apiKey, baseURL string, rps float64, burst int) *OpenWeatherMapSource {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherMapURL
	}
	if burst < 1 {
		burst = 1
	}
	return &OpenWeatherMapSource{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: fetchTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Name returns the provider name
func (o *OpenWeatherMapSource) Name() string {
	return "OpenWeatherMap"
}

// currentResponse represents the /weather response structure
type currentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Rain struct {
		OneHour   float64 `json:"1h"`
		ThreeHour float64 `json:"3h"`
	} `json:"rain"`
}

// forecastResponse represents the /forecast response structure
type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Rain struct {
			ThreeHour float64 `json:"3h"`
		} `json:"rain"`
	} `json:"list"`
}

// CurrentConditions fetches current weather at the coordinates
func (o *OpenWeatherMapSource) CurrentConditions(ctx context.Context, at Coordinates) (Snapshot, error) {
	var resp currentResponse
	if err := o.get(ctx, "/weather", at, &resp); err != nil {
		return Snapshot{}, err
	}
	if len(resp.Weather) == 0 {
		return Snapshot{}, fmt.Errorf("%w: no weather conditions", ErrMalformedPayload)
	}

	return Snapshot{
		Temperature: resp.Main.Temp,
		FeelsLike:   resp.Main.FeelsLike,
		Humidity:    resp.Main.Humidity,
		Description: resp.Weather[0].Description,
		Main:        resp.Weather[0].Main,
		Icon:        resp.Weather[0].Icon,
		WindSpeed:   resp.Wind.Speed,
		Clouds:      resp.Clouds.All,
		Rain1h:      resp.Rain.OneHour,
		Rain3h:      resp.Rain.ThreeHour,
	}, nil
}

// ForecastSamples fetches the 3-hourly forecast at the coordinates
func (o *OpenWeatherMapSource) ForecastSamples(ctx context.Context, at Coordinates) ([]Sample, error) {
	var resp forecastResponse
	if err := o.get(ctx, "/forecast", at, &resp); err != nil {
		return nil, err
	}

	samples := make([]Sample, 0, len(resp.List))
	for _, item := range resp.List {
		if len(item.Weather) == 0 {
			return nil, fmt.Errorf("%w: forecast entry %d has no conditions", ErrMalformedPayload, item.Dt)
		}
		samples = append(samples, Sample{
			Time:        time.Unix(item.Dt, 0),
			Temperature: item.Main.Temp,
			Description: item.Weather[0].Description,
			Rain3h:      item.Rain.ThreeHour,
		})
	}
	return samples, nil
}

func (o *OpenWeatherMapSource) get(ctx context.Context, path string, at Coordinates, out interface{}) error {
	if err := o.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait canceled: %w", err)
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(at.Lat, 'f', 4, 64))
	params.Set("lon", strconv.FormatFloat(at.Lon, 'f', 4, 64))
	params.Set("appid", o.apiKey)
	params.Set("units", "metric")
	apiURL := o.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("API returned non-2xx status: %d", resp.StatusCode)
	}

	rawData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(rawData, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}
