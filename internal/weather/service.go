package weather

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// DefaultCacheDuration is how long fetched weather stays fresh
const DefaultCacheDuration = time.Hour

// Service serves cached current weather and forecasts for a district/mandal.
// Provider failures never surface to callers: current weather degrades to a
// synthetic snapshot flagged IsMock, and the forecast degrades to an empty
// sequence.
type Service struct {
	source   Source
	current  *Cache[Snapshot]
	forecast *Cache[[]ForecastDay]
	now      func() time.Time
	zone     *time.Location
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for cache expiry and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithZone overrides the zone used to group forecast days
func WithZone(zone *time.Location) Option {
	return func(s *Service) { s.zone = zone }
}

// WithTimeout overrides the live fetch timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService creates a weather service. A nil source means no credential is
// configured and every read returns synthetic data.
func NewService(source Source, cacheDuration time.Duration, logger *slog.Logger, opts ...Option) *Service {
	if cacheDuration <= 0 {
		cacheDuration = DefaultCacheDuration
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		source:  source,
		now:     time.Now,
		zone:    IST,
		timeout: fetchTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current = NewCache[Snapshot](cacheDuration, s.now)
	s.forecast = NewCache[[]ForecastDay](cacheDuration, s.now)
	return s
}

// Live reports whether a live provider is configured
func (s *Service) Live() bool {
	return s.source != nil
}

// CurrentWeather returns current conditions. It never returns an error; any
// failure yields a mock snapshot with FallbackReason set.
func (s *Service) CurrentWeather(ctx context.Context, district, mandal string) (Snapshot, error) {
	key := cacheKey(district, mandal, "current")
	if cached, ok := s.current.Get(key); ok {
		return cached, nil
	}

	if s.source == nil {
		return s.mockSnapshot(district, mandal, "no weather credential configured"), nil
	}
	if err := ctx.Err(); err != nil {
		s.logger.Warn("request context done, using mock weather",
			"district", district,
			"mandal", mandal,
			"error", err.Error(),
		)
		return s.mockSnapshot(district, mandal, err.Error()), nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snapshot, err := s.source.CurrentConditions(fetchCtx, ResolveCoordinates(district, mandal))
	if err != nil {
		s.logger.Warn("current weather fetch failed, using mock data",
			"provider", s.source.Name(),
			"district", district,
			"mandal", mandal,
			"error", err.Error(),
		)
		return s.mockSnapshot(district, mandal, err.Error()), nil
	}

	snapshot.Location = location(district, mandal)
	snapshot.Timestamp = s.now()
	snapshot.IsMock = false
	s.current.Set(key, snapshot)
	return snapshot, nil
}

// Forecast returns up to ForecastHorizon days in ascending date order. It
// never returns an error: a provider failure or a done ctx yield an empty
// forecast. Callers receive their own copy of cached days.
func (s *Service) Forecast(ctx context.Context, district, mandal string) ([]ForecastDay, error) {
	key := cacheKey(district, mandal, "forecast")
	if cached, ok := s.forecast.Get(key); ok {
		return slices.Clone(cached), nil
	}

	if s.source == nil {
		return s.mockForecast(), nil
	}
	if err := ctx.Err(); err != nil {
		s.logger.Warn("request context done, returning empty forecast",
			"district", district,
			"mandal", mandal,
			"error", err.Error(),
		)
		return []ForecastDay{}, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	samples, err := s.source.ForecastSamples(fetchCtx, ResolveCoordinates(district, mandal))
	if err != nil {
		s.logger.Warn("forecast fetch failed, returning empty forecast",
			"provider", s.source.Name(),
			"district", district,
			"mandal", mandal,
			"error", err.Error(),
		)
		return []ForecastDay{}, nil
	}

	days := AggregateDaily(samples, s.zone, ForecastHorizon)
	s.forecast.Set(key, slices.Clone(days))
	return days, nil
}

// CacheStats returns combined hit and miss counts of both caches
func (s *Service) CacheStats() (hits, misses int) {
	ch, cm := s.current.Stats()
	fh, fm := s.forecast.Stats()
	return ch + fh, cm + fm
}

// CacheState reports the freshness of a district/mandal entry for a data kind
// ("current" or "forecast")
func (s *Service) CacheState(district, mandal, kind string) EntryState {
	key := cacheKey(district, mandal, kind)
	if kind == "forecast" {
		return s.forecast.State(key)
	}
	return s.current.State(key)
}

func (s *Service) mockSnapshot(district, mandal, reason string) Snapshot {
	return Snapshot{
		Location:       location(district, mandal),
		Temperature:    28.5,
		FeelsLike:      30.2,
		Humidity:       65,
		Description:    "Partly cloudy",
		Main:           "Clouds",
		Icon:           "02d",
		WindSpeed:      3.5,
		Clouds:         40,
		Rain1h:         0,
		Rain3h:         0,
		Timestamp:      s.now(),
		IsMock:         true,
		FallbackReason: reason,
	}
}

func (s *Service) mockForecast() []ForecastDay {
	today := s.now().In(s.zone)
	days := make([]ForecastDay, 0, ForecastHorizon)
	for i := 0; i < ForecastHorizon; i++ {
		day := ForecastDay{
			Date:            today.AddDate(0, 0, i).Format("2006-01-02"),
			TempMax:         float64(32 + i),
			TempMin:         float64(22 + i),
			Description:     "Partly cloudy",
			RainProbability: 20,
			RainMM:          0,
		}
		if i >= 2 {
			day.RainProbability = 60
			day.RainMM = 5.0
		}
		days = append(days, day)
	}
	return days
}

func cacheKey(district, mandal, kind string) string {
	return fmt.Sprintf("%s_%s_%s", district, mandal, kind)
}

func location(district, mandal string) string {
	return fmt.Sprintf("%s, %s", mandal, district)
}
