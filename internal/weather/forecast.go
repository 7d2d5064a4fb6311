package weather

import (
	"sort"
	"time"
)

// ForecastHorizon is the number of days returned by a forecast
const ForecastHorizon = 5

// IST is the zone used to group forecast samples into calendar days
var IST = time.FixedZone("IST", 5*60*60+30*60)

type dayBucket struct {
	date         string
	tempMax      float64
	tempMin      float64
	rain         float64
	descriptions []string
	counts       map[string]int
}

// AggregateDaily groups samples by calendar date in zone and returns at most
// limit days in ascending date order. Each day keeps the max and min
// temperature, the most frequent description (first seen wins ties) and the
// summed rainfall.
func AggregateDaily(samples []Sample, zone *time.Location, limit int) []ForecastDay {
	if zone == nil {
		zone = IST
	}

	buckets := make(map[string]*dayBucket)
	for _, s := range samples {
		date := s.Time.In(zone).Format("2006-01-02")
		b, ok := buckets[date]
		if !ok {
			b = &dayBucket{
				date:    date,
				tempMax: s.Temperature,
				tempMin: s.Temperature,
				counts:  make(map[string]int),
			}
			buckets[date] = b
		}
		if s.Temperature > b.tempMax {
			b.tempMax = s.Temperature
		}
		if s.Temperature < b.tempMin {
			b.tempMin = s.Temperature
		}
		b.rain += s.Rain3h
		if b.counts[s.Description] == 0 {
			b.descriptions = append(b.descriptions, s.Description)
		}
		b.counts[s.Description]++
	}

	dates := make([]string, 0, len(buckets))
	for date := range buckets {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	if len(dates) > limit {
		dates = dates[:limit]
	}

	days := make([]ForecastDay, 0, len(dates))
	for _, date := range dates {
		b := buckets[date]
		probability := 20
		if b.rain > 0 {
			probability = 100
		}
		days = append(days, ForecastDay{
			Date:            date,
			TempMax:         b.tempMax,
			TempMin:         b.tempMin,
			Description:     b.modalDescription(),
			RainProbability: probability,
			RainMM:          b.rain,
		})
	}
	return days
}

func (b *dayBucket) modalDescription() string {
	best := ""
	bestCount := 0
	for _, d := range b.descriptions {
		if b.counts[d] > bestCount {
			best = d
			bestCount = b.counts[d]
		}
	}
	return best
}
