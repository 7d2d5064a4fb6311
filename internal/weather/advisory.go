package weather

import "strings"

// Classify buckets current conditions into RAINY, CLOUDY or SUNNY
func Classify(s Snapshot) Condition {
	switch {
	case strings.EqualFold(s.Main, "rain") || s.Rain3h > 0:
		return Rainy
	case s.Clouds > 70:
		return Cloudy
	case s.Clouds < 20:
		return Sunny
	default:
		return Cloudy
	}
}

// AnalyzeForFertilizer derives application guidance from current conditions
// and the forecast. The first matching rule wins.
func AnalyzeForFertilizer(current Snapshot, forecast []ForecastDay) Advisory {
	condition := Classify(current)
	rainExpected := len(forecast) > 0 && forecast[0].RainMM > 5

	advisory := Advisory{
		Condition:       condition,
		CanApply:        true,
		Temperature:     current.Temperature,
		Rainfall3h:      current.Rain3h,
		RainExpected24h: rainExpected,
	}

	switch {
	case current.Rain3h > 10:
		advisory.CanApply = false
		advisory.TimingAdvice = "⛔ Delay application - Heavy rainfall detected"
		advisory.Notes = []string{
			"Heavy rain will cause nutrient runoff and waste",
			"Wait 24-48 hours after rain stops",
		}
	case current.Rain3h > 5:
		advisory.CanApply = false
		advisory.TimingAdvice = "⚠️ Postpone if possible - Moderate rainfall"
		advisory.Notes = []string{
			"Moderate rain may reduce fertilizer effectiveness",
			"Consider waiting for better conditions",
		}
	case rainExpected:
		advisory.TimingAdvice = "⚠️ Rain expected within 24 hours - Apply soon or wait"
		advisory.Notes = []string{
			"Rain forecasted in next 24 hours",
			"Either apply immediately or wait until after rain",
		}
	case condition == Sunny && current.Temperature > 35:
		advisory.TimingAdvice = "🌡️ Apply early morning (6-8 AM) or evening (5-7 PM)"
		advisory.Notes = []string{
			"High temperature - avoid midday application",
			"Ensure adequate soil moisture before application",
			"Water the field after fertilizer application",
		}
	case condition == Cloudy:
		advisory.TimingAdvice = "✅ Excellent conditions - Cloudy weather is ideal"
		advisory.Notes = []string{
			"Cloudy conditions reduce evaporation",
			"Nutrients will be absorbed effectively",
		}
	default:
		advisory.TimingAdvice = "✅ Good conditions for fertilizer application"
		advisory.Notes = []string{
			"Weather conditions are favorable",
			"Ensure soil has adequate moisture",
		}
	}

	return advisory
}
