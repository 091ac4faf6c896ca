package weather

import (
	"math"
	"strings"

	"github.com/i474232898/irrigation-advisor/internal/common"
)

// ConditionFromText maps a free-text provider description ("Patchy light
// rain", "Overcast") onto a Condition.
func ConditionFromText(text string) Condition {
	t := strings.ToLower(text)
	switch {
	case t == "":
		return ConditionUnknown
	case common.HasAny(t, "thunder", "storm"):
		return ConditionStorm
	case common.HasAny(t, "rain", "shower", "drizzle"):
		return ConditionRain
	case common.HasAny(t, "snow", "sleet", "blizzard", "ice"):
		return ConditionSnow
	case common.HasAny(t, "mist", "fog", "haze", "smoke", "dust", "sand"):
		return ConditionMist
	case common.HasAny(t, "cloud", "overcast"):
		return ConditionCloudy
	case common.HasAny(t, "sunny", "clear"):
		return ConditionClear
	default:
		return ConditionUnknown
	}
}

// CloudinessForCondition is the cloud cover percentage assumed when a
// provider reports only a condition.
func CloudinessForCondition(c Condition) float64 {
	switch c {
	case ConditionClear:
		return 0
	case ConditionCloudy:
		return 70
	case ConditionRain:
		return 80
	case ConditionSnow:
		return 85
	case ConditionStorm:
		return 90
	case ConditionMist:
		return 60
	default:
		return 50
	}
}

// EstimateSolarRadiation approximates daily solar radiation in MJ/m²/day from
// cloud cover, air temperature and humidity.
func EstimateSolarRadiation(tempC, humidity, cloudiness float64) float64 {
	const base = 20.0

	cloud := (100 - common.Clamp(cloudiness, 0, 100)) / 100
	temp := common.Clamp(tempC/25, 0.5, 1.5)
	hum := math.Max(0.7, 1-(humidity/100)*0.3)
	return base * cloud * temp * hum
}
