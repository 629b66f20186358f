package analytics

// Trend describes score movement over time.
type Trend string

// Trend directions.
const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendSteady    Trend = "steady"
)

// trendDeadBand is the minimum percentage-point gap between the half-window
// means before a direction is reported. Smaller movements are noise.
const trendDeadBand = 3.0

// DetectTrend compares the mean of the older half of a chronologically
// ordered percentage series with the mean of the newer half.
func DetectTrend(percentages []float64) Trend {
	if len(percentages) < 2 {
		return TrendSteady
	}
	mid := len(percentages) / 2
	older := mean(percentages[:mid])
	newer := mean(percentages[mid:])
	switch {
	case newer-older > trendDeadBand:
		return TrendImproving
	case older-newer > trendDeadBand:
		return TrendDeclining
	default:
		return TrendSteady
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
