package analyze

import (
	"math"

	"mindcast/internal/model"
)

const (
	highEngagementThreshold  = 10 // likes+recasts+replies
	viralEngagementThreshold = 50 // likes+recasts only
)

// EngagementMetrics summarizes interaction statistics of a cast set.
type EngagementMetrics struct {
	TotalInteractions int
	PerCast           float64
	HighRatio         float64 // casts exceeding highEngagementThreshold
	ViralRatio        float64 // casts exceeding viralEngagementThreshold
	Consistency       float64 // 0-100, higher when interactions are uniform
}

// EngagementStats computes interaction totals, threshold ratios, and a
// consistency score. Consistency is 0 for sets of fewer than two casts.
func EngagementStats(casts []model.Cast) EngagementMetrics {
	var m EngagementMetrics
	if len(casts) == 0 {
		return m
	}
	var high, viral int
	counts := make([]float64, len(casts))
	for i, c := range casts {
		n := c.Interactions()
		m.TotalInteractions += n
		counts[i] = float64(n)
		if n > highEngagementThreshold {
			high++
		}
		if c.LikeCount+c.RecastCount > viralEngagementThreshold {
			viral++
		}
	}
	total := float64(len(casts))
	m.PerCast = float64(m.TotalInteractions) / total
	m.HighRatio = float64(high) / total
	m.ViralRatio = float64(viral) / total
	m.Consistency = consistency(counts)
	return m
}

// consistency = max(0, 100 - (stddev/max(mean,1)) * 50). A uniform set scores
// 100; wildly varying counts push toward 0.
func consistency(counts []float64) float64 {
	if len(counts) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range counts {
		mean += v
	}
	mean /= float64(len(counts))
	variance := 0.0
	for _, v := range counts {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(counts))
	stddev := math.Sqrt(variance)
	denom := mean
	if denom < 1 {
		denom = 1
	}
	score := 100 - (stddev/denom)*50
	if score < 0 {
		return 0
	}
	return score
}
