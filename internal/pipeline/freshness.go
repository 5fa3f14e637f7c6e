package pipeline

import "time"

// DefaultFreshness is how long a stored score stays valid.
const DefaultFreshness = 30 * 24 * time.Hour

// Fresh reports whether a result computed at computedAt is still valid at
// now, given the freshness threshold. Pure predicate; the threshold comes
// from configuration, not from callers hardcoding ages.
func Fresh(computedAt, now time.Time, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = DefaultFreshness
	}
	return now.Sub(computedAt) <= threshold
}
