package analyze

import "mindcast/internal/model"

// Report is the aggregated read-only feature summary of a cast set. It is
// derived data, recomputed on every scoring run.
type Report struct {
	CastCount  int
	Content    ContentMetrics
	Engagement EngagementMetrics
	Style      StyleMetrics
	Topics     TopicMetrics
}

// BuildReport runs all extractors over a cast set. Callers must not pass an
// empty set; the pipeline refuses to score those before reaching extraction.
func BuildReport(casts []model.Cast) Report {
	return Report{
		CastCount:  len(casts),
		Content:    ContentQuality(casts),
		Engagement: EngagementStats(casts),
		Style:      WritingStyle(casts),
		Topics:     TopicDiversity(casts),
	}
}
