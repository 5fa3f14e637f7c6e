package score

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"mindcast/internal/analyze"
	"mindcast/internal/model"
)

// Score and confidence bounds shared by every tier of the pipeline.
const (
	MinScore      = 55
	MaxScore      = 145
	MinConfidence = 0
	MaxConfidence = 100
)

// ClampScore bounds v to the IQ-like [55,145] scale.
func ClampScore(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// ClampConfidence bounds v to [0,100].
func ClampConfidence(v int) int {
	if v < MinConfidence {
		return MinConfidence
	}
	if v > MaxConfidence {
		return MaxConfidence
	}
	return v
}

// Scorer computes deterministic heuristic scores with injectable jitter.
// The rand source is explicit so tests can fix the seed.
type Scorer struct {
	rng *rand.Rand
}

// New returns a Scorer drawing jitter from rng.
func New(rng *rand.Rand) *Scorer {
	return &Scorer{rng: rng}
}

// NewSeeded returns a Scorer with a time-seeded source for production use.
func NewSeeded() *Scorer {
	return New(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// Heuristic computes the composite score for a feature report. The four
// dimension sub-scores are weighted equally; jitter is a uniform +/-7.5
// added before the final clamp.
func (s *Scorer) Heuristic(rep analyze.Report) (model.ScoreResult, error) {
	content := clampF(0, 100,
		0.3*rep.Content.AvgLength+
			50*rep.Content.LongRatio+
			30*rep.Content.QuestionRatio+
			20*rep.Content.LinkRatio+
			15*rep.Content.MentionRatio)
	style := clampF(0, 100,
		40*rep.Style.VocabularyRatio+
			2*rep.Style.AvgWordsPerSentence+
			30*rep.Style.ProperCapRatio+
			3*rep.Style.AvgWordLength)
	engagement := clampF(0, 100,
		0.5*rep.Engagement.PerCast+
			0.3*rep.Engagement.Consistency+
			50*rep.Engagement.ViralRatio)
	diversity := rep.Topics.Diversity

	composite := 0.25 * (content + style + engagement + diversity)
	if math.IsNaN(composite) || math.IsInf(composite, 0) {
		return model.ScoreResult{}, errors.New("composite is not finite")
	}
	base := 70 + 0.6*composite + 0.2*float64(rep.CastCount)
	jitter := s.rng.Float64()*15 - 7.5
	final := ClampScore(int(math.Round(base + jitter)))
	confidence := int(math.Round(50 + 2*float64(rep.CastCount) + 0.3*composite))
	if confidence < 30 {
		confidence = 30
	}
	if confidence > 85 {
		confidence = 85
	}
	return model.ScoreResult{
		Score:      final,
		Analysis:   heuristicAnalysis(rep, content, style, engagement),
		Confidence: confidence,
		Source:     model.SourceHeuristic,
	}, nil
}

// Degraded returns a low-confidence score from a bounded distribution around
// the scale midpoint. Only used when the heuristic itself fails.
func (s *Scorer) Degraded() model.ScoreResult {
	return model.ScoreResult{
		Score:      ClampScore(85 + s.rng.Intn(31)),
		Analysis:   "Analysis unavailable; estimate based on limited signals.",
		Confidence: 20,
		Source:     model.SourceDegraded,
	}
}

func heuristicAnalysis(rep analyze.Report, content, style, engagement float64) string {
	topic := rep.Topics.PrimaryTopic
	if topic == "" {
		topic = "general"
	}
	return fmt.Sprintf(
		"Across %d casts, writing centers on %s (topic spread %.0f/100). Content quality %.0f, writing style %.0f, engagement %.0f; interactions average %.1f per cast with %.0f/100 consistency.",
		rep.CastCount, topic, rep.Topics.Diversity,
		content, style, engagement,
		rep.Engagement.PerCast, rep.Engagement.Consistency)
}

func clampF(min, max, v float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
