package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"mindcast/internal/analyze"
	"mindcast/internal/pipeline"
	"mindcast/internal/score"
)

// buildPrompt assembles the scoring request sent to either provider. The
// feature report is serialized inline so the model grounds its estimate in
// the same numbers the heuristic would use.
func buildPrompt(rep analyze.Report, sample string) string {
	var sb strings.Builder
	sb.WriteString("Estimate a cognitive score for a social media account from the metrics and post sample below.\n")
	sb.WriteString("Respond with only a JSON object: {\"score\": <int 55-145>, \"analysis\": \"<2-3 sentences>\", \"confidence\": <int 0-100>}\n\n")
	fmt.Fprintf(&sb, "Casts analyzed: %d\n", rep.CastCount)
	fmt.Fprintf(&sb, "Avg length: %.1f chars, long ratio %.2f, short ratio %.2f\n",
		rep.Content.AvgLength, rep.Content.LongRatio, rep.Content.ShortRatio)
	fmt.Fprintf(&sb, "Links %.2f, mentions %.2f, hashtags %.2f, questions %.2f\n",
		rep.Content.LinkRatio, rep.Content.MentionRatio, rep.Content.HashtagRatio, rep.Content.QuestionRatio)
	fmt.Fprintf(&sb, "Engagement per cast: %.1f, consistency %.0f/100, viral ratio %.2f\n",
		rep.Engagement.PerCast, rep.Engagement.Consistency, rep.Engagement.ViralRatio)
	fmt.Fprintf(&sb, "Vocabulary ratio %.2f, avg words/sentence %.1f, proper capitalization %.2f\n",
		rep.Style.VocabularyRatio, rep.Style.AvgWordsPerSentence, rep.Style.ProperCapRatio)
	fmt.Fprintf(&sb, "Topic diversity %.0f/100, primary topic: %s\n\n", rep.Topics.Diversity, rep.Topics.PrimaryTopic)
	sb.WriteString("Recent casts:\n")
	sb.WriteString(sample)
	return sb.String()
}

type scorePayload struct {
	Score      *int   `json:"score"`
	Analysis   string `json:"analysis"`
	Confidence *int   `json:"confidence"`
}

// parseScorePayload extracts and validates the JSON object a provider
// returned. Models often wrap JSON in markdown fences; those are stripped.
// Missing fields or out-of-range numbers are ErrMalformed.
func parseScorePayload(text string) (pipeline.ProviderResult, error) {
	var out pipeline.ProviderResult
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "{"); i >= 0 {
		if j := strings.LastIndex(text, "}"); j > i {
			text = text[i : j+1]
		}
	}
	var payload scorePayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return out, fmt.Errorf("%w: %v", pipeline.ErrMalformed, err)
	}
	if payload.Score == nil || payload.Confidence == nil || strings.TrimSpace(payload.Analysis) == "" {
		return out, fmt.Errorf("%w: missing fields", pipeline.ErrMalformed)
	}
	if *payload.Score < score.MinScore || *payload.Score > score.MaxScore {
		return out, fmt.Errorf("%w: score %d out of range", pipeline.ErrMalformed, *payload.Score)
	}
	if *payload.Confidence < score.MinConfidence || *payload.Confidence > score.MaxConfidence {
		return out, fmt.Errorf("%w: confidence %d out of range", pipeline.ErrMalformed, *payload.Confidence)
	}
	out.Score = *payload.Score
	out.Analysis = strings.TrimSpace(payload.Analysis)
	out.Confidence = *payload.Confidence
	return out, nil
}
