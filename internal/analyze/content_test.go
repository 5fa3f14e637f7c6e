package analyze

import (
	"strings"
	"testing"

	"mindcast/internal/model"
)

func TestContentQualityRatios(t *testing.T) {
	casts := []model.Cast{
		{Text: strings.Repeat("a", 120)},                 // long
		{Text: "short one"},                              // short
		{Text: "check https://example.com and tell @me"}, // link + mention, short? 38 chars -> short
		{Text: "what do you think? #thinking " + strings.Repeat("b", 40)},
	}
	m := ContentQuality(casts)
	if m.LongRatio != 0.25 {
		t.Fatalf("long ratio: want 0.25, got %v", m.LongRatio)
	}
	if m.LinkRatio != 0.25 {
		t.Fatalf("link ratio: want 0.25, got %v", m.LinkRatio)
	}
	if m.MentionRatio != 0.25 {
		t.Fatalf("mention ratio: want 0.25, got %v", m.MentionRatio)
	}
	if m.HashtagRatio != 0.25 {
		t.Fatalf("hashtag ratio: want 0.25, got %v", m.HashtagRatio)
	}
	if m.QuestionRatio != 0.25 {
		t.Fatalf("question ratio: want 0.25, got %v", m.QuestionRatio)
	}
	if m.ShortRatio != 0.5 {
		t.Fatalf("short ratio: want 0.5, got %v", m.ShortRatio)
	}
}

func TestContentQualityEmoji(t *testing.T) {
	m := ContentQuality([]model.Cast{
		{Text: "plain text"},
		{Text: "gm 🌞"},
	})
	if m.EmojiRatio != 0.5 {
		t.Fatalf("emoji ratio: want 0.5, got %v", m.EmojiRatio)
	}
}

func TestContentQualityEmptySet(t *testing.T) {
	m := ContentQuality(nil)
	if m != (ContentMetrics{}) {
		t.Fatalf("empty set should be zero value: %+v", m)
	}
}
