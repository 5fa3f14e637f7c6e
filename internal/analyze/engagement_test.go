package analyze

import (
	"testing"

	"mindcast/internal/model"
)

func TestConsistencyUniform(t *testing.T) {
	casts := []model.Cast{
		{Text: "a", LikeCount: 3, RecastCount: 1, ReplyCount: 1},
		{Text: "b", LikeCount: 3, RecastCount: 1, ReplyCount: 1},
		{Text: "c", LikeCount: 3, RecastCount: 1, ReplyCount: 1},
	}
	m := EngagementStats(casts)
	if m.Consistency != 100 {
		t.Fatalf("uniform interactions should score 100, got %v", m.Consistency)
	}
	if m.PerCast != 5 {
		t.Fatalf("per-cast interactions: want 5, got %v", m.PerCast)
	}
}

func TestConsistencySingleCast(t *testing.T) {
	m := EngagementStats([]model.Cast{{Text: "a", LikeCount: 10}})
	if m.Consistency != 0 {
		t.Fatalf("single cast should score 0 consistency, got %v", m.Consistency)
	}
}

func TestConsistencyVariedIsLower(t *testing.T) {
	m := EngagementStats([]model.Cast{
		{LikeCount: 0},
		{LikeCount: 100},
	})
	if m.Consistency >= 100 || m.Consistency < 0 {
		t.Fatalf("varied interactions should be in [0,100), got %v", m.Consistency)
	}
}

func TestEngagementThresholds(t *testing.T) {
	casts := []model.Cast{
		{LikeCount: 5, RecastCount: 3, ReplyCount: 3},   // 11 interactions: high
		{LikeCount: 40, RecastCount: 20, ReplyCount: 0}, // 60 likes+recasts: viral (and high)
		{LikeCount: 1},
		{LikeCount: 0},
	}
	m := EngagementStats(casts)
	if m.HighRatio != 0.5 {
		t.Fatalf("high ratio: want 0.5, got %v", m.HighRatio)
	}
	if m.ViralRatio != 0.25 {
		t.Fatalf("viral ratio: want 0.25, got %v", m.ViralRatio)
	}
	if m.TotalInteractions != 72 {
		t.Fatalf("total interactions: want 72, got %d", m.TotalInteractions)
	}
}

func TestEngagementEmptySet(t *testing.T) {
	m := EngagementStats(nil)
	if m.TotalInteractions != 0 || m.PerCast != 0 || m.Consistency != 0 {
		t.Fatalf("empty set should be all zeros: %+v", m)
	}
}
