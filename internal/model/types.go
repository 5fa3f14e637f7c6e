package model

import "time"

// Cast represents a subset of Farcaster cast fields used by the scorer.
// Immutable once fetched.
type Cast struct {
	Hash        string
	FID         int64
	Text        string
	Timestamp   time.Time
	LikeCount   int
	RecastCount int
	ReplyCount  int
}

// Interactions is likes + recasts + replies for one cast.
func (c Cast) Interactions() int {
	return c.LikeCount + c.RecastCount + c.ReplyCount
}

// User represents a subset of Farcaster user fields used by the scorer.
type User struct {
	FID            int64
	Username       string
	DisplayName    string
	Bio            string
	FollowerCount  int
	FollowingCount int
}

// VerifiedAccount is an off-platform account the network attests belongs to
// the user, e.g. an X handle. A user may carry zero or more.
type VerifiedAccount struct {
	Platform string
	Handle   string
}

// Source identifies which tier of the fallback chain produced a result.
type Source string

const (
	SourceCached        Source = "cached"
	SourceAuthoritative Source = "authoritative"
	SourceProviderA     Source = "openai"
	SourceProviderB     Source = "gemini"
	SourceHeuristic     Source = "heuristic"
	SourceDegraded      Source = "degraded"
)

// ScoreResult is the outcome of one scoring invocation. Score is always in
// [55,145] and Confidence in [0,100], regardless of which tier produced it.
type ScoreResult struct {
	FID        int64
	Score      int
	Analysis   string
	Confidence int
	Source     Source
	ComputedAt time.Time
}
