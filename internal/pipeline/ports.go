package pipeline

import (
	"context"
	"errors"

	"mindcast/internal/analyze"
	"mindcast/internal/model"
)

// Sentinel errors shared with the collaborator implementations.
var (
	// ErrNoContent is returned to the caller when the account has no casts.
	// It is the one case the pipeline refuses to fabricate a number for.
	ErrNoContent = errors.New("no content to score")
	// ErrUnconfigured marks a tier whose credential or endpoint is missing.
	// The tier is skipped silently.
	ErrUnconfigured = errors.New("tier not configured")
	// ErrMalformed marks a provider response missing required fields or
	// failing range validation. Treated like a transport failure.
	ErrMalformed = errors.New("malformed provider response")
)

// CastSource fetches an account's recent casts.
type CastSource interface {
	RecentCasts(ctx context.Context, fid int64, limit int) ([]model.Cast, error)
}

// VerificationSource fetches an account's verified off-platform accounts.
type VerificationSource interface {
	VerifiedAccounts(ctx context.Context, fid int64) ([]model.VerifiedAccount, error)
}

// AuthoritativeScore is the response of the external registry lookup.
type AuthoritativeScore struct {
	Score      int
	Confidence int
}

// AuthoritativeLookup queries the external score registry by verified handle.
type AuthoritativeLookup interface {
	Lookup(ctx context.Context, handle string) (AuthoritativeScore, error)
}

// ProviderResult is the parsed payload of an LLM scoring call.
type ProviderResult struct {
	Score      int
	Analysis   string
	Confidence int
}

// Provider scores a feature report with an LLM backend. Implementations
// return ErrUnconfigured before any network I/O when their credential is
// absent, and ErrMalformed for unusable payloads.
type Provider interface {
	Name() model.Source
	Score(ctx context.Context, rep analyze.Report, sample string) (ProviderResult, error)
}

// Store reads and writes cached score results keyed by fid. Writes are
// fire-and-forget from the pipeline's perspective.
type Store interface {
	Get(ctx context.Context, fid int64) (model.ScoreResult, bool, error)
	Put(ctx context.Context, res model.ScoreResult) error
}
