package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mindcast/internal/analyze"
	"mindcast/internal/logging"
	"mindcast/internal/metrics"
	"mindcast/internal/model"
	"mindcast/internal/score"
	"mindcast/internal/util"
)

const (
	defaultTierTimeout = 20 * time.Second
	defaultCastLimit   = 100
	defaultSampleCasts = 10
	sampleCastRunes    = 280
)

// Options wires the pipeline's collaborators. Casts and Scorer are required;
// everything else degrades to a skip when absent.
type Options struct {
	Casts         CastSource
	Verifications VerificationSource
	Authoritative AuthoritativeLookup
	Providers     []Provider
	Store         Store
	Scorer        *score.Scorer
	Freshness     time.Duration
	TierTimeout   time.Duration
	CastLimit     int
	SampleCasts   int
}

// Pipeline runs the ordered fallback chain: cache gate, authoritative
// lookup, LLM providers, local heuristic, degraded fallback. Tiers run
// strictly in sequence; no tier is retried; one failing tier never blocks
// the next. Invocations for different accounts are independent — the
// pipeline holds no cross-invocation mutable state beyond the external
// store.
type Pipeline struct {
	opts  Options
	tiers []tier
	now   func() time.Time
	// heuristic is swappable so tests can force the degraded tier.
	heuristic func(analyze.Report) (model.ScoreResult, error)
}

type outcome int

const (
	outcomeHit outcome = iota
	outcomeSkip
	outcomeFail
)

// tier is one stage of the chain with a uniform attempt contract.
type tier struct {
	name    string
	attempt func(ctx context.Context, inv *invocation) (model.ScoreResult, outcome)
}

// invocation carries per-request state through the tiers.
type invocation struct {
	fid      int64
	report   analyze.Report
	sample   string
	verified []model.VerifiedAccount
}

// New builds a pipeline from options, applying defaults.
func New(opts Options) *Pipeline {
	if opts.Freshness <= 0 {
		opts.Freshness = DefaultFreshness
	}
	if opts.TierTimeout <= 0 {
		opts.TierTimeout = defaultTierTimeout
	}
	if opts.CastLimit <= 0 {
		opts.CastLimit = defaultCastLimit
	}
	if opts.SampleCasts <= 0 {
		opts.SampleCasts = defaultSampleCasts
	}
	p := &Pipeline{opts: opts, now: time.Now}
	p.heuristic = opts.Scorer.Heuristic
	p.tiers = []tier{
		{name: "authoritative", attempt: p.attemptAuthoritative},
	}
	for _, prov := range opts.Providers {
		p.tiers = append(p.tiers, tier{name: string(prov.Name()), attempt: p.providerTier(prov)})
	}
	p.tiers = append(p.tiers,
		tier{name: "heuristic", attempt: p.attemptHeuristic},
		tier{name: "degraded", attempt: p.attemptDegraded},
	)
	return p
}

// Score runs the full chain for one account. known may carry pre-fetched
// verified accounts; pass nil to have the pipeline fetch them. Returns
// ErrNoContent when the account has no casts; every other path yields a
// result with score in [55,145] and confidence in [0,100].
func (p *Pipeline) Score(ctx context.Context, fid int64, known []model.VerifiedAccount) (model.ScoreResult, error) {
	start := time.Now()
	defer metrics.ObservePipelineDuration(start)

	if cached, ok := p.checkCache(ctx, fid); ok {
		metrics.IncScore(string(model.SourceCached))
		return cached, nil
	}

	casts, err := p.opts.Casts.RecentCasts(ctx, fid, p.opts.CastLimit)
	if err != nil {
		return model.ScoreResult{}, fmt.Errorf("fetch casts for fid %d: %w", fid, err)
	}
	if len(casts) == 0 {
		return model.ScoreResult{}, ErrNoContent
	}

	inv := &invocation{
		fid:      fid,
		report:   analyze.BuildReport(casts),
		sample:   sampleText(casts, p.opts.SampleCasts),
		verified: known,
	}
	if inv.verified == nil && p.opts.Verifications != nil {
		verified, err := p.opts.Verifications.VerifiedAccounts(ctx, fid)
		if err != nil {
			logging.Error("verifications_fetch_failed", map[string]any{"fid": fid, "error": err.Error()})
		} else {
			inv.verified = verified
		}
	}

	for _, t := range p.tiers {
		if err := ctx.Err(); err != nil {
			return model.ScoreResult{}, err
		}
		res, out := t.attempt(ctx, inv)
		switch out {
		case outcomeHit:
			return p.finalize(ctx, fid, res), nil
		case outcomeSkip:
			metrics.IncTierSkip(t.name)
		case outcomeFail:
			metrics.IncTierFailure(t.name)
		}
	}
	// Unreachable: the degraded tier always hits.
	return model.ScoreResult{}, fmt.Errorf("no tier produced a result for fid %d", fid)
}

func (p *Pipeline) checkCache(ctx context.Context, fid int64) (model.ScoreResult, bool) {
	if p.opts.Store == nil {
		return model.ScoreResult{}, false
	}
	res, ok, err := p.opts.Store.Get(ctx, fid)
	if err != nil {
		logging.Error("cache_read_failed", map[string]any{"fid": fid, "error": err.Error()})
		metrics.IncCacheMiss()
		return model.ScoreResult{}, false
	}
	if !ok || !Fresh(res.ComputedAt, p.now(), p.opts.Freshness) {
		metrics.IncCacheMiss()
		return model.ScoreResult{}, false
	}
	metrics.IncCacheHit()
	res.Source = model.SourceCached
	return res, true
}

func (p *Pipeline) attemptAuthoritative(ctx context.Context, inv *invocation) (model.ScoreResult, outcome) {
	if p.opts.Authoritative == nil {
		return model.ScoreResult{}, outcomeSkip
	}
	handle := verifiedXHandle(inv.verified)
	if handle == "" {
		return model.ScoreResult{}, outcomeSkip
	}
	tctx, cancel := context.WithTimeout(ctx, p.opts.TierTimeout)
	defer cancel()
	resp, err := p.opts.Authoritative.Lookup(tctx, handle)
	if err != nil {
		if errors.Is(err, ErrUnconfigured) {
			return model.ScoreResult{}, outcomeSkip
		}
		logging.Error("authoritative_lookup_failed", map[string]any{"fid": inv.fid, "handle": handle, "error": err.Error()})
		return model.ScoreResult{}, outcomeFail
	}
	confidence := resp.Confidence
	if confidence <= 0 {
		confidence = 90
	}
	return model.ScoreResult{
		Score:      resp.Score,
		Analysis:   fmt.Sprintf("Registered score for verified handle @%s.", handle),
		Confidence: confidence,
		Source:     model.SourceAuthoritative,
	}, outcomeHit
}

func (p *Pipeline) providerTier(prov Provider) func(ctx context.Context, inv *invocation) (model.ScoreResult, outcome) {
	return func(ctx context.Context, inv *invocation) (model.ScoreResult, outcome) {
		tctx, cancel := context.WithTimeout(ctx, p.opts.TierTimeout)
		defer cancel()
		resp, err := prov.Score(tctx, inv.report, inv.sample)
		if err != nil {
			if errors.Is(err, ErrUnconfigured) {
				return model.ScoreResult{}, outcomeSkip
			}
			logging.Error("provider_failed", map[string]any{"fid": inv.fid, "provider": string(prov.Name()), "error": err.Error()})
			return model.ScoreResult{}, outcomeFail
		}
		return model.ScoreResult{
			Score:      resp.Score,
			Analysis:   resp.Analysis,
			Confidence: resp.Confidence,
			Source:     prov.Name(),
		}, outcomeHit
	}
}

func (p *Pipeline) attemptHeuristic(_ context.Context, inv *invocation) (model.ScoreResult, outcome) {
	res, err := p.heuristic(inv.report)
	if err != nil {
		logging.Error("heuristic_failed", map[string]any{"fid": inv.fid, "error": err.Error()})
		return model.ScoreResult{}, outcomeFail
	}
	return res, outcomeHit
}

func (p *Pipeline) attemptDegraded(_ context.Context, _ *invocation) (model.ScoreResult, outcome) {
	return p.opts.Scorer.Degraded(), outcomeHit
}

// finalize clamps, stamps, persists, and counts a tier result. A cache write
// failure is logged and never fails the request.
func (p *Pipeline) finalize(ctx context.Context, fid int64, res model.ScoreResult) model.ScoreResult {
	res.FID = fid
	res.Score = score.ClampScore(res.Score)
	res.Confidence = score.ClampConfidence(res.Confidence)
	res.ComputedAt = p.now()
	metrics.IncScore(string(res.Source))
	if p.opts.Store != nil {
		if err := p.opts.Store.Put(ctx, res); err != nil {
			logging.Error("cache_write_failed", map[string]any{"fid": fid, "error": err.Error()})
		}
	}
	return res
}

// verifiedXHandle returns the first verified X handle, the only platform the
// authoritative registry is keyed by. "twitter" is accepted as a legacy alias.
func verifiedXHandle(accounts []model.VerifiedAccount) string {
	for _, a := range accounts {
		switch strings.ToLower(a.Platform) {
		case "x", "twitter":
			if a.Handle != "" {
				return a.Handle
			}
		}
	}
	return ""
}

func sampleText(casts []model.Cast, n int) string {
	if n > len(casts) {
		n = len(casts)
	}
	lines := make([]string, 0, n)
	for _, c := range casts[:n] {
		lines = append(lines, util.TruncateRunes(util.NormalizeWhitespace(c.Text), sampleCastRunes))
	}
	return strings.Join(lines, "\n")
}
