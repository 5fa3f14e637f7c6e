package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"mindcast/internal/analyze"
	"mindcast/internal/metrics"
	"mindcast/internal/model"
	"mindcast/internal/score"
)

type fakeCasts struct {
	casts []model.Cast
	err   error
	calls int
}

func (f *fakeCasts) RecentCasts(ctx context.Context, fid int64, limit int) ([]model.Cast, error) {
	f.calls++
	return f.casts, f.err
}

type fakeVerifications struct {
	accounts []model.VerifiedAccount
	err      error
	calls    int
}

func (f *fakeVerifications) VerifiedAccounts(ctx context.Context, fid int64) ([]model.VerifiedAccount, error) {
	f.calls++
	return f.accounts, f.err
}

type fakeLookup struct {
	resp  AuthoritativeScore
	err   error
	calls int
}

func (f *fakeLookup) Lookup(ctx context.Context, handle string) (AuthoritativeScore, error) {
	f.calls++
	return f.resp, f.err
}

type fakeProvider struct {
	name  model.Source
	res   ProviderResult
	err   error
	calls int
}

func (f *fakeProvider) Name() model.Source { return f.name }

func (f *fakeProvider) Score(ctx context.Context, rep analyze.Report, sample string) (ProviderResult, error) {
	f.calls++
	return f.res, f.err
}

type fakeStore struct {
	entry  model.ScoreResult
	ok     bool
	getErr error
	putErr error
	puts   []model.ScoreResult
}

func (f *fakeStore) Get(ctx context.Context, fid int64) (model.ScoreResult, bool, error) {
	return f.entry, f.ok, f.getErr
}

func (f *fakeStore) Put(ctx context.Context, res model.ScoreResult) error {
	f.puts = append(f.puts, res)
	return f.putErr
}

func someCasts() []model.Cast {
	out := make([]model.Cast, 5)
	for i := range out {
		out[i] = model.Cast{Text: strings.Repeat("thoughtful words here ", 4), LikeCount: 2, ReplyCount: 1}
	}
	return out
}

func testScorer(seed int64) *score.Scorer {
	return score.New(rand.New(rand.NewSource(seed)))
}

func TestCacheHitShortCircuits(t *testing.T) {
	casts := &fakeCasts{casts: someCasts()}
	lookup := &fakeLookup{}
	prov := &fakeProvider{name: model.SourceProviderA}
	store := &fakeStore{
		entry: model.ScoreResult{FID: 7, Score: 120, Confidence: 80, Source: model.SourceHeuristic, ComputedAt: time.Now().Add(-time.Hour)},
		ok:    true,
	}
	p := New(Options{
		Casts: casts, Authoritative: lookup, Providers: []Provider{prov},
		Store: store, Scorer: testScorer(1),
	})
	res, err := p.Score(context.Background(), 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != model.SourceCached {
		t.Fatalf("source: want cached, got %s", res.Source)
	}
	if res.Score != 120 {
		t.Fatalf("cached score passthrough: want 120, got %d", res.Score)
	}
	if casts.calls != 0 || lookup.calls != 0 || prov.calls != 0 {
		t.Fatalf("cache hit must not call collaborators: casts=%d lookup=%d provider=%d",
			casts.calls, lookup.calls, prov.calls)
	}
}

func TestStaleCacheRecomputes(t *testing.T) {
	casts := &fakeCasts{casts: someCasts()}
	store := &fakeStore{
		entry: model.ScoreResult{FID: 7, Score: 120, ComputedAt: time.Now().Add(-40 * 24 * time.Hour)},
		ok:    true,
	}
	p := New(Options{Casts: casts, Store: store, Scorer: testScorer(1)})
	res, err := p.Score(context.Background(), 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != model.SourceHeuristic {
		t.Fatalf("stale cache should recompute: got source %s", res.Source)
	}
	if casts.calls != 1 {
		t.Fatalf("expected one cast fetch, got %d", casts.calls)
	}
	if len(store.puts) != 1 {
		t.Fatalf("expected one cache write, got %d", len(store.puts))
	}
}

func TestNoContent(t *testing.T) {
	p := New(Options{Casts: &fakeCasts{}, Scorer: testScorer(1)})
	_, err := p.Score(context.Background(), 7, nil)
	if !errors.Is(err, ErrNoContent) {
		t.Fatalf("empty cast set: want ErrNoContent, got %v", err)
	}
}

func TestCastFetchFailureSurfaces(t *testing.T) {
	p := New(Options{Casts: &fakeCasts{err: errors.New("boom")}, Scorer: testScorer(1)})
	if _, err := p.Score(context.Background(), 7, nil); err == nil {
		t.Fatal("transport failure fetching casts should surface")
	}
}

func TestNoVerifiedAccountSkipsAuthoritative(t *testing.T) {
	lookup := &fakeLookup{resp: AuthoritativeScore{Score: 140}}
	prov := &fakeProvider{name: model.SourceProviderA, res: ProviderResult{Score: 110, Analysis: "ok", Confidence: 70}}
	p := New(Options{
		Casts:         &fakeCasts{casts: someCasts()},
		Verifications: &fakeVerifications{accounts: []model.VerifiedAccount{{Platform: "github", Handle: "dev"}}},
		Authoritative: lookup,
		Providers:     []Provider{prov},
		Scorer:        testScorer(1),
	})
	res, err := p.Score(context.Background(), 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if lookup.calls != 0 {
		t.Fatalf("no qualifying verified account: lookup must not be attempted, got %d calls", lookup.calls)
	}
	if res.Source != model.SourceProviderA {
		t.Fatalf("want provider A result, got %s", res.Source)
	}
}

func TestAuthoritativeWinsAndClamps(t *testing.T) {
	lookup := &fakeLookup{resp: AuthoritativeScore{Score: 200}} // out of range on purpose
	prov := &fakeProvider{name: model.SourceProviderA}
	p := New(Options{
		Casts:         &fakeCasts{casts: someCasts()},
		Verifications: &fakeVerifications{accounts: []model.VerifiedAccount{{Platform: "x", Handle: "smart"}}},
		Authoritative: lookup,
		Providers:     []Provider{prov},
		Scorer:        testScorer(1),
	})
	res, err := p.Score(context.Background(), 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != model.SourceAuthoritative {
		t.Fatalf("want authoritative, got %s", res.Source)
	}
	if res.Score != score.MaxScore {
		t.Fatalf("registry score must clamp to %d, got %d", score.MaxScore, res.Score)
	}
	if res.Confidence != 90 {
		t.Fatalf("absent registry confidence should default to 90, got %d", res.Confidence)
	}
	if prov.calls != 0 {
		t.Fatalf("authoritative hit must stop the chain, provider called %d times", prov.calls)
	}
}

func TestProviderFallthroughToHeuristic(t *testing.T) {
	provA := &fakeProvider{name: model.SourceProviderA, err: errors.New("connection reset")}
	provB := &fakeProvider{name: model.SourceProviderB, err: errors.New("timeout")}
	casts := someCasts()
	p := New(Options{
		Casts:     &fakeCasts{casts: casts},
		Providers: []Provider{provA, provB},
		Scorer:    testScorer(9),
	})
	res, err := p.Score(context.Background(), 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != model.SourceHeuristic {
		t.Fatalf("both providers failing should land on heuristic, got %s", res.Source)
	}
	if provA.calls != 1 || provB.calls != 1 {
		t.Fatalf("each provider gets exactly one attempt: A=%d B=%d", provA.calls, provB.calls)
	}
	// Same seed, same features: reproducible score.
	want, err := testScorer(9).Heuristic(analyze.BuildReport(casts))
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != want.Score {
		t.Fatalf("heuristic score not reproducible: want %d, got %d", want.Score, res.Score)
	}
}

func TestUnconfiguredProviderSkipsSilently(t *testing.T) {
	provA := &fakeProvider{name: model.SourceProviderA, err: ErrUnconfigured}
	provB := &fakeProvider{name: model.SourceProviderB, res: ProviderResult{Score: 99, Analysis: "fine", Confidence: 60}}
	p := New(Options{
		Casts:     &fakeCasts{casts: someCasts()},
		Providers: []Provider{provA, provB},
		Scorer:    testScorer(1),
	})
	res, err := p.Score(context.Background(), 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != model.SourceProviderB {
		t.Fatalf("want provider B after unconfigured A, got %s", res.Source)
	}
}

func TestDegradedWhenHeuristicFails(t *testing.T) {
	p := New(Options{Casts: &fakeCasts{casts: someCasts()}, Scorer: testScorer(3)})
	p.heuristic = func(analyze.Report) (model.ScoreResult, error) {
		return model.ScoreResult{}, errors.New("internal fault")
	}
	res, err := p.Score(context.Background(), 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != model.SourceDegraded {
		t.Fatalf("heuristic fault should reach degraded, got %s", res.Source)
	}
	if res.Score < score.MinScore || res.Score > score.MaxScore {
		t.Fatalf("degraded score out of range: %d", res.Score)
	}
	if res.Confidence < 0 || res.Confidence > 100 {
		t.Fatalf("degraded confidence out of range: %d", res.Confidence)
	}
}

func TestCacheWriteFailureStillReturnsResult(t *testing.T) {
	store := &fakeStore{putErr: errors.New("disk full")}
	p := New(Options{Casts: &fakeCasts{casts: someCasts()}, Store: store, Scorer: testScorer(1)})
	res, err := p.Score(context.Background(), 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Score < score.MinScore || res.Score > score.MaxScore {
		t.Fatalf("score out of range: %d", res.Score)
	}
	if len(store.puts) != 1 {
		t.Fatalf("write should have been attempted once, got %d", len(store.puts))
	}
}

func TestKnownVerificationsSkipFetch(t *testing.T) {
	verifications := &fakeVerifications{}
	lookup := &fakeLookup{resp: AuthoritativeScore{Score: 130, Confidence: 95}}
	p := New(Options{
		Casts:         &fakeCasts{casts: someCasts()},
		Verifications: verifications,
		Authoritative: lookup,
		Scorer:        testScorer(1),
	})
	known := []model.VerifiedAccount{{Platform: "twitter", Handle: "legacy"}}
	res, err := p.Score(context.Background(), 7, known)
	if err != nil {
		t.Fatal(err)
	}
	if verifications.calls != 0 {
		t.Fatalf("pre-fetched verifications should suppress the fetch, got %d calls", verifications.calls)
	}
	if res.Source != model.SourceAuthoritative || res.Confidence != 95 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

// slowProvider never answers; it waits for its context to die.
type slowProvider struct {
	name  model.Source
	calls int
}

func (s *slowProvider) Name() model.Source { return s.name }

func (s *slowProvider) Score(ctx context.Context, rep analyze.Report, sample string) (ProviderResult, error) {
	s.calls++
	<-ctx.Done()
	return ProviderResult{}, ctx.Err()
}

func TestTierTimeoutAdvancesChain(t *testing.T) {
	slow := &slowProvider{name: model.SourceProviderA}
	p := New(Options{
		Casts:       &fakeCasts{casts: someCasts()},
		Providers:   []Provider{slow},
		Scorer:      testScorer(1),
		TierTimeout: 50 * time.Millisecond,
	})
	start := time.Now()
	res, err := p.Score(context.Background(), 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != model.SourceHeuristic {
		t.Fatalf("timed-out provider should fall through to heuristic, got %s", res.Source)
	}
	if slow.calls != 1 {
		t.Fatalf("timed-out provider gets exactly one attempt, got %d", slow.calls)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout did not bound the tier: took %v", elapsed)
	}
}

func TestCacheReadErrorCountsAsMiss(t *testing.T) {
	store := &fakeStore{getErr: errors.New("connection refused")}
	before := testutil.ToFloat64(metrics.CacheMisses)
	p := New(Options{Casts: &fakeCasts{casts: someCasts()}, Store: store, Scorer: testScorer(1)})
	res, err := p.Score(context.Background(), 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != model.SourceHeuristic {
		t.Fatalf("unreadable cache should recompute, got %s", res.Source)
	}
	if after := testutil.ToFloat64(metrics.CacheMisses); after != before+1 {
		t.Fatalf("cache read error should count as a miss: before=%v after=%v", before, after)
	}
}

func TestCancelledContextStopsChain(t *testing.T) {
	prov := &fakeProvider{name: model.SourceProviderA, res: ProviderResult{Score: 100, Analysis: "x", Confidence: 50}}
	p := New(Options{Casts: &fakeCasts{casts: someCasts()}, Providers: []Provider{prov}, Scorer: testScorer(1)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Score(ctx, 7, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
