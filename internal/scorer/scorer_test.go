package scorer

import (
	"testing"
	"time"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/config"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/model"
	"github.com/go-playground/assert/v2"
)

func testRanker() config.Ranker {
	return config.Ranker{
		Sources: map[string]config.SourceProfile{
			"reuters":   {Trust: 95, Speed: 85, Tier: 1},
			"bloomberg": {Trust: 93, Speed: 90, Tier: 1},
			"benzinga":  {Trust: 55, Speed: 80, Tier: 3},
		},
		EventWeights: map[string]float64{
			"earnings":          70,
			"m_and_a_confirmed": 90,
			"guidance":          80,
			"other":             20,
		},
		Freshness:   config.FreshnessConfig{HalfLifeMinutes: 720, Floor: 0.15},
		Scoring:     config.ScoringWeights{SourceWeight: 0.45, EventWeight: 0.40, FreshnessWeight: 0.15},
		Syndication: config.SyndicationConfig{ConfirmBoostPerExtraSource: 0.15, ConfirmBoostCap: 1.0, Tier1Boost: 0.25},
		Novelty:     config.NoveltyConfig{SameTagPenalty6h: 0.25, SameTagPenalty24h: 0.15, SameTagPenalty48h: 0.05},
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)
}

func newTestScorer() *Scorer {
	return New(testRanker()).WithClock(fixedNow)
}

func cluster(sources []string, published time.Time) model.Cluster {
	return model.Cluster{
		Key:          "https://reuters.com/a",
		CanonicalURL: "https://reuters.com/a",
		Sources:      sources,
		EarliestPub:  published,
	}
}

func tags(names ...string) []model.Tag {
	out := make([]model.Tag, len(names))
	for i, n := range names {
		out[i] = model.Tag{Name: n, Confidence: model.ConfidenceMedium}
	}
	return out
}

func TestScoreClampedToRange(t *testing.T) {
	s := newTestScorer()

	high := s.Score(cluster([]string{"reuters", "bloomberg", "benzinga"}, fixedNow()),
		tags("m_and_a_confirmed", "guidance", "earnings"), nil)
	assert.Equal(t, true, high.Score <= 100)
	assert.Equal(t, true, high.Score >= 0)

	tracker := NewTracker(testRanker().Novelty)
	tracker.Record("other", fixedNow())
	low := s.Score(cluster(nil, fixedNow().Add(-90*24*time.Hour)), tags("other"), tracker)
	assert.Equal(t, true, low.Score >= 0)
}

func TestScoreDeterministic(t *testing.T) {
	s := newTestScorer()
	c := cluster([]string{"reuters"}, fixedNow().Add(-2*time.Hour))

	a := s.Score(c, tags("earnings"), nil)
	b := s.Score(c, tags("earnings"), nil)
	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.WhyRanked, b.WhyRanked)
}

func TestConfirmBoostIsMultiplicative(t *testing.T) {
	cfg := testRanker()
	// Disable tier1 so only the confirmation boost differs.
	cfg.Syndication.Tier1Boost = 0
	s := New(cfg).WithClock(fixedNow)

	published := fixedNow().Add(-1 * time.Hour)
	single := s.Score(cluster([]string{"benzinga"}, published), tags("earnings"), nil)
	triple := s.Score(cluster([]string{"benzinga", "cnbc", "marketwatch"}, published), tags("earnings"), nil)

	// Three distinct sources: boost = min(1.0, 0.15*2) = 0.30 on the base.
	assert.Equal(t, 0.3, triple.Breakdown.ConfirmBoost)
	wantRatio := 1.30
	gotRatio := triple.Score / single.Score
	if gotRatio < wantRatio-0.02 || gotRatio > wantRatio+0.02 {
		t.Errorf("confirm boost not multiplicative: ratio %v, want ~%v", gotRatio, wantRatio)
	}
}

func TestConfirmBoostCapped(t *testing.T) {
	cfg := testRanker()
	cfg.Syndication.ConfirmBoostCap = 0.2
	s := New(cfg).WithClock(fixedNow)

	many := s.Score(cluster([]string{"a", "b", "c", "d", "e"}, fixedNow()), tags("earnings"), nil)
	assert.Equal(t, 0.2, many.Breakdown.ConfirmBoost)
}

func TestTier1Boost(t *testing.T) {
	s := newTestScorer()
	published := fixedNow().Add(-1 * time.Hour)

	tier1 := s.Score(cluster([]string{"reuters"}, published), tags("earnings"), nil)
	tier3 := s.Score(cluster([]string{"benzinga"}, published), tags("earnings"), nil)

	assert.Equal(t, 0.25, tier1.Breakdown.Tier1Boost)
	assert.Equal(t, 0.0, tier3.Breakdown.Tier1Boost)
	assert.Equal(t, true, tier1.Score > tier3.Score)
}

func TestFreshnessDecay(t *testing.T) {
	s := newTestScorer()

	fresh := s.Score(cluster([]string{"reuters"}, fixedNow().Add(-30*time.Minute)), tags("earnings"), nil)
	stale := s.Score(cluster([]string{"reuters"}, fixedNow().Add(-48*time.Hour)), tags("earnings"), nil)

	assert.Equal(t, true, fresh.Score > stale.Score)
	// Floor holds no matter how old.
	assert.Equal(t, 0.15, stale.Breakdown.Freshness)
}

func TestMissingPublishTimeUsesFetchTime(t *testing.T) {
	s := newTestScorer()

	unknown := s.Score(cluster([]string{"reuters"}, time.Time{}), tags("earnings"), nil)
	now := s.Score(cluster([]string{"reuters"}, fixedNow()), tags("earnings"), nil)

	assert.Equal(t, now.Breakdown.Freshness, unknown.Breakdown.Freshness)
	assert.Equal(t, 1.0, unknown.Breakdown.Freshness)
}

func TestUnknownSourceUsesDefaults(t *testing.T) {
	s := newTestScorer()

	sc := s.Score(cluster([]string{"someblog"}, fixedNow()), tags("earnings"), nil)
	// 0.7*40 + 0.3*50 = 43
	assert.Equal(t, 43.0, sc.Breakdown.Source)
	assert.Equal(t, 0.0, sc.Breakdown.Tier1Boost)
}

func TestSecondaryTagBonus(t *testing.T) {
	s := newTestScorer()
	published := fixedNow()

	one := s.Score(cluster([]string{"reuters"}, published), tags("m_and_a_confirmed"), nil)
	two := s.Score(cluster([]string{"reuters"}, published), tags("m_and_a_confirmed", "earnings"), nil)

	assert.Equal(t, true, two.Breakdown.Event > one.Breakdown.Event)
	// Secondary contribution is 0.15 * min(60, 70) = 9.
	assert.Equal(t, one.Breakdown.Event+9, two.Breakdown.Event)
}

func TestNoveltyPenaltyWindows(t *testing.T) {
	cfg := testRanker()
	tracker := NewTracker(cfg.Novelty)
	now := fixedNow()

	assert.Equal(t, 0.0, tracker.Penalty("earnings", now))

	tracker.Record("earnings", now.Add(-2*time.Hour))
	assert.Equal(t, 0.25, tracker.Penalty("earnings", now))

	tracker = NewTracker(cfg.Novelty)
	tracker.Record("earnings", now.Add(-12*time.Hour))
	assert.Equal(t, 0.15, tracker.Penalty("earnings", now))

	tracker = NewTracker(cfg.Novelty)
	tracker.Record("earnings", now.Add(-36*time.Hour))
	assert.Equal(t, 0.05, tracker.Penalty("earnings", now))

	tracker = NewTracker(cfg.Novelty)
	tracker.Record("earnings", now.Add(-72*time.Hour))
	assert.Equal(t, 0.0, tracker.Penalty("earnings", now))
}

func TestNoveltyPenaltyLowersScore(t *testing.T) {
	s := newTestScorer()
	published := fixedNow().Add(-1 * time.Hour)

	clean := s.Score(cluster([]string{"reuters"}, published), tags("earnings"), nil)

	tracker := NewTracker(testRanker().Novelty)
	tracker.Record("earnings", fixedNow())
	penalized := s.Score(cluster([]string{"reuters"}, published), tags("earnings"), tracker)

	assert.Equal(t, true, penalized.Score < clean.Score)
	assert.Equal(t, 0.25, penalized.Breakdown.NoveltyPenalty)
}

func TestQueryGroupAndSourceTypeWeights(t *testing.T) {
	cfg := testRanker()
	cfg.QueryGroupWeights = map[string]float64{"funding_news": 1.2}
	cfg.SourceTypeWeights = map[string]float64{model.SourceTypeBlog: 0.7}
	s := New(cfg).WithClock(fixedNow)

	base := cluster([]string{"benzinga"}, fixedNow())
	plain := s.Score(base, tags("earnings"), nil)

	boosted := base
	boosted.QueryGroup = "funding_news"
	assert.Equal(t, true, s.Score(boosted, tags("earnings"), nil).Score > plain.Score)

	demoted := base
	demoted.SourceType = model.SourceTypeBlog
	assert.Equal(t, true, s.Score(demoted, tags("earnings"), nil).Score < plain.Score)
}
