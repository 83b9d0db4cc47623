package scorer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/config"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/model"
)

// Defaults for a source absent from the configured tables.
const (
	defaultTrust       = 40.0
	defaultSpeed       = 50.0
	defaultTier        = 3
	defaultEventWeight = 20.0
)

// eventBonusCap bounds the contribution of secondary tags.
const eventBonusCap = 60.0

// Scorer computes the bounded relevance score from the ranker
// configuration. All weights arrive as input; the scorer embeds no
// tunable constants of its own, so behavior changes with configuration
// only. Scoring is pure per candidate and safe to run concurrently.
type Scorer struct {
	cfg config.Ranker
	now func() time.Time
}

func New(cfg config.Ranker) *Scorer {
	return &Scorer{cfg: cfg, now: time.Now}
}

// WithClock overrides the freshness reference time; used by tests and
// by pipelines that pin a run timestamp.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// Score produces the ScoredCandidate for one cluster. novelty may be
// nil when no recent-run overlap tracking applies.
func (s *Scorer) Score(cluster model.Cluster, tags []model.Tag, novelty *Tracker) model.ScoredCandidate {
	now := s.now().UTC()

	trust, speed, anyTier1 := s.bestSource(cluster.Sources)
	sourceScore := 0.7*trust + 0.3*speed

	eventScore, primaryWeight := s.eventScore(tags)

	freshness := s.freshness(cluster.EarliestPub, now)

	syn := s.cfg.Syndication
	confirmBoost := math.Min(syn.ConfirmBoostCap,
		syn.ConfirmBoostPerExtraSource*float64(cluster.DistinctSources()-1))

	tier1Boost := 0.0
	if anyTier1 {
		tier1Boost = syn.Tier1Boost
	}

	noveltyPenalty := 0.0
	if novelty != nil {
		noveltyPenalty = novelty.Penalty(model.PrimaryTag(tags), now)
	}

	w := s.cfg.Scoring
	base := w.SourceWeight*sourceScore + w.EventWeight*eventScore + w.FreshnessWeight*(freshness*100)

	// Query-group and source-type weights scale the base before the
	// confirmation boosts; both default to 1.0 when unconfigured.
	base *= s.groupWeight(cluster.QueryGroup) * s.sourceTypeWeight(cluster.SourceType)

	final := base*(1+confirmBoost+tier1Boost) - noveltyPenalty*100
	final = math.Max(0, math.Min(100, final))

	why := fmt.Sprintf("Event=%s(%.0f) Source=%.0f Fresh=%.2f",
		model.PrimaryTag(tags), primaryWeight, sourceScore, freshness)
	if confirmBoost > 0 {
		why += fmt.Sprintf(" Confirm=%dsrc", cluster.DistinctSources())
	}
	if tier1Boost > 0 {
		why += " Tier1+"
	}
	if noveltyPenalty > 0 {
		why += fmt.Sprintf(" Novelty-%.0f", noveltyPenalty*100)
	}

	return model.ScoredCandidate{
		Cluster: cluster,
		Tags:    tags,
		Score:   round1(final),
		Breakdown: model.ScoreBreakdown{
			Source:         sourceScore,
			Event:          eventScore,
			Freshness:      freshness,
			ConfirmBoost:   confirmBoost,
			Tier1Boost:     tier1Boost,
			NoveltyPenalty: noveltyPenalty,
		},
		WhyRanked: why,
	}
}

// bestSource picks the highest-trust profile among the cluster's
// distinct sources and reports whether any of them is tier-1.
func (s *Scorer) bestSource(sources []string) (trust, speed float64, anyTier1 bool) {
	trust, speed = defaultTrust, defaultSpeed
	found := false
	for _, label := range sources {
		profile, ok := s.cfg.Sources[label]
		if !ok {
			continue
		}
		if profile.Tier == 1 {
			anyTier1 = true
		}
		if !found || profile.Trust > trust {
			trust, speed = profile.Trust, profile.Speed
			found = true
		}
	}
	return trust, speed, anyTier1
}

func (s *Scorer) eventScore(tags []model.Tag) (score, primaryWeight float64) {
	if len(tags) == 0 {
		return defaultEventWeight, defaultEventWeight
	}

	weights := make([]float64, 0, len(tags))
	for _, t := range tags {
		weights = append(weights, s.tagWeight(t.Name))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(weights)))

	maxWeight := weights[0]
	rest := 0.0
	for _, w := range weights[1:] {
		rest += w
	}
	primaryWeight = s.tagWeight(tags[0].Name)
	return maxWeight + 0.15*math.Min(eventBonusCap, rest), primaryWeight
}

func (s *Scorer) tagWeight(name string) float64 {
	if w, ok := s.cfg.EventWeights[name]; ok {
		return w
	}
	return defaultEventWeight
}

// freshness treats a missing publish time as "now" so a nil timestamp
// never propagates into the arithmetic.
func (s *Scorer) freshness(published, now time.Time) float64 {
	if published.IsZero() || published.After(now) {
		published = now
	}
	minutes := now.Sub(published).Minutes()
	raw := math.Exp(-minutes / s.cfg.Freshness.HalfLifeMinutes)
	return math.Max(s.cfg.Freshness.Floor, math.Min(1.0, raw))
}

func (s *Scorer) groupWeight(group string) float64 {
	if group == "" {
		return 1.0
	}
	if w, ok := s.cfg.QueryGroupWeights[group]; ok {
		return w
	}
	return 1.0
}

func (s *Scorer) sourceTypeWeight(sourceType string) float64 {
	if sourceType == "" {
		return 1.0
	}
	if w, ok := s.cfg.SourceTypeWeights[sourceType]; ok {
		return w
	}
	return 1.0
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
