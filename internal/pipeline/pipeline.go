package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/canonical"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/config"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/ledger"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/model"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/scorer"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/selector"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/tagger"
)

const dateLayout = "2006-01-02"

// Ledger group names, one per capability. These key the durable seen
// history and must stay stable across releases.
const (
	groupStocks        = "stocks"
	groupPrivateMarket = "private_market"
	groupRedditAI      = "reddit_ai"
	groupCompanyWatch  = "company_watch"
)

// Engine is the per-capability machinery shared by all four pipelines:
// clustering, tagging, scoring, seen-filtering, selection.
type Engine struct {
	cfg       *config.Set
	clusterer *Clusterer
	ledger    *ledger.Ledger
	now       func() time.Time
}

func NewEngine(cfg *config.Set, led *ledger.Ledger) *Engine {
	canon := canonical.New(cfg.Ranker.Dedupe.StripQueryParams)
	return &Engine{
		cfg:       cfg,
		clusterer: NewClusterer(canon, cfg.Ranker.Sources),
		ledger:    led,
		now:       time.Now,
	}
}

// WithClock pins the run timestamp; used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// entityOutcome is one entity's processed slice plus the bookkeeping
// the capability needs for the ledger write and the failure policy.
type entityOutcome struct {
	result   model.EntityResult
	keys     []string
	queries  int
	failures int
}

// processEntity runs cluster → tag → score → seen-filter → select for
// one entity. Candidates beyond the per-entity safety valve are cut
// before clustering. thresholds arrive by value so capabilities can
// locally disable the glance tier.
func (e *Engine) processEntity(ctx context.Context, group, entity string, raws []model.RawCandidate,
	tg *tagger.Tagger, identifiers []string, sc *scorer.Scorer, th config.Thresholds, topCap int) entityOutcome {

	if max := e.cfg.Ranker.MaxCandidatesPerEntity; len(raws) > max {
		raws = raws[:max]
	}

	clusters := e.clusterer.Cluster(raws)
	sortClusters(clusters)

	novelty := scorer.NewTracker(e.cfg.Ranker.Novelty)
	scored := make([]model.ScoredCandidate, 0, len(clusters))
	for _, cl := range clusters {
		tags := tg.Tag(ctx, cl.Title, cl.Snippet, identifiers)
		scored = append(scored, sc.Score(cl, tags, novelty))
		if !cl.EarliestPub.IsZero() {
			novelty.Record(model.PrimaryTag(tags), cl.EarliestPub)
		}
	}

	seen := e.ledger.SeenSet(ctx, group, e.cfg.Ranker.Dedupe.DedupeDays)
	sel := selector.Select(scored, seen, th, topCap)

	return entityOutcome{
		result: model.EntityResult{
			Entity: entity,
			Items:  toItems(sel.Top),
			Glance: toItemsOrNil(sel.Glance),
			Stats: model.EntityStats{
				RawCandidates: len(raws),
				DroppedSeen:   sel.DroppedSeen,
				DroppedScore:  sel.DroppedScore,
				DroppedCap:    sel.DroppedCap,
				Selected:      len(sel.Top) + len(sel.Glance),
			},
		},
		keys: sel.ChosenKeys,
	}
}

// sortClusters fixes the scoring order so the within-run novelty
// penalty is deterministic: earliest publish first, unknown publish
// times last, canonical key as the final tie break.
func sortClusters(clusters []model.Cluster) {
	sort.SliceStable(clusters, func(i, j int) bool {
		ti, tj := clusters[i].EarliestPub, clusters[j].EarliestPub
		if !ti.Equal(tj) {
			if ti.IsZero() {
				return false
			}
			if tj.IsZero() {
				return true
			}
			return ti.Before(tj)
		}
		return clusters[i].CanonicalURL < clusters[j].CanonicalURL
	})
}

func toItems(cands []model.ScoredCandidate) []model.Item {
	items := make([]model.Item, 0, len(cands))
	for _, c := range cands {
		source := ""
		if len(c.Sources) > 0 {
			source = c.Sources[0]
		}
		items = append(items, model.Item{
			Title:       c.Title,
			URL:         c.BestURL,
			Source:      source,
			PublishedAt: c.EarliestPub,
			Tags:        c.TagNames(),
			Score:       c.Score,
			WhyRanked:   c.WhyRanked,
		})
	}
	return items
}

func toItemsOrNil(cands []model.ScoredCandidate) []model.Item {
	if len(cands) == 0 {
		return nil
	}
	return toItems(cands)
}

// runFanOut executes n jobs with at most limit in flight. Jobs not yet
// started when ctx is cancelled are skipped; jobs already running are
// awaited so their results survive a run-level abort.
func runFanOut(ctx context.Context, limit, n int, job func(ctx context.Context, i int)) {
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			job(ctx, i)
		}(i)
	}
	wg.Wait()
}

// recordShown writes the union of chosen keys for a capability into the
// ledger under today's date. The write survives run cancellation so
// completed entities keep their freshness state; failures are logged
// and carried as run warnings by the ledger itself.
func (e *Engine) recordShown(ctx context.Context, group string, keys []string, byEntity map[string][]string) {
	if len(keys) == 0 {
		return
	}
	date := e.now().UTC().Format(dateLayout)
	_ = e.ledger.RecordShown(context.WithoutCancel(ctx), group, date, keys, byEntity)
}
