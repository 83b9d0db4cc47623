package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/config"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/ledger"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/model"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/tagger"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/pkg/llm"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/pkg/search"
)

// perQueryCount is how many results each outbound search query asks
// for; the per-entity safety valve bounds the total after merging.
const perQueryCount = 20

// maxSummaryTitles bounds how many headlines cross into the summary
// prompt.
const maxSummaryTitles = 10

// CompanyNewsClient is the structured per-ticker feed; satisfied by
// search.FinnhubClient.
type CompanyNewsClient interface {
	CompanyNews(ctx context.Context, symbol string) ([]search.Result, error)
}

// Deps are the collaborator adapters a run consumes. News and Web are
// required for their capabilities; a nil adapter marks the capability
// failed rather than aborting the run. MarketNews, Summarizer and
// Fallback are optional enrichments.
type Deps struct {
	News       search.Client
	Web        search.Client
	MarketNews CompanyNewsClient
	Summarizer llm.SectionSummarizer
	Fallback   tagger.FallbackClassifier
}

// Orchestrator drives one daily run: four capability pipelines, each
// fanning out across its entities, each writing its own ledger group.
type Orchestrator struct {
	cfg    *config.Set
	engine *Engine
	ledger *ledger.Ledger
	deps   Deps
	now    func() time.Time
}

func New(cfg *config.Set, led *ledger.Ledger, deps Deps) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		engine: NewEngine(cfg, led),
		ledger: led,
		deps:   deps,
		now:    time.Now,
	}
}

// WithClock pins the run date and all freshness arithmetic.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	o.engine.WithClock(now)
	o.ledger.WithClock(now)
	return o
}

// Run produces the day's report. Capabilities run in a fixed order;
// a failed capability yields a section marked failed, never a missing
// one.
func (o *Orchestrator) Run(ctx context.Context) *model.Report {
	start := o.now().UTC()
	slog.Info("run started", "date", start.Format(dateLayout))

	portfolio := o.PortfolioNews(ctx)
	private := o.PrivateMarketNews(ctx)
	aiReddit := o.AIRedditTrending(ctx)
	watch := o.CompanyRedditWatch(ctx)

	o.summarize(ctx, &aiReddit, &watch)

	warnings := o.ledger.Warnings()
	if len(o.cfg.Warnings) > 0 {
		warnings = append(append([]string(nil), o.cfg.Warnings...), warnings...)
	}

	report := &model.Report{
		Date:        start.Format(dateLayout),
		GeneratedAt: start,
		Sections:    []model.Section{portfolio, private, aiReddit, watch},
		Warnings:    warnings,
	}
	slog.Info("run finished",
		"date", report.Date,
		"warnings", len(report.Warnings))
	return report
}

// summarize replaces the deterministic section summaries with model
// prose when a summarizer is configured. One bounded call per run;
// failure keeps the fallbacks.
func (o *Orchestrator) summarize(ctx context.Context, aiReddit, watch *model.Section) {
	if o.deps.Summarizer == nil {
		return
	}

	input := llm.SectionSummaryInput{AIRedditCount: len(aiReddit.Items)}
	for _, item := range aiReddit.Items {
		if len(input.AIRedditTitles) >= maxSummaryTitles {
			break
		}
		input.AIRedditTitles = append(input.AIRedditTitles, item.Title)
	}
	for _, entity := range watch.Entities {
		input.CompanyPostCount += len(entity.Items)
		if len(entity.Items) > 0 {
			input.CompanyNames = append(input.CompanyNames, entity.Entity)
		}
	}

	res, err := o.deps.Summarizer.SummarizeSections(ctx, input)
	if err != nil {
		slog.Warn("section summary failed, keeping fallback", "error", err)
		return
	}
	if res.AIRedditSummary != "" {
		aiReddit.Summary = res.AIRedditSummary
	}
	if res.CompanyWatchSummary != "" {
		watch.Summary = res.CompanyWatchSummary
	}
}

// assembleGrouped folds per-entity outcomes into a grouped section,
// applies the empty-entity policy, records chosen keys, and decides
// whether the capability as a whole failed.
func (o *Orchestrator) assembleGrouped(ctx context.Context, section *model.Section, group string, outcomes []entityOutcome) {
	omitEmpty := o.cfg.Ranker.OmitEmptyEntities[section.Name]

	byEntity := make(map[string][]string)
	var allKeys []string
	totalQueries, totalFailures, totalRaw := 0, 0, 0

	for _, out := range outcomes {
		if out.result.Entity == "" {
			// Entity never started (run cancelled before its turn).
			continue
		}
		totalQueries += out.queries
		totalFailures += out.failures
		totalRaw += out.result.Stats.RawCandidates
		if len(out.keys) > 0 {
			byEntity[out.result.Entity] = out.keys
			allKeys = append(allKeys, out.keys...)
		}
		if omitEmpty && out.result.Stats.Selected == 0 {
			continue
		}
		section.Entities = append(section.Entities, out.result)
	}

	o.engine.recordShown(ctx, group, allKeys, byEntity)

	if totalQueries > 0 && totalFailures == totalQueries && totalRaw == 0 {
		section.Failed = true
		section.Warnings = append(section.Warnings, "all source queries failed")
	}
}

// toRaw converts adapter results into raw candidates, deriving the
// source label from the result's host.
func toRaw(results []search.Result, entityID, queryGroup, sourceType string) []model.RawCandidate {
	raws := make([]model.RawCandidate, 0, len(results))
	for _, r := range results {
		raws = append(raws, model.RawCandidate{
			Title:       r.Title,
			SourceLabel: sourceHost(r.URL),
			URL:         r.URL,
			PublishedAt: r.PublishedAt,
			Snippet:     r.Snippet,
			EntityID:    entityID,
			QueryGroup:  queryGroup,
			SourceType:  sourceType,
		})
	}
	return raws
}
