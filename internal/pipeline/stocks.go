package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/config"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/model"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/scorer"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/tagger"
)

// PortfolioNews runs the stock ticker capability: one news query per
// ticker, plus the structured market-news feed when configured.
func (o *Orchestrator) PortfolioNews(ctx context.Context) model.Section {
	section := model.Section{
		Name:        "portfolio_news",
		Title:       "Portfolio News",
		GeneratedAt: o.now().UTC(),
	}

	var tickers []config.Ticker
	for _, t := range o.cfg.Tickers.Tickers {
		if !t.IsEnabled() {
			continue
		}
		if err := config.ValidateTicker(t); err != nil {
			slog.Warn("skipping ticker", "error", err)
			section.Warnings = append(section.Warnings, fmt.Sprintf("skipped ticker entry: %v", err))
			continue
		}
		tickers = append(tickers, t)
	}

	if o.deps.News == nil && o.deps.MarketNews == nil {
		section.Failed = true
		section.Warnings = append(section.Warnings, "no news adapters configured")
		return section
	}

	tg := tagger.New(tagger.StockMatchers())
	if o.deps.Fallback != nil {
		tg = tg.WithFallback(o.deps.Fallback)
	}
	sc := scorer.New(o.cfg.Ranker).WithClock(o.now)

	outcomes := make([]entityOutcome, len(tickers))
	runFanOut(ctx, o.cfg.Ranker.FanOut, len(tickers), func(ctx context.Context, i int) {
		outcomes[i] = o.stockEntity(ctx, tickers[i], tg, sc)
	})

	o.assembleGrouped(ctx, &section, groupStocks, outcomes)
	section.Summary = fmt.Sprintf("%d stories across %d tickers.",
		selectedCount(section.Entities), len(tickers))
	return section
}

func (o *Orchestrator) stockEntity(ctx context.Context, t config.Ticker, tg *tagger.Tagger, sc *scorer.Scorer) entityOutcome {
	var raws []model.RawCandidate
	queries, failures := 0, 0

	if o.deps.News != nil {
		queries++
		results, err := o.deps.News.Search(ctx, stockQuery(t), perQueryCount)
		if err != nil {
			failures++
			slog.Warn("stock news query failed", "ticker", t.Symbol, "error", err)
		} else {
			raws = append(raws, toRaw(results, t.Symbol, "", model.SourceTypeNews)...)
		}
	}
	if o.deps.MarketNews != nil {
		queries++
		results, err := o.deps.MarketNews.CompanyNews(ctx, t.Symbol)
		if err != nil {
			failures++
			slog.Warn("market news fetch failed", "ticker", t.Symbol, "error", err)
		} else {
			raws = append(raws, toRaw(results, t.Symbol, "", model.SourceTypeNews)...)
		}
	}

	identifiers := append([]string{t.Symbol}, t.Aliases...)
	out := o.engine.processEntity(ctx, groupStocks, t.Symbol, raws, tg, identifiers, sc, o.cfg.Ranker.Thresholds, t.Cap)
	out.queries, out.failures = queries, failures
	return out
}

func stockQuery(t config.Ticker) string {
	if len(t.Aliases) > 0 {
		return fmt.Sprintf("%s %s stock news", t.Aliases[0], t.Symbol)
	}
	return fmt.Sprintf("%s stock news", t.Symbol)
}

func selectedCount(entities []model.EntityResult) int {
	n := 0
	for _, e := range entities {
		n += e.Stats.Selected
	}
	return n
}
