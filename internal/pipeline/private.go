package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/config"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/model"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/scorer"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/tagger"
)

// PrivateMarketNews runs the private company capability. Each company
// carries its own query groups; group names map to the query-group
// weights in the ranker tables.
func (o *Orchestrator) PrivateMarketNews(ctx context.Context) model.Section {
	section := model.Section{
		Name:        "private_market_news",
		Title:       "Private Market News",
		GeneratedAt: o.now().UTC(),
	}
	for _, link := range o.cfg.CompanyLinks.Companies {
		section.Links = append(section.Links, model.CompanyLink{Name: link.Name, URL: link.URL})
	}

	var companies []config.PrivateCompany
	for _, c := range o.cfg.PrivateMarket.Companies {
		if !c.IsEnabled() {
			continue
		}
		if c.Name == "" {
			slog.Warn("skipping private company entry with no name")
			section.Warnings = append(section.Warnings, "skipped private company entry: missing name")
			continue
		}
		companies = append(companies, c)
	}

	if o.deps.News == nil {
		section.Failed = true
		section.Warnings = append(section.Warnings, "no news adapter configured")
		return section
	}

	tg := tagger.New(tagger.PrivateMarketMatchers())
	if o.deps.Fallback != nil {
		tg = tg.WithFallback(o.deps.Fallback)
	}
	sc := scorer.New(o.cfg.Ranker).WithClock(o.now)

	outcomes := make([]entityOutcome, len(companies))
	runFanOut(ctx, o.cfg.Ranker.FanOut, len(companies), func(ctx context.Context, i int) {
		outcomes[i] = o.privateEntity(ctx, companies[i], tg, sc)
	})

	o.assembleGrouped(ctx, &section, groupPrivateMarket, outcomes)
	section.Summary = fmt.Sprintf("%d stories across %d companies.",
		selectedCount(section.Entities), len(companies))
	return section
}

func (o *Orchestrator) privateEntity(ctx context.Context, c config.PrivateCompany, tg *tagger.Tagger, sc *scorer.Scorer) entityOutcome {
	var raws []model.RawCandidate
	queries, failures := 0, 0

	for _, group := range sortedGroups(c.Queries) {
		for _, q := range c.Queries[group] {
			queries++
			query := fmt.Sprintf("%q %s", c.Name, q)
			results, err := o.deps.News.Search(ctx, query, perQueryCount)
			if err != nil {
				failures++
				slog.Warn("private market query failed",
					"company", c.Name, "group", group, "error", err)
				continue
			}
			raws = append(raws, toRaw(results, c.Name, group, model.SourceTypeNews)...)
		}
	}
	if queries == 0 {
		queries++
		results, err := o.deps.News.Search(ctx, fmt.Sprintf("%q news", c.Name), perQueryCount)
		if err != nil {
			failures++
			slog.Warn("private market query failed", "company", c.Name, "error", err)
		} else {
			raws = append(raws, toRaw(results, c.Name, "", model.SourceTypeNews)...)
		}
	}

	identifiers := []string{c.Name}
	out := o.engine.processEntity(ctx, groupPrivateMarket, c.Name, raws, tg, identifiers, sc, o.cfg.Ranker.Thresholds, c.Limit)
	out.queries, out.failures = queries, failures
	return out
}

// sortedGroups fixes the query iteration order so candidate order, and
// with it clustering, is stable between runs.
func sortedGroups(queries map[string][]string) []string {
	groups := make([]string, 0, len(queries))
	for g := range queries {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
