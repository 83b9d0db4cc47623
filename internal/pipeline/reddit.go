package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/config"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/model"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/scorer"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/tagger"
)

// aiDiscussionTag is the tag keyword hits map to in the flat AI
// trending section.
const aiDiscussionTag = "ai_discussion"

// AIRedditTrending runs the flat AI capability: one web query per
// configured subreddit, merged and selected as a single list. The
// glance tier does not apply to post feeds.
func (o *Orchestrator) AIRedditTrending(ctx context.Context) model.Section {
	section := model.Section{
		Name:        "ai_reddit_trending",
		Title:       "AI on Reddit",
		GeneratedAt: o.now().UTC(),
	}

	var sources []config.Subreddit
	for _, s := range o.cfg.RedditAI.Sources {
		if !s.IsEnabled() {
			continue
		}
		if s.Subreddit == "" {
			slog.Warn("skipping reddit source entry with no subreddit")
			section.Warnings = append(section.Warnings, "skipped reddit source entry: missing subreddit")
			continue
		}
		sources = append(sources, s)
	}

	if o.deps.Web == nil {
		section.Failed = true
		section.Warnings = append(section.Warnings, "no web search adapter configured")
		return section
	}

	// Per-subreddit weights ride the query-group weight table so the
	// scorer needs no special case for this section.
	rk := o.cfg.Ranker
	qg := make(map[string]float64, len(rk.QueryGroupWeights)+len(sources))
	for k, v := range rk.QueryGroupWeights {
		qg[k] = v
	}
	for _, s := range sources {
		qg[s.Subreddit] = s.Weight
	}
	rk.QueryGroupWeights = qg
	sc := scorer.New(rk).WithClock(o.now)

	tg := tagger.New(tagger.TopicMatchers([]string{aiDiscussionTag}, o.cfg.RedditAI.Keywords))

	batches := make([][]model.RawCandidate, len(sources))
	failures := make([]bool, len(sources))
	runFanOut(ctx, o.cfg.Ranker.FanOut, len(sources), func(ctx context.Context, i int) {
		s := sources[i]
		results, err := o.deps.Web.Search(ctx, redditQuery(s.Subreddit, o.cfg.RedditAI.Keywords), perQueryCount)
		if err != nil {
			failures[i] = true
			slog.Warn("reddit search failed", "subreddit", s.Subreddit, "error", err)
			return
		}
		batches[i] = redditPosts(toRaw(results, s.Subreddit, s.Subreddit, model.SourceTypeWeb))
	})

	var raws []model.RawCandidate
	failedCount := 0
	for i := range sources {
		raws = append(raws, batches[i]...)
		if failures[i] {
			failedCount++
		}
	}

	th := o.cfg.Ranker.Thresholds
	th.MaxGlance = 0
	out := o.engine.processEntity(ctx, groupRedditAI, "reddit", raws, tg, nil, sc, th, o.cfg.RedditAI.MaxItems)

	section.Items = out.result.Items
	o.engine.recordShown(ctx, groupRedditAI, out.keys, nil)

	if len(sources) > 0 && failedCount == len(sources) {
		section.Failed = true
		section.Warnings = append(section.Warnings, "all source queries failed")
	}
	section.Summary = fmt.Sprintf("%d trending posts across %d subreddits.",
		len(section.Items), len(sources))
	return section
}

// CompanyRedditWatch runs the grouped company mention capability: one
// web query per company per subreddit scope, topics tagged from the
// company's own taxonomy.
func (o *Orchestrator) CompanyRedditWatch(ctx context.Context) model.Section {
	section := model.Section{
		Name:        "company_reddit_watch",
		Title:       "Company Reddit Watch",
		GeneratedAt: o.now().UTC(),
	}

	var companies []config.WatchCompany
	for _, c := range o.cfg.CompanyWatch.Companies {
		if !c.IsEnabled() {
			continue
		}
		if err := config.ValidateWatchCompany(c); err != nil {
			slog.Warn("skipping watch company", "error", err)
			section.Warnings = append(section.Warnings, fmt.Sprintf("skipped watch company entry: %v", err))
			continue
		}
		companies = append(companies, c)
	}

	if o.deps.Web == nil {
		section.Failed = true
		section.Warnings = append(section.Warnings, "no web search adapter configured")
		return section
	}

	sc := scorer.New(o.cfg.Ranker).WithClock(o.now)

	outcomes := make([]entityOutcome, len(companies))
	runFanOut(ctx, o.cfg.Ranker.FanOut, len(companies), func(ctx context.Context, i int) {
		outcomes[i] = o.watchEntity(ctx, companies[i], sc)
	})

	o.assembleGrouped(ctx, &section, groupCompanyWatch, outcomes)
	withPosts := 0
	for _, e := range section.Entities {
		if len(e.Items) > 0 {
			withPosts++
		}
	}
	section.Summary = fmt.Sprintf("%d posts across %d companies.",
		selectedCount(section.Entities), withPosts)
	return section
}

func (o *Orchestrator) watchEntity(ctx context.Context, c config.WatchCompany, sc *scorer.Scorer) entityOutcome {
	tg := tagger.New(tagger.TopicMatchers(c.Topics, c.Keywords))

	var raws []model.RawCandidate
	queries, failures := 0, 0
	for _, scope := range c.SubredditScopes {
		queries++
		query := fmt.Sprintf("site:reddit.com/r/%s %q", scope, c.CompanyName)
		results, err := o.deps.Web.Search(ctx, query, perQueryCount)
		if err != nil {
			failures++
			slog.Warn("company watch search failed",
				"company", c.CompanyName, "subreddit", scope, "error", err)
			continue
		}
		raws = append(raws, redditPosts(toRaw(results, c.CompanyName, scope, model.SourceTypeWeb))...)
	}

	identifiers := append([]string{c.CompanyName, c.Ticker}, c.Aliases...)

	th := o.cfg.Ranker.Thresholds
	th.MaxGlance = 0
	out := o.engine.processEntity(ctx, groupCompanyWatch, c.CompanyName, raws, tg, identifiers, sc, th, c.Cap)
	out.queries, out.failures = queries, failures
	return out
}

func redditQuery(subreddit string, keywords []string) string {
	query := fmt.Sprintf("site:reddit.com/r/%s", subreddit)
	if len(keywords) > 0 {
		query += fmt.Sprintf(" (%s)", strings.Join(keywords, " OR "))
	}
	return query
}

// redditPosts keeps only links to actual posts, dropping subreddit
// index and wiki pages the web search also returns.
func redditPosts(raws []model.RawCandidate) []model.RawCandidate {
	posts := raws[:0]
	for _, r := range raws {
		if strings.Contains(r.URL, "/comments/") {
			posts = append(posts, r)
		}
	}
	return posts
}
