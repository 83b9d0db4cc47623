package tagger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/model"
)

// Matcher maps a set of keyword phrases to exactly one taxonomy tag.
// Matchers are evaluated in order; the first matching tag becomes the
// primary tag.
type Matcher struct {
	Tag      string
	Keywords []string
}

// FallbackClassifier is the optional bounded external classification
// step, invoked only for candidates whose matcher set is empty, and
// only to choose among the entity's pre-approved taxonomy. Its absence
// never changes a deterministic tag.
type FallbackClassifier interface {
	Classify(ctx context.Context, title, snippet string, taxonomy []string) (string, error)
}

// Tagger assigns taxonomy tags by deterministic keyword matching.
// Given identical title, snippet and identifiers it always returns
// identical tags.
type Tagger struct {
	matchers []Matcher
	fallback FallbackClassifier
	timeout  time.Duration
}

func New(matchers []Matcher) *Tagger {
	return &Tagger{matchers: matchers, timeout: 10 * time.Second}
}

// WithFallback attaches the external classifier for ambiguous cases.
func (t *Tagger) WithFallback(f FallbackClassifier) *Tagger {
	t.fallback = f
	return t
}

// Tag classifies one candidate. identifiers are the entity's primary
// names (ticker, company name, aliases); a keyword hit co-occurring
// with an identifier yields high confidence, a keyword hit alone
// medium, anything else low.
func (t *Tagger) Tag(ctx context.Context, title, snippet string, identifiers []string) []model.Tag {
	text := strings.ToLower(title + " " + snippet)

	var matched []string
	for _, m := range t.matchers {
		for _, kw := range m.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				matched = append(matched, m.Tag)
				break
			}
		}
	}

	identifierHit := false
	for _, id := range identifiers {
		if id != "" && strings.Contains(text, strings.ToLower(id)) {
			identifierHit = true
			break
		}
	}

	if len(matched) == 0 {
		return t.tagUnmatched(ctx, title, snippet)
	}

	confidence := model.ConfidenceMedium
	if identifierHit {
		confidence = model.ConfidenceHigh
	}

	tags := make([]model.Tag, 0, len(matched))
	seen := make(map[string]bool, len(matched))
	for _, name := range matched {
		if seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, model.Tag{Name: name, Confidence: confidence})
	}
	return tags
}

func (t *Tagger) tagUnmatched(ctx context.Context, title, snippet string) []model.Tag {
	other := []model.Tag{{Name: model.TagOther, Confidence: model.ConfidenceLow}}
	if t.fallback == nil {
		return other
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	taxonomy := t.Taxonomy()
	tag, err := t.fallback.Classify(ctx, title, snippet, taxonomy)
	if err != nil {
		slog.Warn("fallback classification failed, keeping other", "error", err)
		return other
	}
	for _, known := range taxonomy {
		if tag == known {
			return []model.Tag{{Name: tag, Confidence: model.ConfidenceLow}}
		}
	}
	// Anything outside the approved taxonomy is discarded.
	return other
}

// Taxonomy lists the tags this tagger can assign, in matcher order.
func (t *Tagger) Taxonomy() []string {
	out := make([]string, 0, len(t.matchers))
	seen := make(map[string]bool, len(t.matchers))
	for _, m := range t.matchers {
		if !seen[m.Tag] {
			seen[m.Tag] = true
			out = append(out, m.Tag)
		}
	}
	return out
}

// StockMatchers is the event taxonomy for the stock portfolio section.
func StockMatchers() []Matcher {
	return []Matcher{
		{Tag: "guidance", Keywords: []string{"raises guidance", "cuts outlook", "lowers guidance", "raises outlook", "guidance"}},
		{Tag: "sec_filing", Keywords: []string{"8-k", "10-k", "10-q", "sec filing", "files with sec", "sec charges"}},
		{Tag: "earnings", Keywords: []string{"earnings", "beats estimates", "misses estimates", "eps", "revenue"}},
		{Tag: "m_and_a_confirmed", Keywords: []string{"acquires", "merger completed", "deal closed", "to acquire", "acquisition"}},
		{Tag: "m_and_a_rumor", Keywords: []string{"in talks", "considering sale", "exploring options", "potential deal"}},
		{Tag: "regulatory_action", Keywords: []string{"doj", "ftc", "export controls", "antitrust", "fine", "settlement with regulators"}},
		{Tag: "probe_or_investigation", Keywords: []string{"under investigation", "probe", "investigation launched", "subpoena"}},
		{Tag: "lawsuit", Keywords: []string{"lawsuit", "sued", "class action", "settlement"}},
		{Tag: "contract_win", Keywords: []string{"wins contract", "secures deal", "awarded contract", "partnership with"}},
		{Tag: "product_launch_major", Keywords: []string{"launches", "new product", "unveils"}},
		{Tag: "analyst_change_major", Keywords: []string{"upgraded", "downgraded", "price target raised", "price target cut", "initiates coverage"}},
		{Tag: "analyst_reiterate", Keywords: []string{"reiterates", "maintains rating", "maintains buy", "maintains hold"}},
		{Tag: "macro", Keywords: []string{"fed", "interest rate", "inflation", "gdp", "unemployment", "fomc"}},
	}
}

// PrivateMarketMatchers is the event taxonomy for private companies.
func PrivateMarketMatchers() []Matcher {
	return []Matcher{
		{Tag: "funding", Keywords: []string{"raises", "funding", "series", "valuation", "unicorn", "investment", "investors", "led by", "backed by"}},
		{Tag: "ipo", Keywords: []string{"ipo", "going public", "public offering", "spac", "listing", "debut", "files to go public"}},
		{Tag: "mna_confirmed", Keywords: []string{"acquires", "acquired", "merger completed", "deal closed", "to acquire", "acquisition", "buys"}},
		{Tag: "mna_rumor", Keywords: []string{"in talks", "considering sale", "exploring options", "potential deal", "shopping for buyer"}},
		{Tag: "layoffs", Keywords: []string{"layoffs", "cuts jobs", "workforce reduction", "staff reduction"}},
		{Tag: "product", Keywords: []string{"launches", "new product", "unveils", "releases", "chip", "accelerator"}},
		{Tag: "partnership", Keywords: []string{"partnership", "collaboration", "teams up with", "joins forces", "strategic alliance", "contract"}},
		{Tag: "regulatory", Keywords: []string{"fda", "investigation", "regulators", "lawsuit", "sued", "fine", "trial"}},
	}
}

// TopicMatchers builds matchers for a company-watch entry: each topic
// of interest becomes a tag fired by the company's keyword list.
func TopicMatchers(topics, keywords []string) []Matcher {
	matchers := make([]Matcher, 0, len(topics))
	for _, topic := range topics {
		matchers = append(matchers, Matcher{Tag: topic, Keywords: keywords})
	}
	return matchers
}
