package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SourceProfile describes one known publication in the ranker tables.
type SourceProfile struct {
	Trust float64 `yaml:"trust"`
	Speed float64 `yaml:"speed"`
	Tier  int     `yaml:"tier"`
}

type FreshnessConfig struct {
	HalfLifeMinutes float64 `yaml:"half_life_minutes"`
	Floor           float64 `yaml:"floor"`
}

type ScoringWeights struct {
	SourceWeight    float64 `yaml:"source_weight"`
	EventWeight     float64 `yaml:"event_weight"`
	FreshnessWeight float64 `yaml:"freshness_weight"`
}

type SyndicationConfig struct {
	ConfirmBoostPerExtraSource float64 `yaml:"confirm_boost_per_extra_source"`
	ConfirmBoostCap            float64 `yaml:"confirm_boost_cap"`
	Tier1Boost                 float64 `yaml:"tier1_boost"`
}

type NoveltyConfig struct {
	SameTagPenalty6h  float64 `yaml:"same_tag_penalty_6h"`
	SameTagPenalty24h float64 `yaml:"same_tag_penalty_24h"`
	SameTagPenalty48h float64 `yaml:"same_tag_penalty_48h"`
}

type Thresholds struct {
	TopMinScore      float64    `yaml:"top_min_score"`
	MustIncludeScore float64    `yaml:"must_include_score"`
	GlanceRange      [2]float64 `yaml:"glance_range"`
	MaxTop           int        `yaml:"max_top"`
	MaxGlance        int        `yaml:"max_glance"`
}

type DedupeConfig struct {
	StripQueryParams []string `yaml:"strip_query_params"`
	DedupeDays       int      `yaml:"dedupe_days"`
	RetainDays       int      `yaml:"retain_days"`
}

// Ranker is the ranking/weights configuration document shared by all
// capabilities. Components receive these values as input; nothing in
// the engine hard-codes them.
type Ranker struct {
	Sources           map[string]SourceProfile `yaml:"sources"`
	EventWeights      map[string]float64       `yaml:"event_weights"`
	QueryGroupWeights map[string]float64       `yaml:"query_group_weights"`
	SourceTypeWeights map[string]float64       `yaml:"source_type_weights"`
	Freshness         FreshnessConfig          `yaml:"freshness"`
	Scoring           ScoringWeights           `yaml:"scoring"`
	Syndication       SyndicationConfig        `yaml:"syndication"`
	Novelty           NoveltyConfig            `yaml:"novelty"`
	Thresholds        Thresholds               `yaml:"thresholds"`
	Dedupe            DedupeConfig             `yaml:"dedupe"`

	MaxCandidatesPerEntity int `yaml:"max_candidates_per_entity"`
	FanOut                 int `yaml:"fan_out"`

	// OmitEmptyEntities controls whether an entity with zero selected
	// items is dropped from the section or kept with an empty items
	// array. Per-capability override below.
	OmitEmptyEntities map[string]bool `yaml:"omit_empty_entities"`
}

type Ticker struct {
	Symbol   string   `yaml:"symbol"`
	Aliases  []string `yaml:"aliases"`
	Keywords []string `yaml:"keywords"`
	Cap      int      `yaml:"cap"`
	Enabled  *bool    `yaml:"enabled"`
}

func (t Ticker) IsEnabled() bool { return t.Enabled == nil || *t.Enabled }

type Tickers struct {
	Tickers []Ticker `yaml:"tickers"`
}

type PrivateCompany struct {
	Name    string              `yaml:"name"`
	Enabled *bool               `yaml:"enabled"`
	Limit   int                 `yaml:"limit"`
	Queries map[string][]string `yaml:"queries"`
}

func (c PrivateCompany) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

type PrivateMarket struct {
	Companies []PrivateCompany `yaml:"companies"`
}

type Subreddit struct {
	Subreddit string  `yaml:"subreddit"`
	Weight    float64 `yaml:"weight"`
	Enabled   *bool   `yaml:"enabled"`
}

func (s Subreddit) IsEnabled() bool { return s.Enabled == nil || *s.Enabled }

type RedditAISources struct {
	Sources  []Subreddit `yaml:"ai_daily_sources"`
	Keywords []string    `yaml:"keywords"`
	MaxItems int         `yaml:"max_items"`
}

type WatchCompany struct {
	CompanyName     string   `yaml:"company_name"`
	Ticker          string   `yaml:"ticker"`
	Aliases         []string `yaml:"aliases"`
	Keywords        []string `yaml:"keywords"`
	Topics          []string `yaml:"topics"`
	SubredditScopes []string `yaml:"subreddit_scopes"`
	Cap             int      `yaml:"cap"`
	Enabled         *bool    `yaml:"enabled"`
}

func (c WatchCompany) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

type CompanyWatch struct {
	Companies []WatchCompany `yaml:"companies"`
}

type CompanyLinks struct {
	Companies []struct {
		Name string `yaml:"name"`
		URL  string `yaml:"url"`
	} `yaml:"companies"`
}

// Set is the full configuration for one run. Loaded fresh every run and
// passed by value into the pipelines; never cached across runs.
type Set struct {
	Ranker        Ranker
	Tickers       Tickers
	PrivateMarket PrivateMarket
	RedditAI      RedditAISources
	CompanyWatch  CompanyWatch
	CompanyLinks  CompanyLinks

	// Warnings collects capability files that existed but could not be
	// parsed; the run report carries them so a broken file is never
	// mistaken for an intentionally empty one.
	Warnings []string
}

// Dir returns the config directory from environment or default.
func Dir() string {
	if d := os.Getenv("ALFRED_CONFIG_DIR"); d != "" {
		return d
	}
	return "./config"
}

// Load reads every capability document from dir. A missing capability
// file is not an error: that capability simply runs with zero entities.
// A malformed ranker document is an error since every capability
// depends on it.
func Load(dir string) (*Set, error) {
	set := &Set{}

	if err := readYAML(filepath.Join(dir, "ranker.yaml"), &set.Ranker); err != nil {
		return nil, fmt.Errorf("load ranker config: %w", err)
	}
	applyRankerDefaults(&set.Ranker)
	if err := validateRanker(&set.Ranker); err != nil {
		return nil, fmt.Errorf("validate ranker config: %w", err)
	}

	set.optional(filepath.Join(dir, "stocks.tickers.yaml"), &set.Tickers)
	set.optional(filepath.Join(dir, "private_market_news.yaml"), &set.PrivateMarket)
	set.optional(filepath.Join(dir, "reddit_ai_sources.yaml"), &set.RedditAI)
	set.optional(filepath.Join(dir, "reddit_company_watch.yaml"), &set.CompanyWatch)
	set.optional(filepath.Join(dir, "company_news_links.yaml"), &set.CompanyLinks)

	applySectionDefaults(set)

	return set, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// optional loads one capability file. A missing file means the
// capability runs with zero entities; a file that exists but does not
// parse is a config failure and must be reported, not swallowed.
func (s *Set) optional(path string, out any) {
	err := readYAML(path, out)
	if err == nil || os.IsNotExist(err) {
		return
	}
	slog.Warn("capability config unreadable, running with zero entities",
		"file", filepath.Base(path), "error", err)
	s.Warnings = append(s.Warnings, fmt.Sprintf("config %s unreadable: %v", filepath.Base(path), err))
}

func applyRankerDefaults(r *Ranker) {
	if r.Freshness.HalfLifeMinutes == 0 {
		r.Freshness.HalfLifeMinutes = 720
	}
	if r.Freshness.Floor == 0 {
		r.Freshness.Floor = 0.15
	}
	if r.Scoring.SourceWeight == 0 && r.Scoring.EventWeight == 0 && r.Scoring.FreshnessWeight == 0 {
		r.Scoring = ScoringWeights{SourceWeight: 0.45, EventWeight: 0.40, FreshnessWeight: 0.15}
	}
	if r.Syndication.ConfirmBoostPerExtraSource == 0 {
		r.Syndication.ConfirmBoostPerExtraSource = 0.15
	}
	if r.Syndication.ConfirmBoostCap == 0 {
		r.Syndication.ConfirmBoostCap = 1.0
	}
	if r.Syndication.Tier1Boost == 0 {
		r.Syndication.Tier1Boost = 0.25
	}
	if r.Novelty.SameTagPenalty6h == 0 {
		r.Novelty.SameTagPenalty6h = 0.25
	}
	if r.Novelty.SameTagPenalty24h == 0 {
		r.Novelty.SameTagPenalty24h = 0.15
	}
	if r.Novelty.SameTagPenalty48h == 0 {
		r.Novelty.SameTagPenalty48h = 0.05
	}
	if r.Thresholds.TopMinScore == 0 {
		r.Thresholds.TopMinScore = 55
	}
	if r.Thresholds.MustIncludeScore == 0 {
		r.Thresholds.MustIncludeScore = 80
	}
	if r.Thresholds.GlanceRange == [2]float64{} {
		r.Thresholds.GlanceRange = [2]float64{45, 54}
	}
	if r.Thresholds.MaxTop == 0 {
		r.Thresholds.MaxTop = 5
	}
	if r.Thresholds.MaxGlance == 0 {
		r.Thresholds.MaxGlance = 3
	}
	if r.Dedupe.DedupeDays == 0 {
		r.Dedupe.DedupeDays = 1
	}
	if r.Dedupe.RetainDays == 0 {
		r.Dedupe.RetainDays = 30
	}
	if r.Dedupe.RetainDays < r.Dedupe.DedupeDays+2 {
		r.Dedupe.RetainDays = r.Dedupe.DedupeDays + 2
	}
	if len(r.Dedupe.StripQueryParams) == 0 {
		r.Dedupe.StripQueryParams = []string{
			"utm_*", "gclid", "fbclid", "ref", "cmpid", "mc_cid", "mc_eid", "sxsrf",
		}
	}
	if r.MaxCandidatesPerEntity == 0 {
		r.MaxCandidatesPerEntity = 40
	}
	if r.FanOut == 0 {
		r.FanOut = 4
	}
	if r.OmitEmptyEntities == nil {
		r.OmitEmptyEntities = map[string]bool{
			"portfolio_news":       true,
			"private_market_news":  true,
			"company_reddit_watch": false,
		}
	}
}

func applySectionDefaults(set *Set) {
	for i := range set.Tickers.Tickers {
		if set.Tickers.Tickers[i].Cap == 0 {
			set.Tickers.Tickers[i].Cap = set.Ranker.Thresholds.MaxTop
		}
	}
	for i := range set.PrivateMarket.Companies {
		if set.PrivateMarket.Companies[i].Limit == 0 {
			set.PrivateMarket.Companies[i].Limit = 5
		}
	}
	if set.RedditAI.MaxItems == 0 {
		set.RedditAI.MaxItems = 15
	}
	for i := range set.RedditAI.Sources {
		if set.RedditAI.Sources[i].Weight == 0 {
			set.RedditAI.Sources[i].Weight = 1.0
		}
	}
	for i := range set.CompanyWatch.Companies {
		c := &set.CompanyWatch.Companies[i]
		if c.Cap == 0 {
			c.Cap = 10
		}
		if len(c.SubredditScopes) == 0 {
			c.SubredditScopes = []string{"technology", "stocks", "investing"}
		}
	}
}

func validateRanker(r *Ranker) error {
	if r.Freshness.HalfLifeMinutes <= 0 {
		return fmt.Errorf("freshness.half_life_minutes must be positive, got %v", r.Freshness.HalfLifeMinutes)
	}
	if r.Freshness.Floor < 0 || r.Freshness.Floor > 1 {
		return fmt.Errorf("freshness.floor must be in [0,1], got %v", r.Freshness.Floor)
	}
	if r.Thresholds.GlanceRange[0] > r.Thresholds.GlanceRange[1] {
		return fmt.Errorf("thresholds.glance_range low %v above high %v",
			r.Thresholds.GlanceRange[0], r.Thresholds.GlanceRange[1])
	}
	if r.Dedupe.DedupeDays < 0 {
		return fmt.Errorf("dedupe.dedupe_days must not be negative, got %d", r.Dedupe.DedupeDays)
	}
	return nil
}

// ValidateTicker reports whether a ticker entry is usable for a run.
// Invalid entities are skipped by name, never fatal.
func ValidateTicker(t Ticker) error {
	if t.Symbol == "" {
		return fmt.Errorf("ticker entry missing symbol")
	}
	return nil
}

// ValidateWatchCompany reports whether a company-watch entry is usable.
func ValidateWatchCompany(c WatchCompany) error {
	if c.CompanyName == "" {
		return fmt.Errorf("company watch entry missing company_name")
	}
	return nil
}
