package model

import "time"

const (
	SourceTypeNews = "news"
	SourceTypeWeb  = "web"
	SourceTypeBlog = "blog"

	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"

	TagOther = "other"
)

// RawCandidate is one search hit as returned by a source adapter.
// Immutable once created; a zero PublishedAt means the adapter could
// not determine a publish time.
type RawCandidate struct {
	Title       string
	SourceLabel string
	URL         string
	PublishedAt time.Time
	Snippet     string
	EntityID    string
	QueryGroup  string
	SourceType  string
}

// Cluster groups raw candidates that resolve to the same logical story,
// either by canonical URL or by near-duplicate normalized title.
type Cluster struct {
	Key          string
	EntityID     string
	Title        string
	Snippet      string
	CanonicalURL string
	// BestURL is the representative link: first tier-1 source if any,
	// else the shortest canonical form.
	BestURL     string
	Sources     []string
	QueryGroup  string
	SourceType  string
	EarliestPub time.Time
}

// DistinctSources returns the number of independent source labels that
// reported this cluster, never less than 1.
func (c Cluster) DistinctSources() int {
	if len(c.Sources) == 0 {
		return 1
	}
	return len(c.Sources)
}

type Tag struct {
	Name       string
	Confidence string
}

// PrimaryTag returns the first (highest priority) tag name, or "other".
func PrimaryTag(tags []Tag) string {
	if len(tags) == 0 {
		return TagOther
	}
	return tags[0].Name
}

// ScoreBreakdown keeps the score components for observability. All
// values are on the scales used by the scoring formula, not re-derived.
type ScoreBreakdown struct {
	Source         float64
	Event          float64
	Freshness      float64
	ConfirmBoost   float64
	Tier1Boost     float64
	NoveltyPenalty float64
}

// ScoredCandidate never outlives one run.
type ScoredCandidate struct {
	Cluster
	Tags      []Tag
	Score     float64
	Breakdown ScoreBreakdown
	WhyRanked string
}

func (s ScoredCandidate) TagNames() []string {
	names := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		names[i] = t.Name
	}
	return names
}
