package pipeline

import (
	"sort"
	"strings"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/canonical"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/config"
	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/model"
)

// SimilarityFunc derives the near-duplicate cluster key from a title.
// Pluggable; DefaultSimilarityKey is a normalized-title prefix.
type SimilarityFunc func(title string) string

const similarityKeyLen = 50

// DefaultSimilarityKey lower-cases the title, strips punctuation and
// collapses runs of whitespace, then truncates. Syndicated copies of
// the same headline across outlets map to the same key.
func DefaultSimilarityKey(title string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	key := strings.TrimSpace(b.String())
	if len(key) > similarityKeyLen {
		key = key[:similarityKeyLen]
	}
	return key
}

// Clusterer folds raw candidates into logical stories: same canonical
// URL first, near-duplicate title second. Candidates with an empty
// title or URL are discarded.
type Clusterer struct {
	canon      *canonical.Canonicalizer
	similarity SimilarityFunc
	sources    map[string]config.SourceProfile
}

func NewClusterer(canon *canonical.Canonicalizer, sources map[string]config.SourceProfile) *Clusterer {
	return &Clusterer{canon: canon, similarity: DefaultSimilarityKey, sources: sources}
}

// WithSimilarity swaps the near-duplicate key function.
func (c *Clusterer) WithSimilarity(fn SimilarityFunc) *Clusterer {
	c.similarity = fn
	return c
}

type building struct {
	cluster   model.Cluster
	bestTier1 bool
	sources   map[string]bool
}

// Cluster preserves first-seen order of clusters so output is
// deterministic for a given candidate order.
func (c *Clusterer) Cluster(raws []model.RawCandidate) []model.Cluster {
	byCanon := make(map[string]*building)
	bySim := make(map[string]*building)
	var order []*building

	for _, raw := range raws {
		if raw.URL == "" || raw.Title == "" {
			continue
		}
		canonURL := c.canon.Canonicalize(raw.URL)
		simKey := c.similarity(raw.Title)

		b := byCanon[canonURL]
		if b == nil && simKey != "" {
			b = bySim[simKey]
		}
		if b == nil {
			b = &building{
				cluster: model.Cluster{
					Key:          canonURL,
					EntityID:     raw.EntityID,
					Title:        raw.Title,
					Snippet:      raw.Snippet,
					CanonicalURL: canonURL,
					BestURL:      canonURL,
					QueryGroup:   raw.QueryGroup,
					SourceType:   raw.SourceType,
					EarliestPub:  raw.PublishedAt,
				},
				bestTier1: c.isTier1(raw.SourceLabel),
				sources:   map[string]bool{raw.SourceLabel: true},
			}
			order = append(order, b)
		} else {
			c.merge(b, raw, canonURL)
		}
		byCanon[canonURL] = b
		if simKey != "" {
			if _, ok := bySim[simKey]; !ok {
				bySim[simKey] = b
			}
		}
	}

	clusters := make([]model.Cluster, 0, len(order))
	for _, b := range order {
		labels := make([]string, 0, len(b.sources))
		for label := range b.sources {
			if label != "" {
				labels = append(labels, label)
			}
		}
		sort.Strings(labels)
		b.cluster.Sources = labels
		clusters = append(clusters, b.cluster)
	}
	return clusters
}

func (c *Clusterer) merge(b *building, raw model.RawCandidate, canonURL string) {
	b.sources[raw.SourceLabel] = true

	pub := raw.PublishedAt
	if !pub.IsZero() && (b.cluster.EarliestPub.IsZero() || pub.Before(b.cluster.EarliestPub)) {
		b.cluster.EarliestPub = pub
	}
	if b.cluster.Snippet == "" {
		b.cluster.Snippet = raw.Snippet
	}

	// Representative link: first tier-1 source wins, else shortest form.
	tier1 := c.isTier1(raw.SourceLabel)
	switch {
	case tier1 && !b.bestTier1:
		b.cluster.BestURL = canonURL
		b.bestTier1 = true
	case tier1 == b.bestTier1 && len(canonURL) < len(b.cluster.BestURL):
		b.cluster.BestURL = canonURL
	}
}

func (c *Clusterer) isTier1(label string) bool {
	return c.sources[label].Tier == 1
}

// sourceHost is the label a result's URL maps to in the source tables.
func sourceHost(raw string) string {
	return canonical.Host(raw)
}
