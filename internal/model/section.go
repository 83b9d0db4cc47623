package model

import "time"

// Item is one selected story inside a report section.
type Item struct {
	Title       string    `json:"headline"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Tags        []string  `json:"tags"`
	Score       float64   `json:"score"`
	WhyRanked   string    `json:"why_ranked,omitempty"`
}

// EntityStats is the per-entity observability required to answer
// "why is this entity empty" without re-running.
type EntityStats struct {
	RawCandidates int `json:"raw_candidates"`
	DroppedSeen   int `json:"dropped_seen"`
	DroppedScore  int `json:"dropped_score"`
	DroppedCap    int `json:"dropped_cap"`
	Selected      int `json:"selected"`
}

// EntityResult is one entity's slice of a grouped section. Items is
// always non-nil so an empty entity renders as [] rather than null.
type EntityResult struct {
	Entity string      `json:"entity"`
	Items  []Item      `json:"items"`
	Glance []Item      `json:"glance,omitempty"`
	Stats  EntityStats `json:"stats"`
}

type CompanyLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Section is the payload handed to the rendering collaborator, one per
// capability. Grouped capabilities fill Entities, flat ones fill Items.
type Section struct {
	Name        string         `json:"section"`
	Title       string         `json:"title"`
	Summary     string         `json:"summary,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	Entities    []EntityResult `json:"entities,omitempty"`
	Items       []Item         `json:"items,omitempty"`
	Links       []CompanyLink  `json:"links,omitempty"`
	Failed      bool           `json:"failed,omitempty"`
	Warnings    []string       `json:"warnings,omitempty"`
}

type Report struct {
	Date        string    `json:"date"`
	GeneratedAt time.Time `json:"generated_at"`
	Sections    []Section `json:"sections"`
	Warnings    []string  `json:"warnings,omitempty"`
}

// StoredReport is a persisted report row from the archive.
type StoredReport struct {
	ID        int64
	Date      string
	Payload   []byte
	CreatedAt time.Time
}
