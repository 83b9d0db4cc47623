package scorer

import (
	"time"

	"github.com/Alfred-ai-assistant/The-Alfred-Report/internal/config"
)

// Tracker records when each tag was last surfaced, within this run or
// seeded from recent history, and converts the age of that overlap into
// a penalty fraction using the configured decay windows.
type Tracker struct {
	cfg      config.NoveltyConfig
	lastSeen map[string]time.Time
}

func NewTracker(cfg config.NoveltyConfig) *Tracker {
	return &Tracker{cfg: cfg, lastSeen: make(map[string]time.Time)}
}

// Record marks tag as surfaced at the given time.
func (t *Tracker) Record(tag string, at time.Time) {
	if prev, ok := t.lastSeen[tag]; !ok || at.After(prev) {
		t.lastSeen[tag] = at
	}
}

// Penalty returns the penalty fraction for surfacing tag again at now.
// The most recent overlap wins: under 6h, 24h and 48h map to the three
// configured penalties; older overlaps cost nothing.
func (t *Tracker) Penalty(tag string, now time.Time) float64 {
	last, ok := t.lastSeen[tag]
	if !ok {
		return 0
	}
	age := now.Sub(last)
	switch {
	case age < 6*time.Hour:
		return t.cfg.SameTagPenalty6h
	case age < 24*time.Hour:
		return t.cfg.SameTagPenalty24h
	case age < 48*time.Hour:
		return t.cfg.SameTagPenalty48h
	default:
		return 0
	}
}
