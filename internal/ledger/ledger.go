package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// DayEntry is the set of canonical URLs shown on one date, optionally
// partitioned by entity. Lists are deduplicated on read.
type DayEntry struct {
	URLs     []string            `json:"urls"`
	ByEntity map[string][]string `json:"by_entity,omitempty"`
}

// Document is the durable day-keyed history for one entity group.
// Keys are ISO dates (YYYY-MM-DD).
type Document map[string]*DayEntry

// Store persists ledger documents. Implementations: file, redis, and an
// in-memory fake for tests.
type Store interface {
	Load(ctx context.Context, group string) (Document, error)
	Save(ctx context.Context, group string, doc Document) error
}

const dateLayout = "2006-01-02"

// Ledger answers "seen since N days" queries and records the canonical
// URLs each run publishes. A corrupt or unreadable backing document
// degrades to an empty history for the run; the failure is surfaced via
// Warnings so the run report can say so.
type Ledger struct {
	store      Store
	retainDays int
	now        func() time.Time

	mu       sync.Mutex
	groupMus map[string]*sync.Mutex
	warnings []string
}

func New(store Store, retainDays int) *Ledger {
	return &Ledger{
		store:      store,
		retainDays: retainDays,
		now:        time.Now,
		groupMus:   make(map[string]*sync.Mutex),
	}
}

// WithClock pins the ledger's notion of today; used by tests and by
// runs that pin a run timestamp.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func (l *Ledger) groupLock(group string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.groupMus[group]
	if !ok {
		m = &sync.Mutex{}
		l.groupMus[group] = m
	}
	return m
}

func (l *Ledger) addWarning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

// Warnings returns ledger-level failures accumulated during the run.
func (l *Ledger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.warnings))
	copy(out, l.warnings)
	return out
}

func (l *Ledger) load(ctx context.Context, group string) Document {
	doc, err := l.store.Load(ctx, group)
	if err != nil {
		slog.Warn("ledger unreadable, treating history as empty for this run",
			"group", group, "error", err)
		l.addWarning(fmt.Sprintf("ledger read failed for %s: %v", group, err))
		return Document{}
	}
	if doc == nil {
		doc = Document{}
	}
	return doc
}

// SeenSet returns the union of canonical URLs shown in the withinDays
// dates before today, excluding today itself: a key published moments
// ago is still seen if it was already shown yesterday.
func (l *Ledger) SeenSet(ctx context.Context, group string, withinDays int) map[string]bool {
	doc := l.load(ctx, group)
	today := l.now().UTC().Format(dateLayout)
	cutoff := l.now().UTC().AddDate(0, 0, -withinDays).Format(dateLayout)

	seen := make(map[string]bool)
	for date, entry := range doc {
		if entry == nil || date >= today || date < cutoff {
			continue
		}
		for _, u := range entry.URLs {
			seen[u] = true
		}
	}
	return seen
}

// HasSeen reports whether key was shown for group within the lookback
// window, today excluded.
func (l *Ledger) HasSeen(ctx context.Context, group, key string, withinDays int) bool {
	return l.SeenSet(ctx, group, withinDays)[key]
}

// RecordShown merges keys into the date bucket for group. The write is
// serialized per group, merge-not-overwrite, and idempotent on retry.
// Entries older than the retention window are pruned on every write.
func (l *Ledger) RecordShown(ctx context.Context, group, date string, keys []string, byEntity map[string][]string) error {
	if len(keys) == 0 && len(byEntity) == 0 {
		return nil
	}

	lock := l.groupLock(group)
	lock.Lock()
	defer lock.Unlock()

	doc := l.load(ctx, group)

	entry := doc[date]
	if entry == nil {
		entry = &DayEntry{}
		doc[date] = entry
	}
	entry.URLs = mergeSet(entry.URLs, keys)
	if len(byEntity) > 0 {
		if entry.ByEntity == nil {
			entry.ByEntity = make(map[string][]string)
		}
		for entity, urls := range byEntity {
			entry.ByEntity[entity] = mergeSet(entry.ByEntity[entity], urls)
		}
	}

	l.pruneLocked(doc)

	if err := l.store.Save(ctx, group, doc); err != nil {
		msg := fmt.Sprintf("ledger write failed for %s: tomorrow's freshness filter is at risk: %v", group, err)
		slog.Error("ledger write failed", "group", group, "date", date, "error", err)
		l.addWarning(msg)
		return fmt.Errorf("save ledger %s: %w", group, err)
	}
	return nil
}

func (l *Ledger) pruneLocked(doc Document) {
	cutoff := l.now().UTC().AddDate(0, 0, -l.retainDays).Format(dateLayout)
	for date := range doc {
		if date < cutoff {
			delete(doc, date)
		}
	}
}

func mergeSet(existing, add []string) []string {
	seen := make(map[string]bool, len(existing)+len(add))
	merged := make([]string, 0, len(existing)+len(add))
	for _, lists := range [][]string{existing, add} {
		for _, u := range lists {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			merged = append(merged, u)
		}
	}
	sort.Strings(merged)
	return merged
}
