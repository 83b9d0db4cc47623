package ledger

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and by runs that
// explicitly opt out of durable history.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document

	LoadErr error
	SaveErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (s *MemoryStore) Load(_ context.Context, group string) (Document, error) {
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := Document{}
	for date, entry := range s.docs[group] {
		urls := make([]string, len(entry.URLs))
		copy(urls, entry.URLs)
		copied := &DayEntry{URLs: urls}
		if entry.ByEntity != nil {
			copied.ByEntity = make(map[string][]string, len(entry.ByEntity))
			for k, v := range entry.ByEntity {
				vv := make([]string, len(v))
				copy(vv, v)
				copied.ByEntity[k] = vv
			}
		}
		doc[date] = copied
	}
	return doc, nil
}

func (s *MemoryStore) Save(_ context.Context, group string, doc Document) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[group] = doc
	return nil
}
