package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "alfred:ledger:"

// RedisStore keeps one hash per entity group: field = ISO date,
// value = JSON-encoded DayEntry. Used when REDIS_URL is configured;
// the file store remains the default backing.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, group string) (Document, error) {
	fields, err := s.client.HGetAll(ctx, redisKeyPrefix+group).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ledger read: %w", err)
	}

	doc := make(Document, len(fields))
	for date, raw := range fields {
		var entry DayEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("redis ledger entry %s malformed: %w", date, err)
		}
		doc[date] = &entry
	}
	return doc, nil
}

func (s *RedisStore) Save(ctx context.Context, group string, doc Document) error {
	key := redisKeyPrefix + group

	fields := make(map[string]any, len(doc))
	for date, entry := range doc {
		raw, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode ledger entry %s: %w", date, err)
		}
		fields[date] = raw
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(fields) > 0 {
		pipe.HSet(ctx, key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis ledger write: %w", err)
	}
	return nil
}
