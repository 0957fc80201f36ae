package weights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mover-brief/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const weightsKey = "weights:categories"

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Store persists the category weight table in Redis. Weights survive
// restarts; the key has no TTL.
type Store struct {
	redis  RedisClient
	tracer trace.Tracer
}

func NewStore(redisClient RedisClient, tracer trace.Tracer) *Store {
	return &Store{redis: redisClient, tracer: tracer}
}

// Load returns the persisted weight table. Missing or never-written keys
// yield the defaults; categories absent from the stored table are filled
// from the defaults so a schema addition never leaves a hole.
func (s *Store) Load(ctx context.Context) (domain.WeightTable, error) {
	_, span := s.tracer.Start(ctx, "weight-store.load")
	defer span.End()

	if s.redis == nil {
		return domain.DefaultWeights(), nil
	}

	data, err := s.redis.Get(ctx, weightsKey).Result()
	if errors.Is(err, redis.Nil) {
		return domain.DefaultWeights(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}

	var stored domain.WeightTable
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("parse weights: %w", err)
	}

	table := domain.DefaultWeights()
	for _, cat := range domain.Categories {
		if v, ok := stored[cat]; ok {
			table[cat] = v
		}
	}
	return table, nil
}

func (s *Store) Save(ctx context.Context, table domain.WeightTable) error {
	_, span := s.tracer.Start(ctx, "weight-store.save")
	defer span.End()

	if s.redis == nil {
		return nil
	}

	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	if err := s.redis.Set(ctx, weightsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("save weights: %w", err)
	}
	return nil
}
