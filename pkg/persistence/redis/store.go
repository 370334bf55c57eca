package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/juris/pkg/models"
	"github.com/redis/go-redis/v9"
)

type (
	workflowRecord  = models.WorkflowDefinition
	executionRecord = models.WorkflowExecution
	taskRecord      = models.ApprovalTask
	ruleRecord      = models.DocumentProcessingRule
	templateRecord  = models.DocumentTemplate
)

// hashStore keeps every record of a kind as a JSON field of the juris:<kind> hash.
type hashStore[T any] struct {
	client   redis.UniversalClient
	key      string
	kind     string
	notFound error
}

func newHashStore[T any](client redis.UniversalClient, kind string, notFound error) *hashStore[T] {
	return &hashStore[T]{client: client, key: keyPrefix + kind, kind: kind, notFound: notFound}
}

func (s *hashStore[T]) get(ctx context.Context, id string) (*T, error) {
	body, err := s.client.HGet(ctx, s.key, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, s.notFound
		}

		return nil, fmt.Errorf("failed to fetch %s %s: %w", s.kind, id, err)
	}

	return s.decode(id, body)
}

func (s *hashStore[T]) all(ctx context.Context) ([]*T, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.kind, err)
	}

	records := make([]*T, 0, len(values))

	for id, body := range values {
		record, err := s.decode(id, []byte(body))
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}

// many fetches the given ids, skipping ids whose record no longer exists.
func (s *hashStore[T]) many(ctx context.Context, ids []string) ([]*T, error) {
	if len(ids) == 0 {
		return []*T{}, nil
	}

	values, err := s.client.HMGet(ctx, s.key, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.kind, err)
	}

	records := make([]*T, 0, len(values))

	for i, value := range values {
		body, ok := value.(string)
		if !ok {
			continue
		}

		record, err := s.decode(ids[i], []byte(body))
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}

func (s *hashStore[T]) encode(id string, record *T) ([]byte, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s %s: %w", s.kind, id, err)
	}

	return body, nil
}

func (s *hashStore[T]) save(ctx context.Context, id string, record *T) error {
	body, err := s.encode(id, record)
	if err != nil {
		return err
	}

	err = s.client.HSet(ctx, s.key, id, body).Err()
	if err != nil {
		return fmt.Errorf("failed to save %s %s: %w", s.kind, id, err)
	}

	return nil
}

func (s *hashStore[T]) delete(ctx context.Context, id string) error {
	err := s.client.HDel(ctx, s.key, id).Err()
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", s.kind, id, err)
	}

	return nil
}

func (s *hashStore[T]) decode(id string, body []byte) (*T, error) {
	var record T

	err := json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s %s: %w", s.kind, id, err)
	}

	return &record, nil
}

func indexKey(kind, field, value string) string {
	return keyPrefix + kind + ":" + field + ":" + value
}
