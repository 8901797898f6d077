// Package qdrant implements the party index on a Qdrant server. All parties
// share one collection; each point carries a "party" payload field that
// search and replace filter on.
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"

	"github.com/wahlkompass/wahlkompass/internal/index"
	"github.com/wahlkompass/wahlkompass/internal/party"
)

// Store wraps the Qdrant client with connection management and health checks.
type Store struct {
	client     *qdrant.Client
	collection string
}

var _ index.Store = (*Store)(nil)

// NewStore creates a Qdrant-backed store and validates connectivity with a
// retried health check, failing fast if the server is unreachable.
func NewStore(host string, port int, collection string) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	s := &Store{client: client, collection: collection}

	if err := s.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", index.ErrStoreUnreachable, err)
	}

	return s, nil
}

func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check against Qdrant.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the manifesto collection (cosine distance,
// fixed dimension) and the party payload index if they do not exist yet.
// Idempotent.
func (s *Store) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(index.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	// Without this index, party-filtered search degrades badly.
	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      "party",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("create party index: %w", err)
	}

	return nil
}

// Replace deletes the party's points and upserts the new chunks. For this
// backend a rebuild is an offline operation; the in-process backend covers
// the swap-under-traffic case.
func (s *Store) Replace(ctx context.Context, p party.Party, chunks []index.Chunk) error {
	for i, chunk := range chunks {
		if len(chunk.Embedding) != index.Dimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				index.ErrDimensionMismatch, i, len(chunk.Embedding), index.Dimension)
		}
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{partyCondition(p)},
		}),
	})
	if err != nil {
		return fmt.Errorf("clear party %s: %w", p, err)
	}

	// Batch upserts in groups of 100.
	batchSize := 100
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		batch := chunks[i:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for j, chunk := range batch {
			payload := map[string]any{
				"party":  chunk.Party.Key(),
				"text":   chunk.Text,
				"source": chunk.Source,
				"link":   chunk.Link,
			}
			if chunk.Section != "" {
				payload["section"] = chunk.Section
			}
			if chunk.Page != nil {
				payload["page"] = *chunk.Page
			}
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectors(chunk.Embedding...),
				Payload: qdrant.NewValueMap(payload),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

func (s *Store) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Search performs party-filtered vector similarity search, descending score.
func (s *Store) Search(ctx context.Context, p party.Party, vector []float32, k int) ([]index.Hit, error) {
	if len(vector) != index.Dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			index.ErrDimensionMismatch, len(vector), index.Dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{partyCondition(p)},
		},
		Limit:       qdrant.PtrOf(uint64(k)),
		WithPayload: qdrant.NewWithPayload(true),
		WithVectors: qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("search chunks for %s: %w", p, err)
	}

	hits := make([]index.Hit, 0, len(results))
	for _, result := range results {
		payload := result.Payload

		chunk := index.Chunk{
			ID:      result.Id.GetUuid(),
			Party:   p,
			Text:    payload["text"].GetStringValue(),
			Source:  payload["source"].GetStringValue(),
			Section: payload["section"].GetStringValue(),
			Link:    payload["link"].GetStringValue(),
		}
		if pageVal, ok := payload["page"]; ok {
			page := int(pageVal.GetIntegerValue())
			chunk.Page = &page
		}

		hits = append(hits, index.Hit{Chunk: chunk, Score: float64(result.Score)})
	}

	return hits, nil
}

// Count returns the number of points indexed for the party.
func (s *Store) Count(ctx context.Context, p party.Party) (int, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{partyCondition(p)},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("count chunks for %s: %w", p, err)
	}
	return int(count), nil
}

func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func partyCondition(p party.Party) *qdrant.Condition {
	return qdrant.NewMatch("party", p.Key())
}
