package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/fadedpez/wagerescrow/internal/logging"
	"github.com/fadedpez/wagerescrow/pkg/entities"
)

// ElasticsearchConfig holds configuration options for the Elasticsearch repository
type ElasticsearchConfig struct {
	URL         string
	Username    string
	Password    string
	IndexPrefix string
}

// DefaultElasticsearchConfig returns a default configuration for Elasticsearch
func DefaultElasticsearchConfig() *ElasticsearchConfig {
	return &ElasticsearchConfig{
		URL:         "http://localhost:9200",
		IndexPrefix: "wagerescrow",
	}
}

const eventMapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"type": { "type": "keyword" },
			"game_address": { "type": "keyword" },
			"code": { "type": "keyword" },
			"game_type": { "type": "integer" },
			"actor": { "type": "keyword" },
			"amount": { "type": "unsigned_long" },
			"winner": { "type": "keyword" },
			"players": { "type": "keyword" },
			"timestamp": { "type": "date" }
		}
	},
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 1,
		"refresh_interval": "1s"
	}
}`

// esEvent is a game event document in Elasticsearch
type esEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	GameAddress string    `json:"game_address"`
	Code        string    `json:"code"`
	GameType    uint8     `json:"game_type"`
	Actor       string    `json:"actor,omitempty"`
	Amount      uint64    `json:"amount"`
	Winner      string    `json:"winner,omitempty"`
	Players     []string  `json:"players"`
	Timestamp   time.Time `json:"timestamp"`
}

// ElasticsearchRepository mirrors events into monthly Elasticsearch indices
// for search, keeping baseRepo as the system of record.
type ElasticsearchRepository struct {
	baseRepo    Repository
	client      *elasticsearch.Client
	indexPrefix string
	logger      *logging.Logger

	mu      sync.Mutex
	created map[string]bool
}

// NewElasticsearchRepository creates a new Elasticsearch repository
func NewElasticsearchRepository(baseRepo Repository, config *ElasticsearchConfig) (*ElasticsearchRepository, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{config.URL},
	}
	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	prefix := config.IndexPrefix
	if prefix == "" {
		prefix = DefaultElasticsearchConfig().IndexPrefix
	}

	return &ElasticsearchRepository{
		baseRepo:    baseRepo,
		client:      client,
		indexPrefix: prefix,
		logger:      logging.Default.WithPrefix("HISTORY"),
		created:     make(map[string]bool),
	}, nil
}

// indexFor is the monthly index an event belongs to
func (r *ElasticsearchRepository) indexFor(t time.Time) string {
	return r.indexPrefix + "_events_" + t.UTC().Format("2006-01")
}

func (r *ElasticsearchRepository) searchPattern() string {
	return r.indexPrefix + "_events_*"
}

// ensureIndex creates index with the event mapping if it does not exist yet
func (r *ElasticsearchRepository) ensureIndex(ctx context.Context, index string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.created[index] {
		return nil
	}

	res, err := r.client.Indices.Exists([]string{index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error checking if index exists: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		req := esapi.IndicesCreateRequest{
			Index: index,
			Body:  strings.NewReader(eventMapping),
		}
		res, err := req.Do(ctx, r.client)
		if err != nil {
			return fmt.Errorf("error creating index %s: %w", index, err)
		}
		defer res.Body.Close()

		// a concurrent writer may have won the race
		if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
			return fmt.Errorf("error creating index %s: %s", index, res.String())
		}
		r.logger.Info("Created event index %s", index)
	}

	r.created[index] = true
	return nil
}

// RecordEvent saves to the base repository, then indexes the event
func (r *ElasticsearchRepository) RecordEvent(ctx context.Context, event *entities.GameEvent) error {
	if err := r.baseRepo.RecordEvent(ctx, event); err != nil {
		return fmt.Errorf("error saving event to base repository: %w", err)
	}
	return r.IndexEvent(ctx, event)
}

// IndexEvent writes event to Elasticsearch only
func (r *ElasticsearchRepository) IndexEvent(ctx context.Context, event *entities.GameEvent) error {
	index := r.indexFor(event.Timestamp)
	if err := r.ensureIndex(ctx, index); err != nil {
		return err
	}

	body, err := json.Marshal(toESEvent(event))
	if err != nil {
		return fmt.Errorf("error marshaling event: %w", err)
	}

	res, err := r.client.Index(
		index,
		bytes.NewReader(body),
		r.client.Index.WithContext(ctx),
		r.client.Index.WithDocumentID(event.ID),
		r.client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("error indexing event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing event: %s", res.String())
	}
	return nil
}

func (r *ElasticsearchRepository) GameEvents(ctx context.Context, addr entities.Address, limit int) ([]*entities.GameEvent, error) {
	return r.search(ctx, map[string]any{"term": map[string]any{"game_address": string(addr)}}, limit)
}

func (r *ElasticsearchRepository) PlayerEvents(ctx context.Context, player entities.Identity, limit int) ([]*entities.GameEvent, error) {
	return r.search(ctx, map[string]any{
		"bool": map[string]any{
			"should": []any{
				map[string]any{"term": map[string]any{"actor": string(player)}},
				map[string]any{"term": map[string]any{"players": string(player)}},
			},
			"minimum_should_match": 1,
		},
	}, limit)
}

func (r *ElasticsearchRepository) search(ctx context.Context, query map[string]any, limit int) ([]*entities.GameEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	body, err := json.Marshal(map[string]any{
		"query": query,
		"sort":  []any{map[string]any{"timestamp": map[string]any{"order": "desc"}}},
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.searchPattern()),
		r.client.Search.WithBody(bytes.NewReader(body)),
		r.client.Search.WithSize(limit),
		r.client.Search.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return nil, fmt.Errorf("error searching events: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching events: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source esEvent `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("error parsing search response: %w", err)
	}

	events := make([]*entities.GameEvent, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		events = append(events, hit.Source.toEntity())
	}
	return events, nil
}

// Prune prunes the base repository and deletes the same range from the
// indices. The count is the base repository's.
func (r *ElasticsearchRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	n, err := r.baseRepo.Prune(ctx, before)
	if err != nil {
		return 0, err
	}

	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"range": map[string]any{
				"timestamp": map[string]any{"lt": before.UTC().Format(time.RFC3339Nano)},
			},
		},
	})
	if err != nil {
		return n, fmt.Errorf("error marshaling prune query: %w", err)
	}

	req := esapi.DeleteByQueryRequest{
		Index:             []string{r.searchPattern()},
		Body:              bytes.NewReader(body),
		IgnoreUnavailable: esapi.BoolPtr(true),
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return n, fmt.Errorf("error pruning indexed events: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return n, fmt.Errorf("error pruning indexed events: %s", res.String())
	}

	var result struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err == nil {
		r.logger.Debug("Pruned %d indexed events older than %s", result.Deleted, before.Format(time.RFC3339))
	}
	return n, nil
}

// Close closes the base repository
func (r *ElasticsearchRepository) Close() error {
	return r.baseRepo.Close()
}

func toESEvent(e *entities.GameEvent) esEvent {
	players := make([]string, len(e.Players))
	for i, p := range e.Players {
		players[i] = string(p)
	}
	return esEvent{
		ID:          e.ID,
		Type:        string(e.Type),
		GameAddress: string(e.GameAddress),
		Code:        e.Code,
		GameType:    uint8(e.GameType),
		Actor:       string(e.Actor),
		Amount:      e.Amount,
		Winner:      string(e.Winner),
		Players:     players,
		Timestamp:   e.Timestamp,
	}
}

func (d esEvent) toEntity() *entities.GameEvent {
	players := make([]entities.Identity, len(d.Players))
	for i, p := range d.Players {
		players[i] = entities.Identity(p)
	}
	return &entities.GameEvent{
		ID:          d.ID,
		Type:        entities.EventType(d.Type),
		GameAddress: entities.Address(d.GameAddress),
		Code:        d.Code,
		GameType:    entities.GameType(d.GameType),
		Actor:       entities.Identity(d.Actor),
		Amount:      d.Amount,
		Winner:      entities.Identity(d.Winner),
		Players:     players,
		Timestamp:   d.Timestamp,
	}
}
