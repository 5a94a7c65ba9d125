package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"rental-aggregator/internal/models"
)

const DefaultIndex = "rental-listings"

// ElasticsearchStore bulk-indexes listings so they can be searched across runs.
type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchStore(client *elasticsearch.Client, index string) *ElasticsearchStore {
	if index == "" {
		index = DefaultIndex
	}
	return &ElasticsearchStore{client: client, index: index}
}

func (s *ElasticsearchStore) Name() string { return "elasticsearch" }

type indexedListing struct {
	models.UnifiedProperty
	Tool string `json:"tool"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

func (s *ElasticsearchStore) Store(ctx context.Context, tool string, props []models.UnifiedProperty) error {
	if len(props) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range props {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": s.index, "_id": DocumentID(p)},
		}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(indexedListing{UnifiedProperty: p, Tool: tool}); err != nil {
			return fmt.Errorf("failed to encode listing %s: %w", p.ID, err)
		}
	}

	req := esapi.BulkRequest{
		Index: s.index,
		Body:  &buf,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("bulk index failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk index failed: %s", res.String())
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if !br.Errors {
		return nil
	}

	failed := 0
	var first string
	for _, item := range br.Items {
		for _, result := range item {
			if result.Error != nil {
				failed++
				if first == "" {
					first = result.ID + ": " + result.Error.Reason
				}
			}
		}
	}
	return fmt.Errorf("bulk index rejected %d of %d listings (first: %s)", failed, len(props), first)
}

// DocumentID is stable per listing so re-indexing a search overwrites earlier copies.
func DocumentID(p models.UnifiedProperty) string {
	return p.Source + ":" + p.ID
}
