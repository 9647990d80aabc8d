package retrieval

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	retrievalmodel "github.com/lexhq/lex-backend/internal/model/retrieval"
)

// WeaviateIndex implements Index against the pre-built Weaviate class holding
// the legal passage corpus. The index is built offline; this client only
// queries it.
type WeaviateIndex struct {
	client    *weaviate.Client
	className string
}

// NewWeaviateIndex connects to the semantic index.
func NewWeaviateIndex(host, scheme, apiKey, className string) (*WeaviateIndex, error) {
	if className == "" {
		className = "LegalPassage"
	}
	cfg := weaviate.Config{Host: host, Scheme: scheme}
	if apiKey != "" {
		cfg.AuthConfig = auth.ApiKey{Value: apiKey}
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating weaviate client: %w", err)
	}
	return &WeaviateIndex{client: client, className: className}, nil
}

// Search runs a nearVector query and returns passages with their provenance
// and distance.
func (w *WeaviateIndex) Search(ctx context.Context, vector []float32, limit int) ([]retrievalmodel.Passage, error) {
	nearVector := w.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	fields := []graphql.Field{
		{Name: "text"},
		{Name: "source"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "distance"},
		}},
	}

	result, err := w.client.GraphQL().Get().
		WithClassName(w.className).
		WithNearVector(nearVector).
		WithFields(fields...).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate query: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate query: %s", result.Errors[0].Message)
	}

	return parsePassages(result.Data, w.className)
}

func parsePassages(data map[string]models.JSONObject, className string) ([]retrievalmodel.Passage, error) {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected weaviate response shape")
	}
	items, ok := get[className].([]interface{})
	if !ok {
		return []retrievalmodel.Passage{}, nil
	}

	passages := make([]retrievalmodel.Passage, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		passage := retrievalmodel.Passage{}
		if text, ok := obj["text"].(string); ok {
			passage.Text = text
		}
		if source, ok := obj["source"].(string); ok {
			passage.Source = source
		}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if distance, ok := additional["distance"].(float64); ok {
				passage.Distance = distance
			}
		}
		passages = append(passages, passage)
	}
	return passages, nil
}
