package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "savings-workers/internal/common/errors"
	"savings-workers/internal/models"
)

// maxCatalogSize bounds a single search; catalogs are small.
const maxCatalogSize = 1000

// ElasticsearchSource reads catalog documents from an index, sorted by their
// position field.
type ElasticsearchSource struct {
	client  *elasticsearch.Client
	index   string
	timeout time.Duration
}

func NewElasticsearchSource(client *elasticsearch.Client, index string, timeout time.Duration) *ElasticsearchSource {
	return &ElasticsearchSource{client: client, index: index, timeout: timeout}
}

func (s *ElasticsearchSource) Name() string { return "elasticsearch" }

type productDocument struct {
	Name                 string   `json:"name"`
	AnnualRate           float64  `json:"annual_rate"`
	TaxRate              float64  `json:"tax_rate"`
	MinHorizonYears      int      `json:"min_horizon_years"`
	MaxTotalContribution *float64 `json:"max_total_contribution"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value    int    `json:"value"`
			Relation string `json:"relation"`
		} `json:"total"`
		Hits []struct {
			Source productDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func searchBody() string {
	body, _ := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort": []interface{}{
			map[string]interface{}{"position": map[string]interface{}{"order": "asc", "unmapped_type": "long"}},
			map[string]interface{}{"name.keyword": map[string]interface{}{"order": "asc", "unmapped_type": "keyword"}},
		},
	})
	return string(body)
}

func (s *ElasticsearchSource) Products(ctx context.Context) ([]models.SavingsProduct, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	size := maxCatalogSize
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(searchBody()),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewQueryTimeoutError(s.index)
		}
		return nil, apperrors.NewSearchQueryFailedError(s.index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, apperrors.NewResourceNotFoundError("elasticsearch", fmt.Sprintf("index %s", s.index))
	}
	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("search failed: %s", res.Status()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, apperrors.NewSearchQueryFailedError(s.index, fmt.Errorf("decode response: %w", err))
	}

	if total := r.Hits.Total; total.Value > len(r.Hits.Hits) || total.Relation == "gte" {
		return nil, apperrors.NewSearchQueryFailedError(s.index,
			fmt.Errorf("catalog holds %d products, more than the %d a search returns", total.Value, maxCatalogSize))
	}

	products := make([]models.SavingsProduct, 0, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		p := models.SavingsProduct{
			Name:                 hit.Source.Name,
			AnnualRate:           hit.Source.AnnualRate,
			TaxRate:              hit.Source.TaxRate,
			MinHorizonYears:      hit.Source.MinHorizonYears,
			MaxTotalContribution: hit.Source.MaxTotalContribution,
		}
		if err := p.Validate(); err != nil {
			return nil, apperrors.NewInvalidRecordError(s.index, i+1, err)
		}
		products = append(products, p)
	}
	return products, nil
}
