package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/freshmart/storefront/internal/models"
)

// OrderDoc is the order projection kept in the search index. It carries
// only what admin order lookup needs, never line-item snapshots.
type OrderDoc struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user"`
	UserEmail     string    `json:"userEmail"`
	TotalAmount   float64   `json:"totalAmount"`
	PaymentStatus string    `json:"paymentStatus"`
	PaymentMethod string    `json:"paymentMethod"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

type OrderIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func (x *OrderIndex) IndexOrder(ctx context.Context, order *models.Order) error {
	doc := OrderDoc{
		ID:            order.ID.String(),
		UserID:        order.UserID,
		UserEmail:     order.UserEmail,
		TotalAmount:   order.TotalAmount,
		PaymentStatus: order.PaymentStatus,
		PaymentMethod: order.PaymentMethod,
		Status:        order.Status,
		CreatedAt:     order.CreatedAt,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("search: marshal order doc: %w", err)
	}

	res, err := x.ES.Index(
		x.Index,
		bytes.NewReader(body),
		x.ES.Index.WithDocumentID(doc.ID),
		x.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: index order: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("search: index order: %s", res.Status())
	}
	return nil
}

func (x *OrderIndex) Search(ctx context.Context, query string, from, size int) (int64, []OrderDoc, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"userEmail^2", "user", "status", "paymentStatus", "id"},
				"fuzziness": "AUTO",
			},
		},
		"sort": []map[string]interface{}{
			{"createdAt": map[string]interface{}{"order": "desc", "unmapped_type": "date"}},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := x.ES.Search(
		x.ES.Search.WithContext(ctx),
		x.ES.Search.WithIndex(x.Index),
		x.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: query: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, nil, fmt.Errorf("search: query: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source OrderDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	docs := make([]OrderDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
