// Package product stores enriched products as JSON documents keyed by the
// shop's product id.
package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Autilos/perfun-bot-new/internal/db"
	"github.com/Autilos/perfun-bot-new/internal/domain"
	domprod "github.com/Autilos/perfun-bot-new/internal/domain/product"
)

// store is the consumer interface for products (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMulti(ctx context.Context, items []db.KVItem) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements batch.Writer and the lookups used by bestseller tagging.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a product repository. Keys are "{keyPrefix}product:{id}".
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// BatchUpsert writes all products in one round-trip. An existing document with
// the same external id is replaced as a whole.
func (r *Repo) BatchUpsert(ctx context.Context, products []domprod.Enriched) error {
	if len(products) == 0 {
		return nil
	}

	items := make([]db.KVItem, 0, len(products))
	for _, p := range products {
		if p.ExternalID() == "" {
			return fmt.Errorf("product %q has no external id", p.Name())
		}
		data, err := json.Marshal(toDoc(p))
		if err != nil {
			return fmt.Errorf("marshal product %s: %w", p.ExternalID(), err)
		}
		items = append(items, db.KVItem{Key: r.key(p.ExternalID()), Value: data})
	}

	if err := r.store.SetMulti(ctx, items); err != nil {
		return fmt.Errorf("set %d products: %w", len(items), err)
	}
	return nil
}

// Upsert writes a single product.
func (r *Repo) Upsert(ctx context.Context, p domprod.Enriched) error {
	data, err := json.Marshal(toDoc(p))
	if err != nil {
		return fmt.Errorf("marshal product %s: %w", p.ExternalID(), err)
	}
	if err := r.store.Set(ctx, r.key(p.ExternalID()), data); err != nil {
		return fmt.Errorf("set product %s: %w", p.ExternalID(), err)
	}
	return nil
}

// Get returns a product by external id.
func (r *Repo) Get(ctx context.Context, externalID string) (domprod.Enriched, error) {
	key := r.key(externalID)
	data, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domprod.Enriched{}, fmt.Errorf("product %s: %w", externalID, domain.ErrNotFound)
		}
		return domprod.Enriched{}, fmt.Errorf("get %s: %w", key, err)
	}

	var doc productDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return domprod.Enriched{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return doc.toDomain(), nil
}

// Count returns the exact number of stored products.
func (r *Repo) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.keyPrefix+"product:*")
	if err != nil {
		return 0, fmt.Errorf("scan products: %w", err)
	}
	return len(keys), nil
}

func (r *Repo) key(externalID string) string {
	return r.keyPrefix + "product:" + externalID
}
