package product

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Autilos/perfun-bot-new/internal/db"
	domprod "github.com/Autilos/perfun-bot-new/internal/domain/product"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn      func(ctx context.Context, key string) ([]byte, error)
	setFn      func(ctx context.Context, key string, value []byte) error
	setMultiFn func(ctx context.Context, items []db.KVItem) error
	scanFn     func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockStore) SetMulti(ctx context.Context, items []db.KVItem) error {
	if m.setMultiFn != nil {
		return m.setMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func testProduct(id string) domprod.Enriched {
	return domprod.Reconstruct(
		id, "Afnan 9PM", "Afnan", decimal.RequireFromString("149.99"), true,
		"Zapach elegancki.", "Głowa: jabłko", "https://perfun.pl/9pm.jpg",
		"https://perfun.pl/produkt/afnan-9pm/", []float32{0.25, -1},
	)
}
