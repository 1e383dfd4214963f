package product

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Autilos/perfun-bot-new/internal/db"
	"github.com/Autilos/perfun-bot-new/internal/domain"
	domprod "github.com/Autilos/perfun-bot-new/internal/domain/product"
)

func TestBatchUpsert(t *testing.T) {
	var written []db.KVItem
	ms := &mockStore{setMultiFn: func(_ context.Context, items []db.KVItem) error {
		written = items
		return nil
	}}
	repo := New(ms, "perfun:")

	err := repo.BatchUpsert(context.Background(), []domprod.Enriched{testProduct("1"), testProduct("2")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(written) != 2 {
		t.Fatalf("expected 2 items, got %d", len(written))
	}
	if written[0].Key != "perfun:product:1" || written[1].Key != "perfun:product:2" {
		t.Errorf("unexpected keys %q %q", written[0].Key, written[1].Key)
	}

	var doc map[string]any
	if err := json.Unmarshal(written[0].Value, &doc); err != nil {
		t.Fatalf("stored value is not JSON: %v", err)
	}
	if doc["wp_id"] != "1" || doc["brand"] != "Afnan" {
		t.Errorf("unexpected document %v", doc)
	}
	if doc["price"] != "149.99" {
		t.Errorf("expected price stored as string, got %#v", doc["price"])
	}
	if doc["scent_notes_combined"] != "Głowa: jabłko" {
		t.Errorf("unexpected notes %v", doc["scent_notes_combined"])
	}
}

func TestBatchUpsert_Empty(t *testing.T) {
	ms := &mockStore{setMultiFn: func(context.Context, []db.KVItem) error {
		t.Fatal("store must not be called for an empty batch")
		return nil
	}}
	if err := New(ms, "perfun:").BatchUpsert(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBatchUpsert_StoreError(t *testing.T) {
	ms := &mockStore{setMultiFn: func(context.Context, []db.KVItem) error {
		return &db.Error{Op: db.OpSet, Err: errors.New("connection reset")}
	}}
	err := New(ms, "perfun:").BatchUpsert(context.Background(), []domprod.Enriched{testProduct("1")})

	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected wrapped db.Error, got %v", err)
	}
}

func TestBatchUpsert_MissingID(t *testing.T) {
	err := New(&mockStore{}, "perfun:").BatchUpsert(context.Background(), []domprod.Enriched{testProduct("")})
	if err == nil {
		t.Fatal("expected error for product without id")
	}
}

func TestGet_RoundTrip(t *testing.T) {
	stored := map[string][]byte{}
	ms := &mockStore{
		setFn: func(_ context.Context, key string, value []byte) error {
			stored[key] = value
			return nil
		},
		getFn: func(_ context.Context, key string) ([]byte, error) {
			if v, ok := stored[key]; ok {
				return v, nil
			}
			return nil, db.ErrKeyNotFound
		},
	}
	repo := New(ms, "perfun:")

	want := testProduct("48213")
	if err := repo.Upsert(context.Background(), want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.Get(context.Background(), "48213")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name() != want.Name() || !got.Price().Equal(want.Price()) || got.Description() != want.Description() {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Embedding()) != 2 || got.Embedding()[1] != -1 {
		t.Errorf("unexpected embedding %v", got.Embedding())
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := New(&mockStore{}, "perfun:").Get(context.Background(), "404")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCount(t *testing.T) {
	ms := &mockStore{scanFn: func(_ context.Context, pattern string) ([]string, error) {
		if pattern != "perfun:product:*" {
			t.Errorf("unexpected pattern %q", pattern)
		}
		return []string{"perfun:product:1", "perfun:product:2", "perfun:product:3"}, nil
	}}

	n, err := New(ms, "perfun:").Count(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
}
