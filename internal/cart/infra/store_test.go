package infra

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jcmexdev/storefront/internal/cart/domain"
	"github.com/jcmexdev/storefront/internal/storage/sqlite"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	kv, err := sqlite.Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return NewStore(kv, nil)
}

func itemsAsSet(items []domain.LineItem) map[int64]int {
	m := make(map[int64]int, len(items))
	for _, it := range items {
		m[it.ProductID] = it.Quantity
	}
	return m
}

func TestStore_LoadAbsent(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("expected absent cart")
	}
}

func TestStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	in := domain.Cart{
		ID:      42,
		OwnerID: 1,
		Created: time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
		Items: []domain.LineItem{
			{ProductID: 3, Quantity: 2},
			{ProductID: 1, Quantity: 10},
		},
	}
	if err := store.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("expected cart to exist")
	}
	if out.ID != in.ID || out.OwnerID != in.OwnerID {
		t.Fatalf("identity mismatch: got %+v", out)
	}
	if !out.Created.Equal(in.Created) {
		t.Fatalf("Created = %v, want %v", out.Created, in.Created)
	}

	// Order-insensitive set equality on items.
	got, want := itemsAsSet(out.Items), itemsAsSet(in.Items)
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for id, q := range want {
		if got[id] != q {
			t.Fatalf("item %d quantity = %d, want %d", id, got[id], q)
		}
	}
}

func TestStore_MalformedPayloadIsAbsent(t *testing.T) {
	kv, err := sqlite.Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	ctx := context.Background()

	if err := kv.Put(ctx, StorageKey, []byte(`{not json`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	store := NewStore(kv, nil)
	_, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load should swallow parse failures, got %v", err)
	}
	if ok {
		t.Fatal("malformed payload must read as absent")
	}
}

func TestStore_IgnoresUnknownFieldsAndReclamps(t *testing.T) {
	kv, err := sqlite.Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	ctx := context.Background()

	payload := `{"id":1,"userId":1,"date":"2025-01-15","__v":3,
		"products":[{"productId":5,"quantity":99,"sku":"x"}]}`
	if err := kv.Put(ctx, StorageKey, []byte(payload)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	store := NewStore(kv, nil)
	cart, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != domain.MaxQuantity {
		t.Fatalf("expected one re-clamped item, got %+v", cart.Items)
	}
}

func TestStore_DropsDuplicateProductLinesOnLoad(t *testing.T) {
	kv, err := sqlite.Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	ctx := context.Background()

	// A hand-edited record may carry the same product on several lines.
	// The loaded cart must hold one line per product: the first occurrence.
	payload := `{"id":1,"userId":1,"date":"2025-01-15",
		"products":[{"productId":5,"quantity":2},{"productId":5,"quantity":3},{"productId":7,"quantity":1}]}`
	if err := kv.Put(ctx, StorageKey, []byte(payload)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	store := NewStore(kv, nil)
	cart, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if len(cart.Items) != 2 {
		t.Fatalf("expected duplicate lines collapsed to 2 items, got %+v", cart.Items)
	}
	got := itemsAsSet(cart.Items)
	if got[5] != 2 || got[7] != 1 {
		t.Fatalf("items = %v, want {5:2 7:1}", got)
	}
	if cart.ItemCount() != 3 {
		t.Fatalf("ItemCount = %d, want 3", cart.ItemCount())
	}
}
