// Package infra persists the cart as a single JSON record in the local
// SQLite store, using the same wire layout the upstream fake-store API
// serves for carts: {id, userId, date, products:[{productId, quantity}]}.
package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcmexdev/storefront/internal/cart/app"
	"github.com/jcmexdev/storefront/internal/cart/domain"
)

// StorageKey is the fixed record name the cart lives under.
const StorageKey = "cart"

// dateLayout matches the date-only format the original record carries.
const dateLayout = "2006-01-02"

// BlobStore is the slice of the SQLite store the cart repository needs.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, body []byte) error
}

// persistedCart is the on-disk JSON shape. Extra fields in stored payloads
// are ignored on load for forward compatibility.
type persistedCart struct {
	ID       int64           `json:"id"`
	UserID   int64           `json:"userId"`
	Date     string          `json:"date"`
	Products []persistedItem `json:"products"`
}

type persistedItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Store reads and writes the single cart record.
type Store struct {
	kv  BlobStore
	log *slog.Logger
}

// Ensure Store implements the reconciliation service's port at compile time.
var _ app.Store = (*Store)(nil)

func NewStore(kv BlobStore, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{kv: kv, log: log}
}

// Load returns the persisted cart. A missing record reports (zero, false,
// nil). A record that cannot be parsed is treated the same way — the
// malformed payload is logged and the caller substitutes a fresh cart — so
// corrupt local state never takes the screen down.
func (s *Store) Load(ctx context.Context) (domain.Cart, bool, error) {
	body, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return domain.Cart{}, false, fmt.Errorf("cart store: load: %w", err)
	}
	if !ok {
		return domain.Cart{}, false, nil
	}

	var p persistedCart
	if err := json.Unmarshal(body, &p); err != nil {
		s.log.WarnContext(ctx, "discarding malformed persisted cart", "error", err)
		return domain.Cart{}, false, nil
	}

	cart := domain.Cart{
		ID:      p.ID,
		OwnerID: p.UserID,
		Items:   make([]domain.LineItem, 0, len(p.Products)),
	}
	if t, err := time.Parse(dateLayout, p.Date); err == nil {
		cart.Created = t
	}
	for _, it := range p.Products {
		// Re-clamp and discard repeated product ids on load: older writers
		// (or hand-edited records) may have stored out-of-range quantities
		// or duplicate lines. Each product holds at most one line item, so
		// the first occurrence wins, same as remote seeding.
		if cart.Find(it.ProductID) >= 0 {
			continue
		}
		cart.Items = append(cart.Items, domain.LineItem{
			ProductID: it.ProductID,
			Quantity:  domain.ClampQuantity(it.Quantity),
		})
	}
	return cart, true, nil
}

// Save overwrites the persisted cart record. Failures are returned to the
// caller; the in-memory cart stays authoritative until the next successful
// save.
func (s *Store) Save(ctx context.Context, cart domain.Cart) error {
	p := persistedCart{
		ID:       cart.ID,
		UserID:   cart.OwnerID,
		Date:     cart.Created.Format(dateLayout),
		Products: make([]persistedItem, 0, len(cart.Items)),
	}
	for _, it := range cart.Items {
		p.Products = append(p.Products, persistedItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cart store: marshal: %w", err)
	}
	if err := s.kv.Put(ctx, StorageKey, body); err != nil {
		return fmt.Errorf("cart store: save: %w", err)
	}
	return nil
}
