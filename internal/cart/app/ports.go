package app

import (
	"context"

	"github.com/jcmexdev/storefront/internal/cart/domain"
	"github.com/jcmexdev/storefront/internal/catalog"
)

// Store is the durable cart record. Load reports absence (including
// malformed payloads) via the bool, not an error.
type Store interface {
	Load(ctx context.Context) (domain.Cart, bool, error)
	Save(ctx context.Context, cart domain.Cart) error
}

// PriceSource resolves live unit prices for the products in the cart.
// Both *catalog.Client and *catalog.CachedClient satisfy it.
type PriceSource interface {
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
}

// CartSeeder fetches a remote cart used to seed the local store the first
// time the screen opens with no persisted cart.
type CartSeeder interface {
	FetchCart(ctx context.Context, id int64) (catalog.RemoteCart, error)
}
