// Package domain holds the cart data model and the pure pricing helpers.
//
// A Cart is a single per-device record: an ordered list of line items keyed
// by product id. Quantities are clamped into [MinQuantity, MaxQuantity] on
// every mutation, so a Cart built only through this package never carries an
// out-of-range quantity.
package domain

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// Quantity bounds enforced on every line item mutation.
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// FixedOwnerID identifies the single local user of the demo storefront.
// The upstream fake-store API scopes its seeded carts the same way.
const FixedOwnerID int64 = 1

// ErrItemNotFound is returned by mutations that require the product to
// already be in the cart.
var ErrItemNotFound = errors.New("cart: item not found")

// LineItem is one product/quantity pair within a Cart.
type LineItem struct {
	ProductID int64
	Quantity  int
}

// Cart is the per-device record of selected products. Items preserve
// insertion order; the order carries no meaning. ProductID values are
// unique across Items.
type Cart struct {
	ID      int64
	OwnerID int64
	Created time.Time
	Items   []LineItem
}

// PriceIndex maps product ids to their last known unit price. It is
// ephemeral: rebuilt from the remote catalog, never persisted.
type PriceIndex map[int64]float64

// NewCart returns an empty cart with a freshly generated id and creation
// date, used whenever the store has no (or unreadable) persisted cart.
func NewCart(ownerID int64) Cart {
	return Cart{
		// Random positive id: the local cart never leaves the device, the
		// id only needs to be distinguishable across recreate cycles.
		ID:      rand.Int64N(math.MaxInt32) + 1,
		OwnerID: ownerID,
		Created: time.Now().UTC().Truncate(24 * time.Hour),
	}
}

// ClampQuantity forces q into the valid [MinQuantity, MaxQuantity] range.
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// Find returns the index of the line item for productID, or -1.
func (c Cart) Find(productID int64) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// ItemCount is the total quantity across all line items. This is the value
// broadcast to the badge signal.
func (c Cart) ItemCount() int {
	total := 0
	for _, it := range c.Items {
		total += it.Quantity
	}
	return total
}

// Clone returns a deep copy so callers can hand out snapshots without
// sharing the Items backing array.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]LineItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}

// SetQuantity replaces the quantity of an existing line item, clamping q
// into the valid range. It reports whether the cart actually changed and
// returns ErrItemNotFound when productID is not in the cart.
func (c *Cart) SetQuantity(productID int64, q int) (bool, error) {
	i := c.Find(productID)
	if i < 0 {
		return false, ErrItemNotFound
	}
	q = ClampQuantity(q)
	if c.Items[i].Quantity == q {
		return false, nil
	}
	c.Items[i].Quantity = q
	return true, nil
}

// AddItem increments the quantity of an existing line item (clamped at
// MaxQuantity) or appends a new item with quantity MinQuantity. It reports
// whether the cart changed; adding to an item already at MaxQuantity does
// not.
func (c *Cart) AddItem(productID int64) bool {
	i := c.Find(productID)
	if i < 0 {
		c.Items = append(c.Items, LineItem{ProductID: productID, Quantity: MinQuantity})
		return true
	}
	next := ClampQuantity(c.Items[i].Quantity + 1)
	if next == c.Items[i].Quantity {
		return false
	}
	c.Items[i].Quantity = next
	return true
}

// RemoveItem deletes the line item for productID. Removing a product that
// is not in the cart is a no-op and reports false.
func (c *Cart) RemoveItem(productID int64) bool {
	i := c.Find(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// Total computes sum(quantity * price) over items, using 0 for any product
// id missing from the index, rounded to 2 decimal places for display. Pure:
// it never mutates items or the index, and the result does not depend on
// item order.
func Total(items []LineItem, prices PriceIndex) float64 {
	var sum float64
	for _, it := range items {
		sum += float64(it.Quantity) * prices[it.ProductID]
	}
	return math.Round(sum*100) / 100
}
