// Package app implements the cart reconciliation service: the one place
// that merges the persisted cart with live remote prices, applies
// mutations, and keeps the badge signal in step.
//
// Persistence is optimistic. A mutation is applied to the in-memory cart
// first and then written through; if the write fails the in-memory cart
// stays authoritative and the MutationResult reports Persisted=false with
// the error, so callers can offer a retry. Overlapping saves are
// last-write-wins — an earlier save landing after a later one can revert
// the newer record on disk until the next successful save. That tradeoff
// is kept, not hidden: see TestService_OverlappingSavesLastWriteWins.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/storefront/internal/badge"
	"github.com/jcmexdev/storefront/internal/cart/domain"
)

// ErrNotReady is returned by mutations invoked before Initialize has run.
var ErrNotReady = errors.New("cart: service not initialized")

// State is the lifecycle phase of the service.
type State int

const (
	// StateLoading is the phase before the first Initialize completes.
	StateLoading State = iota
	// StateReady means the in-memory cart is usable.
	StateReady
	// StateMutating means at least one mutation's save is still in flight.
	StateMutating
)

// MutationResult distinguishes "applied in memory" from "durably
// persisted". Changed=false means the operation was a no-op and no write
// was issued.
type MutationResult struct {
	Cart       domain.Cart
	Changed    bool
	Persisted  bool
	PersistErr error
}

// Service reconciles one in-memory cart for the lifetime of a cart screen
// visit. Safe for concurrent use.
type Service struct {
	store  Store
	prices PriceSource
	signal *badge.Signal
	log    *slog.Logger

	seeder     CartSeeder
	seedCartID int64

	maxConcurrent int

	// visitCtx is cancelled by Close; in-flight price fetches observe it
	// and their late results are discarded.
	visitCtx    context.Context
	cancelVisit context.CancelFunc

	mu           sync.Mutex
	ready        bool
	closed       bool
	pendingSaves int
	cart         domain.Cart
	index        domain.PriceIndex
}

// Option configures a Service.
type Option func(*Service)

// WithRemoteSeed makes Initialize fetch cart cartID from the remote catalog
// when the local store is empty, matching the first-use behavior of the
// storefront.
func WithRemoteSeed(seeder CartSeeder, cartID int64) Option {
	return func(s *Service) {
		s.seeder = seeder
		s.seedCartID = cartID
	}
}

// WithMaxConcurrent caps the number of parallel price fetches (default 10).
func WithMaxConcurrent(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrent = n
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// NewService builds a reconciliation service for one screen visit. signal
// may be shared across services; store and prices must not be nil.
func NewService(store Store, prices PriceSource, signal *badge.Signal, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		store:         store,
		prices:        prices,
		signal:        signal,
		log:           slog.Default(),
		maxConcurrent: 10,
		visitCtx:      ctx,
		cancelVisit:   cancel,
		index:         domain.PriceIndex{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("visit_id", uuid.NewString())
	return s
}

// Close marks the screen visit as over. Late-arriving price fetches and
// refreshes no longer update state. Idempotent.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancelVisit()
}

// State reports the current lifecycle phase.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.ready:
		return StateLoading
	case s.pendingSaves > 0:
		return StateMutating
	default:
		return StateReady
	}
}

// Initialize loads the persisted cart. An absent or unreadable record is
// replaced by the remote seed cart when configured, otherwise by a fresh
// empty cart; neither case is an error to the caller. The badge signal is
// updated before returning.
func (s *Service) Initialize(ctx context.Context) domain.Cart {
	cart, ok, err := s.store.Load(ctx)
	if err != nil {
		// Degrade to an empty cart rather than blocking the screen.
		s.log.ErrorContext(ctx, "cart load failed, starting empty", "error", err)
		ok = false
	}
	if !ok {
		cart = s.firstUseCart(ctx)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return cart
	}
	s.cart = cart
	s.ready = true
	snapshot := s.cart.Clone()
	s.mu.Unlock()

	s.signal.Write(snapshot.ItemCount())
	return snapshot
}

// Refresh re-runs the load step (pull-to-refresh). Safe to call while a
// mutation's save is still pending: the freshly loaded record wins in
// memory, which matches the last-write-wins policy on disk.
func (s *Service) Refresh(ctx context.Context) domain.Cart {
	return s.Initialize(ctx)
}

// firstUseCart builds the cart used when nothing is persisted yet: the
// remote seed cart when configured and reachable, an empty cart otherwise.
// The substitute is written through best-effort.
func (s *Service) firstUseCart(ctx context.Context) domain.Cart {
	cart := domain.NewCart(domain.FixedOwnerID)

	if s.seeder != nil {
		remote, err := s.seeder.FetchCart(ctx, s.seedCartID)
		if err != nil {
			s.log.WarnContext(ctx, "remote cart seed failed, starting empty", "cart_id", s.seedCartID, "error", err)
		} else {
			cart = domain.Cart{ID: remote.ID, OwnerID: remote.UserID, Created: cart.Created}
			for _, it := range remote.Products {
				if cart.Find(it.ProductID) >= 0 {
					continue
				}
				cart.Items = append(cart.Items, domain.LineItem{
					ProductID: it.ProductID,
					Quantity:  domain.ClampQuantity(it.Quantity),
				})
			}
		}
	}

	if err := s.store.Save(ctx, cart); err != nil {
		s.log.WarnContext(ctx, "initial cart save failed", "error", err)
	}
	return cart
}

// SetQuantity replaces the quantity of an existing line item, clamping it
// into the valid range. Returns domain.ErrItemNotFound when the product is
// not in the cart and ErrNotReady before Initialize.
func (s *Service) SetQuantity(ctx context.Context, productID int64, quantity int) (MutationResult, error) {
	return s.mutate(ctx, func(c *domain.Cart) (bool, error) {
		return c.SetQuantity(productID, quantity)
	})
}

// AddItem increments the quantity of the product's line item, or appends a
// new line item with quantity 1. The add-to-cart action on a product
// screen lands here.
func (s *Service) AddItem(ctx context.Context, productID int64) (MutationResult, error) {
	return s.mutate(ctx, func(c *domain.Cart) (bool, error) {
		return c.AddItem(productID), nil
	})
}

// RemoveItem deletes the product's line item. Removing an absent product is
// a no-op: the cart is unchanged and no write is issued.
func (s *Service) RemoveItem(ctx context.Context, productID int64) (MutationResult, error) {
	return s.mutate(ctx, func(c *domain.Cart) (bool, error) {
		return c.RemoveItem(productID), nil
	})
}

// mutate applies op to the current in-memory cart (never a stale snapshot),
// then persists the result outside the lock. Concurrent mutations each see
// the latest in-memory cart; their saves may still interleave on disk,
// which is the accepted last-write-wins weakness.
func (s *Service) mutate(ctx context.Context, op func(*domain.Cart) (bool, error)) (MutationResult, error) {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return MutationResult{}, ErrNotReady
	}
	changed, err := op(&s.cart)
	if err != nil {
		s.mu.Unlock()
		return MutationResult{}, err
	}
	snapshot := s.cart.Clone()
	if changed {
		s.pendingSaves++
	}
	s.mu.Unlock()

	if !changed {
		return MutationResult{Cart: snapshot, Changed: false}, nil
	}

	saveErr := s.store.Save(ctx, snapshot)

	s.mu.Lock()
	s.pendingSaves--
	s.mu.Unlock()

	s.signal.Write(snapshot.ItemCount())

	if saveErr != nil {
		s.log.WarnContext(ctx, "cart save failed, keeping in-memory state", "error", saveErr)
		return MutationResult{Cart: snapshot, Changed: true, Persisted: false, PersistErr: saveErr}, nil
	}
	return MutationResult{Cart: snapshot, Changed: true, Persisted: true}, nil
}

// RefreshPrices fetches a live price for every distinct product id in the
// cart, in parallel. A failed fetch for one product never blocks the
// others: the failure is logged, the id is skipped, and Total falls back to
// 0 for it. Only ids that succeeded are merged into the index. Results
// arriving after Close are discarded.
func (s *Service) RefreshPrices(ctx context.Context) domain.PriceIndex {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.cart.Items))
	seen := make(map[int64]struct{}, len(s.cart.Items))
	for _, it := range s.cart.Items {
		if _, dup := seen[it.ProductID]; dup {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	s.mu.Unlock()

	fetched := make(map[int64]float64, len(ids))
	var fetchedMu sync.Mutex

	// Fetches stop on whichever ends first: the caller's context or the
	// screen visit (Close).
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.visitCtx, cancel)
	defer stop()

	g, gctx := errgroup.WithContext(fctx)
	g.SetLimit(s.maxConcurrent)
	for _, id := range ids {
		g.Go(func() error {
			p, err := s.prices.GetProduct(gctx, id)
			if err != nil {
				// Swallowed per item: the screen still renders with the
				// prices that did resolve.
				s.log.WarnContext(ctx, "price fetch failed", "product_id", id, "error", err)
				return nil
			}
			fetchedMu.Lock()
			fetched[p.ID] = p.Price
			fetchedMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// The screen is gone; do not touch shared state.
		return clonePrices(s.index)
	}
	for id, price := range fetched {
		s.index[id] = price
	}
	return clonePrices(s.index)
}

// Total computes the display total for the current cart and price index.
func (s *Service) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Total(s.cart.Items, s.index)
}

// Snapshot returns copies of the current cart and price index.
func (s *Service) Snapshot() (domain.Cart, domain.PriceIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone(), clonePrices(s.index)
}

func clonePrices(in domain.PriceIndex) domain.PriceIndex {
	out := make(domain.PriceIndex, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
