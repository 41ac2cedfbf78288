package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/storefront/internal/badge"
	cartapp "github.com/jcmexdev/storefront/internal/cart/app"
	"github.com/jcmexdev/storefront/internal/cart/domain"
	"github.com/jcmexdev/storefront/internal/catalog"
	"github.com/jcmexdev/storefront/internal/session"
)

// CatalogAPI is the slice of the catalog client the handlers use. Both the
// plain and the cached client satisfy it.
type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id int64) (catalog.Product, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// Handler serves the storefront HTTP API in front of the cart core.
type Handler struct {
	catalog  CatalogAPI
	cart     *cartapp.Service
	sessions *session.Store
	signal   *badge.Signal
}

func NewHandler(c CatalogAPI, cart *cartapp.Service, sessions *session.Store, signal *badge.Signal) *Handler {
	return &Handler{
		catalog:  c,
		cart:     cart,
		sessions: sessions,
		signal:   signal,
	}
}

// Login exchanges credentials for a token upstream and persists the session
// marker. A failed persist is reported, not fatal: the token is still
// returned and the session lives in memory.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	token, err := h.catalog.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		var se *catalog.StatusError
		if errors.As(err, &se) && se.Status == http.StatusUnauthorized {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "")
			return
		}
		writeError(w, http.StatusBadGateway, "catalog_unavailable", err.Error())
		return
	}

	saved := true
	if err := h.sessions.SaveToken(r.Context(), token); err != nil {
		slog.WarnContext(r.Context(), "session token not persisted", "error", err)
		saved = false
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Saved: saved})
}

// Session reports whether a login token is persisted. Clients read this at
// startup to decide between the login screen and the storefront.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	_, ok, err := h.sessions.Token(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "session_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Authenticated: ok})
}

// Logout removes the persisted session marker. Logging out when no session
// exists is a no-op.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "session_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Authenticated: false})
}

// ListProducts proxies the product catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct proxies a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product_not_found", "")
			return
		}
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// GetCart returns the reconciled view: the current cart enriched with live
// prices. Price fetch failures degrade to zero-priced lines.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.cart.RefreshPrices(r.Context())
	cart, prices := h.cart.Snapshot()
	writeJSON(w, http.StatusOK, cartResponse(cart, prices))
}

// RefreshCart re-reads the persisted record (pull-to-refresh).
func (h *Handler) RefreshCart(w http.ResponseWriter, r *http.Request) {
	h.cart.Refresh(r.Context())
	h.cart.RefreshPrices(r.Context())
	cart, prices := h.cart.Snapshot()
	writeJSON(w, http.StatusOK, cartResponse(cart, prices))
}

// AddItem handles the add-to-cart action from a product screen.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	res, err := h.cart.AddItem(r.Context(), id)
	if err != nil {
		writeCartError(w, err)
		return
	}
	h.writeMutation(w, res)
}

// SetQuantity replaces a line item's quantity (clamped into [1,10]).
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var req SetQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	res, err := h.cart.SetQuantity(r.Context(), id, req.Quantity)
	if err != nil {
		writeCartError(w, err)
		return
	}
	h.writeMutation(w, res)
}

// RemoveItem deletes a line item; removing an absent product id is a no-op.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	res, err := h.cart.RemoveItem(r.Context(), id)
	if err != nil {
		writeCartError(w, err)
		return
	}
	h.writeMutation(w, res)
}

// CartCount serves the badge value for screens outside the cart.
func (h *Handler) CartCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CountResponse{Count: h.signal.Read()})
}

func (h *Handler) writeMutation(w http.ResponseWriter, res cartapp.MutationResult) {
	_, prices := h.cart.Snapshot()
	out := MutationResponse{
		Cart:      cartResponse(res.Cart, prices),
		Changed:   res.Changed,
		Persisted: res.Persisted,
	}
	if res.PersistErr != nil {
		out.Warning = "change applied but not persisted: " + res.PersistErr.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

func cartResponse(cart domain.Cart, prices domain.PriceIndex) CartResponse {
	out := CartResponse{
		ID:     cart.ID,
		UserID: cart.OwnerID,
		Date:   cart.Created.Format("2006-01-02"),
		Items:  make([]CartItemResponse, 0, len(cart.Items)),
		Total:  domain.Total(cart.Items, prices),
		Count:  cart.ItemCount(),
	}
	for _, it := range cart.Items {
		price := prices[it.ProductID]
		out.Items = append(out.Items, CartItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     price,
			LineTotal: domain.Total([]domain.LineItem{it}, prices),
		})
	}
	return out
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "productID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_product_id", raw)
		return 0, false
	}
	return id, true
}

func writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "item_not_in_cart", "")
	case errors.Is(err, cartapp.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, "cart_not_ready", "")
	default:
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
	}
}

func writeUpstreamError(w http.ResponseWriter, err error) {
	var se *catalog.StatusError
	if errors.As(err, &se) {
		writeError(w, http.StatusBadGateway, "catalog_error",
			"upstream returned status "+strconv.Itoa(se.Status))
		return
	}
	writeError(w, http.StatusBadGateway, "catalog_unavailable", err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}
