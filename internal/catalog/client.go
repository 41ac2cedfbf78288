// Package catalog is the read-only HTTP client for the public fake-store
// REST API: the product list, single products, the seed cart, and the demo
// login endpoint.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the public fake-store API.
const DefaultBaseURL = "https://fakestoreapi.com"

// ErrNotFound is returned when the API has no record for the requested id.
// The fake-store API answers unknown ids with 200 and an empty body, so the
// client normalizes both that and a 404 into this error.
var ErrNotFound = errors.New("catalog: not found")

// StatusError is the typed failure for any non-2xx response, carrying the
// HTTP status so callers can branch on it.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: %s returned status %d", e.URL, e.Status)
}

// Product mirrors the catalog wire record.
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}

type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// RemoteCart is the cart record the API serves, used only to seed the local
// store on first use.
type RemoteCart struct {
	ID       int64            `json:"id"`
	UserID   int64            `json:"userId"`
	Date     string           `json:"date"`
	Products []RemoteCartItem `json:"products"`
}

type RemoteCartItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Client issues requests against one catalog base URL. The zero value is
// not usable; construct with NewClient.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a catalog client for baseURL (DefaultBaseURL if empty).
// httpClient may be nil, in which case a client with a 10s timeout is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// ListProducts fetches the full product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.getJSON(ctx, "/products", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProduct fetches a single product by id. Unknown ids return ErrNotFound.
func (c *Client) GetProduct(ctx context.Context, id int64) (Product, error) {
	var out Product
	err := c.getJSON(ctx, fmt.Sprintf("/products/%d", id), &out)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	if out.ID == 0 {
		return Product{}, ErrNotFound
	}
	return out, nil
}

// FetchCart fetches the remote seed cart by id.
func (c *Client) FetchCart(ctx context.Context, id int64) (RemoteCart, error) {
	var out RemoteCart
	err := c.getJSON(ctx, fmt.Sprintf("/carts/%d", id), &out)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return RemoteCart{}, ErrNotFound
		}
		return RemoteCart{}, err
	}
	if out.ID == 0 {
		return RemoteCart{}, ErrNotFound
	}
	return out, nil
}

// Login exchanges demo credentials for an opaque session token via
// POST /auth/login.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", fmt.Errorf("catalog: marshal login: %w", err)
	}

	url := c.baseURL + "/auth/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("catalog: POST %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &StatusError{Status: res.StatusCode, URL: url}
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("catalog: decode login response: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("catalog: login response contained no token")
	}
	return out.Token, nil
}

// getJSON issues GET baseURL+path and decodes the body into out. Empty
// bodies are left as the zero value so callers can detect "no record".
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: GET %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &StatusError{Status: res.StatusCode, URL: url}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", url, err)
	}
	if len(bytes.TrimSpace(body)) == 0 || string(bytes.TrimSpace(body)) == "null" {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("catalog: decode %s: %w", url, err)
	}
	return nil
}
