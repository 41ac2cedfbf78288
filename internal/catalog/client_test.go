package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client())
}

func TestClient_ListProducts(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" {
			t.Errorf("path = %s, want /products", r.URL.Path)
		}
		w.Write([]byte(`[
			{"id":1,"title":"Backpack","price":109.95,"category":"men's clothing","rating":{"rate":3.9,"count":120}},
			{"id":2,"title":"Shirt","price":22.3}
		]`))
	})

	got, err := client.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Title != "Backpack" || got[0].Price != 109.95 || got[0].Rating.Count != 120 {
		t.Fatalf("unexpected first product: %+v", got[0])
	}
}

func TestClient_GetProduct(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/1":
			w.Write([]byte(`{"id":1,"title":"Backpack","price":9.99}`))
		case "/products/404":
			w.WriteHeader(http.StatusNotFound)
		default:
			// Unknown ids come back as an empty body with 200, which is
			// what the real API does.
			w.Write([]byte(""))
		}
	})
	ctx := context.Background()

	p, err := client.GetProduct(ctx, 1)
	if err != nil {
		t.Fatalf("GetProduct(1): %v", err)
	}
	if p.Price != 9.99 {
		t.Fatalf("price = %v, want 9.99", p.Price)
	}

	if _, err := client.GetProduct(ctx, 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProduct(404) err = %v, want ErrNotFound", err)
	}
	if _, err := client.GetProduct(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProduct(9999) err = %v, want ErrNotFound (empty body)", err)
	}
}

func TestClient_StatusError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListProducts(context.Background())
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Status != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", se.Status)
	}
}

func TestClient_FetchCart(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/carts/1" {
			t.Errorf("path = %s, want /carts/1", r.URL.Path)
		}
		w.Write([]byte(`{"id":1,"userId":1,"date":"2020-03-02","products":[{"productId":1,"quantity":4}]}`))
	})

	cart, err := client.FetchCart(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchCart: %v", err)
	}
	if cart.ID != 1 || len(cart.Products) != 1 || cart.Products[0].Quantity != 4 {
		t.Fatalf("unexpected cart: %+v", cart)
	}
}

func TestClient_Login(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("got %s %s, want POST /auth/login", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"token":"abc.def.ghi"}`))
	})

	token, err := client.Login(context.Background(), "johnd", "m38rmF$")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "abc.def.ghi" {
		t.Fatalf("token = %q", token)
	}
}

func TestClient_LoginRejected(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Login(context.Background(), "johnd", "wrong")
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 StatusError", err)
	}
}
