package httpx

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	// Saved reports whether the session marker was durably persisted. The
	// login itself succeeded either way.
	Saved bool `json:"saved"`
}

type SessionResponse struct {
	Authenticated bool `json:"authenticated"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	ID     int64              `json:"id"`
	UserID int64              `json:"userId"`
	Date   string             `json:"date"`
	Items  []CartItemResponse `json:"items"`
	Total  float64            `json:"total"`
	Count  int                `json:"count"`
}

type CartItemResponse struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	LineTotal float64 `json:"lineTotal"`
}

// MutationResponse reports a cart mutation: Persisted=false with a warning
// means the change applied in memory but the write-through failed, so the
// client may offer a retry.
type MutationResponse struct {
	Cart      CartResponse `json:"cart"`
	Changed   bool         `json:"changed"`
	Persisted bool         `json:"persisted"`
	Warning   string       `json:"warning,omitempty"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
