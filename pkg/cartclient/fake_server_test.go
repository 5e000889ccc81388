package cartclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const testToken = "token-123"

// fakeService is an in-memory cart service speaking the same envelopes as
// the real API.
type fakeService struct {
	t *testing.T

	mu       sync.Mutex
	lines    []Line
	wishlist []WishlistItem
	orders   []Order
	failures map[string]int
	calls    map[string]int
	headers  map[string]http.Header
}

func newFakeService(t *testing.T) (*fakeService, *Session) {
	t.Helper()
	f := &fakeService{
		t:        t,
		failures: map[string]int{},
		calls:    map[string]int{},
		headers:  map[string]http.Header{},
	}
	srv := httptest.NewServer(f.routes())
	t.Cleanup(srv.Close)
	return f, NewSession(srv.URL, testToken, WithHTTPClient(srv.Client()))
}

func (f *fakeService) failNext(route string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = status
}

func (f *fakeService) callCount(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

func (f *fakeService) routes() http.Handler {
	mux := http.NewServeMux()
	handle := func(route string, fn func(w http.ResponseWriter, r *http.Request)) {
		mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.calls[route]++
			f.headers[route] = r.Header.Clone()
			if r.Header.Get("Authorization") != "Bearer "+testToken {
				writeFakeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}
			if status, ok := f.failures[route]; ok {
				delete(f.failures, route)
				writeFakeError(w, status, codeName(status), "injected failure")
				return
			}
			fn(w, r)
		})
	}

	handle("GET /api/cart", func(w http.ResponseWriter, r *http.Request) {
		f.writeCart(w)
	})
	handle("POST /api/cart", func(w http.ResponseWriter, r *http.Request) {
		var body quantityBody
		f.decode(r, &body)
		if i := f.lineIndex(body.ProductID); i >= 0 {
			f.lines[i].Quantity += body.Quantity
		} else {
			f.lines = append(f.lines, Line{
				ProductID: body.ProductID,
				Quantity:  body.Quantity,
				Name:      "product",
				Price:     decimal.RequireFromString("2.50"),
			})
		}
		f.writeCart(w)
	})
	handle("POST /api/cart/update", func(w http.ResponseWriter, r *http.Request) {
		var body quantityBody
		f.decode(r, &body)
		i := f.lineIndex(body.ProductID)
		if i < 0 {
			writeFakeError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found")
			return
		}
		f.lines[i].Quantity = body.Quantity
		f.writeCart(w)
	})
	handle("DELETE /api/cart/remove", func(w http.ResponseWriter, r *http.Request) {
		var body productRef
		f.decode(r, &body)
		i := f.lineIndex(body.ProductID)
		if i < 0 {
			writeFakeError(w, http.StatusNotFound, "NOT_FOUND", "cart item not found")
			return
		}
		f.lines = append(f.lines[:i], f.lines[i+1:]...)
		f.writeCart(w)
	})
	handle("DELETE /api/cart", func(w http.ResponseWriter, r *http.Request) {
		f.lines = nil
		f.writeCart(w)
	})
	handle("GET /api/wishlist", func(w http.ResponseWriter, r *http.Request) {
		writeFakeData(w, http.StatusOK, f.wishlist)
	})
	handle("POST /api/wishlist", func(w http.ResponseWriter, r *http.Request) {
		var body productRef
		f.decode(r, &body)
		found := false
		for _, item := range f.wishlist {
			if item.ProductID == body.ProductID {
				found = true
			}
		}
		if !found {
			f.wishlist = append(f.wishlist, WishlistItem{ProductID: body.ProductID, Name: "saved"})
		}
		writeFakeData(w, http.StatusOK, f.wishlist)
	})
	handle("DELETE /api/wishlist/remove", func(w http.ResponseWriter, r *http.Request) {
		var body productRef
		f.decode(r, &body)
		for i, item := range f.wishlist {
			if item.ProductID == body.ProductID {
				f.wishlist = append(f.wishlist[:i], f.wishlist[i+1:]...)
				writeFakeData(w, http.StatusOK, f.wishlist)
				return
			}
		}
		writeFakeError(w, http.StatusNotFound, "NOT_FOUND", "wishlist item not found")
	})
	handle("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
		var body placeOrderBody
		f.decode(r, &body)
		if len(body.Items) == 0 {
			writeFakeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "order must contain at least one item")
			return
		}
		total := decimal.Zero
		for _, item := range body.Items {
			total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		order := Order{
			ID:             uuid.New(),
			Items:          body.Items,
			Address:        body.Address,
			Total:          total,
			Status:         "pending",
			TrackingNumber: "TRK0123456789",
		}
		f.orders = append([]Order{order}, f.orders...)
		f.lines = nil
		writeFakeData(w, http.StatusCreated, order)
	})
	handle("GET /api/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "" {
			w.Header().Set(nextCursorHeader, "next-page")
		}
		writeFakeData(w, http.StatusOK, f.orders)
	})
	handle("GET /api/orders/{orderId}", func(w http.ResponseWriter, r *http.Request) {
		for _, order := range f.orders {
			if order.ID.String() == r.PathValue("orderId") {
				writeFakeData(w, http.StatusOK, order)
				return
			}
		}
		writeFakeError(w, http.StatusNotFound, "NOT_FOUND", "order not found")
	})
	return mux
}

func (f *fakeService) lineIndex(productID int) int {
	for i, line := range f.lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

func (f *fakeService) decode(r *http.Request, dest any) {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		f.t.Errorf("decode request body: %v", err)
	}
}

func (f *fakeService) writeCart(w http.ResponseWriter) {
	cart := Cart{Items: append([]Line{}, f.lines...), Subtotal: decimal.Zero}
	for _, line := range f.lines {
		cart.ItemCount += line.Quantity
		cart.Subtotal = cart.Subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	writeFakeData(w, http.StatusOK, cart)
}

func writeFakeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func writeFakeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg, "code": code})
}

func codeName(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusBadRequest:
		return "VALIDATION_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
