package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hyperjump/etalase/internal/cart"
	"go.uber.org/zap"
)

const cartCookie = "etalase_cart"

// cartStore holds one cart per browser, keyed by a cookie.
type cartStore struct {
	mu    sync.Mutex
	carts map[string]*cart.Cart
}

func newCartStore() *cartStore {
	return &cartStore{carts: make(map[string]*cart.Cart)}
}

func (cs *cartStore) get(id string) *cart.Cart {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	c, ok := cs.carts[id]
	if !ok {
		c = cart.New()
		cs.carts[id] = c
	}
	return c
}

type cartResponse struct {
	CartID string `json:"cart_id"`
	cart.Summary
}

// cartFor returns the caller's cart, issuing a cart cookie on first use.
func (s *Server) cartFor(w http.ResponseWriter, r *http.Request) (string, *cart.Cart) {
	id := ""
	if ck, err := r.Cookie(cartCookie); err == nil {
		if _, perr := uuid.Parse(ck.Value); perr == nil {
			id = ck.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     cartCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return id, s.carts.get(id)
}

func (s *Server) respondCart(w http.ResponseWriter, id string, c *cart.Cart) {
	sum := c.Summarize(s.catalog.Current())
	if sum.Lines == nil {
		sum.Lines = []cart.Line{}
	}
	s.respondJSON(w, http.StatusOK, cartResponse{CartID: id, Summary: sum})
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	id, c := s.cartFor(w, r)
	s.respondCart(w, id, c)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	id, c := s.cartFor(w, r)
	c.Clear()
	s.respondCart(w, id, c)
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")
	if _, ok := s.catalog.Current().Get(itemID); !ok {
		s.respondError(w, http.StatusNotFound, "item not found")
		return
	}
	id, c := s.cartFor(w, r)
	qty := c.Add(itemID)
	s.logger.Debug("cart add", zap.String("cart", id), zap.String("item", itemID), zap.Int("quantity", qty))
	s.respondCart(w, id, c)
}

type cartUpdateRequest struct {
	Delta int `json:"delta"`
}

func (s *Server) handleUpdateCart(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")
	var req cartUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, c := s.cartFor(w, r)
	if _, ok := c.Update(itemID, req.Delta); !ok {
		s.respondError(w, http.StatusNotFound, "item not in cart")
		return
	}
	s.respondCart(w, id, c)
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, c := s.cartFor(w, r)
	c.Remove(chi.URLParam(r, "id"))
	s.respondCart(w, id, c)
}
