package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"greencart/middleware"
)

// CartStore persists the per-user cart mirror.
type CartStore interface {
	ReplaceUserCart(ctx context.Context, id primitive.ObjectID, items map[string]int) error
}

// CartController mirrors the client-side cart onto the user record.
type CartController struct {
	Store CartStore
	Log   *zap.Logger
}

// NewCartController creates a new CartController.
func NewCartController(s CartStore, log *zap.Logger) *CartController {
	return &CartController{Store: s, Log: log}
}

// Update replaces the whole cart mapping. Keys are product ids, values are
// positive quantities; entries at zero or below are dropped, which is how a
// key "reaching zero" disappears.
func (cc *CartController) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		CartItems map[string]int `json:"cartItems"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, "Invalid request body")
		return
	}

	items := make(map[string]int, len(req.CartItems))
	for id, qty := range req.CartItems {
		if qty <= 0 {
			continue
		}
		if _, err := primitive.ObjectIDFromHex(id); err != nil {
			respondFail(w, "Invalid product ID in cart")
			return
		}
		items[id] = qty
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	if err := cc.Store.ReplaceUserCart(ctx, user.ID, items); err != nil {
		cc.Log.Error("update cart", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Error updating cart")
		return
	}
	respondOK(w, "Cart Updated")
}
