package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"greencart/middleware"
	"greencart/models"
)

// AddressStore persists shipping addresses.
type AddressStore interface {
	CreateAddress(ctx context.Context, address *models.Address) (primitive.ObjectID, error)
	AddressesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error)
}

// AddressController manages a buyer's shipping addresses.
type AddressController struct {
	Store AddressStore
	Log   *zap.Logger
}

// NewAddressController creates a new AddressController.
func NewAddressController(s AddressStore, log *zap.Logger) *AddressController {
	return &AddressController{Store: s, Log: log}
}

// Add saves a new shipping address for the authenticated buyer.
func (ac *AddressController) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		Address models.Address `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, "Invalid request body")
		return
	}
	address := req.Address
	if address.Street == "" || address.City == "" || address.Country == "" {
		respondFail(w, "Missing address details")
		return
	}
	address.ID = primitive.NilObjectID
	address.UserID = user.ID

	ctx, cancel := requestContext(r)
	defer cancel()

	if _, err := ac.Store.CreateAddress(ctx, &address); err != nil {
		ac.Log.Error("create address", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Error saving address")
		return
	}
	respondOK(w, "Address added successfully")
}

// List returns the buyer's saved addresses.
func (ac *AddressController) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	addresses, err := ac.Store.AddressesByUser(ctx, user.ID)
	if err != nil {
		ac.Log.Error("list addresses", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Error fetching addresses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"addresses": addresses,
	})
}
