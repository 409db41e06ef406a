package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"greencart/gateway"
	"greencart/middleware"
	"greencart/models"
	"greencart/store"
)

// OrderStore is the persistence surface of the checkout workflow and the
// order listings.
type OrderStore interface {
	ProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	CreateOrder(ctx context.Context, order *models.Order) (primitive.ObjectID, error)
	OrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.OrderView, error)
	AllOrders(ctx context.Context) ([]models.OrderView, error)
}

// OrderController prices and places orders, and serves the buyer and seller
// order views.
type OrderController struct {
	Store   OrderStore
	Gateway gateway.PaymentGateway
	Log     *zap.Logger
}

// NewOrderController creates a new OrderController.
func NewOrderController(s OrderStore, pg gateway.PaymentGateway, log *zap.Logger) *OrderController {
	return &OrderController{Store: s, Gateway: pg, Log: log}
}

type checkoutRequest struct {
	Items []struct {
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
	Address string `json:"address"`
}

// parseCheckout validates the shared checkout input. Any problem aborts the
// whole operation before an order is created.
func parseCheckout(r *http.Request) ([]models.OrderItem, primitive.ObjectID, error) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, primitive.NilObjectID, errors.New("Invalid data")
	}
	if req.Address == "" || len(req.Items) == 0 {
		return nil, primitive.NilObjectID, errors.New("Invalid data")
	}
	addressID, err := primitive.ObjectIDFromHex(req.Address)
	if err != nil {
		return nil, primitive.NilObjectID, errors.New("Invalid data")
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := primitive.ObjectIDFromHex(item.Product)
		if err != nil || item.Quantity <= 0 {
			return nil, primitive.NilObjectID, errors.New("Invalid data")
		}
		items = append(items, models.OrderItem{Product: productID, Quantity: item.Quantity})
	}
	return items, addressID, nil
}

// priceOrder resolves current offer prices, returning the order amount and
// the payment line items. A missing product aborts pricing entirely.
func (oc *OrderController) priceOrder(ctx context.Context, items []models.OrderItem) (float64, []gateway.LineItem, error) {
	sum := 0.0
	lines := make([]gateway.LineItem, 0, len(items))
	for _, item := range items {
		product, err := oc.Store.ProductByID(ctx, item.Product)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return 0, nil, fmt.Errorf("Product with ID %s not found.", item.Product.Hex())
			}
			return 0, nil, err
		}
		sum += product.OfferPrice * float64(item.Quantity)
		lines = append(lines, gateway.LineItem{
			Name:       product.Name,
			UnitAmount: lineUnitAmount(product.OfferPrice),
			Quantity:   int64(item.Quantity),
		})
	}
	return orderAmount(sum), lines, nil
}

// orderAmount adds the 2% checkout surcharge, floored to whole currency
// units: amount = sum + floor(sum * 0.02).
func orderAmount(sum float64) float64 {
	return sum + math.Floor(sum*0.02)
}

// lineUnitAmount converts an offer price to minor currency units with the 2%
// surcharge applied per unit, as charged by the payment provider.
func lineUnitAmount(offerPrice float64) int64 {
	return int64(math.Round(offerPrice * 1.02 * 100))
}

// PlaceCOD places a cash-on-delivery order.
func (oc *OrderController) PlaceCOD(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	items, addressID, err := parseCheckout(r)
	if err != nil {
		respondFail(w, err.Error())
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	amount, _, err := oc.priceOrder(ctx, items)
	if err != nil {
		respondFail(w, err.Error())
		return
	}

	order := &models.Order{
		UserID:      user.ID,
		Items:       items,
		Amount:      amount,
		Address:     addressID,
		PaymentType: models.PaymentTypeCOD,
		IsPaid:      false,
	}
	if _, err := oc.Store.CreateOrder(ctx, order); err != nil {
		oc.Log.Error("create cod order", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to place order")
		return
	}

	respondOK(w, "Order Placed Successfully")
}

// PlaceOnline places an order paid through a hosted checkout session and
// returns the session's redirect URL. The order is created first; if the
// provider session cannot be opened the order persists unpaid and the failure
// is surfaced to the caller. The stale-order janitor bounds how long such
// orphans survive.
func (oc *OrderController) PlaceOnline(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		respondFail(w, "Invalid data")
		return
	}

	items, addressID, err := parseCheckout(r)
	if err != nil {
		respondFail(w, err.Error())
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	amount, lines, err := oc.priceOrder(ctx, items)
	if err != nil {
		respondFail(w, err.Error())
		return
	}

	order := &models.Order{
		UserID:      user.ID,
		Items:       items,
		Amount:      amount,
		Address:     addressID,
		PaymentType: models.PaymentTypeOnline,
		IsPaid:      false,
	}
	orderID, err := oc.Store.CreateOrder(ctx, order)
	if err != nil {
		oc.Log.Error("create online order", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to place order")
		return
	}

	session, err := oc.Gateway.CreateCheckoutSession(ctx, gateway.SessionParams{
		LineItems:  lines,
		SuccessURL: origin + "/loader?next=/my-orders",
		CancelURL:  origin + "/cart",
		Metadata: map[string]string{
			gateway.MetadataOrderID: orderID.Hex(),
			gateway.MetadataUserID:  user.ID.Hex(),
		},
	})
	if err != nil {
		oc.Log.Error("create checkout session",
			zap.String("orderId", orderID.Hex()), zap.Error(err))
		respondFail(w, "Failed to start payment session. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"url":     session.URL,
	})
}

// UserOrders returns the buyer's order history, newest first.
func (oc *OrderController) UserOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	orders, err := oc.Store.OrdersByUser(ctx, user.ID)
	if err != nil {
		oc.Log.Error("list user orders", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  orders,
	})
}

// SellerOrders returns every visible order for the seller console.
func (oc *OrderController) SellerOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	orders, err := oc.Store.AllOrders(ctx)
	if err != nil {
		oc.Log.Error("list all orders", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  orders,
	})
}
