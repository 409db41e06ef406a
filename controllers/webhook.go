package controllers

import (
	"context"
	"io"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"greencart/gateway"
)

// ReconciliationStore is the persistence surface of payment reconciliation.
// All three mutations are idempotent, so redelivered provider events are
// harmless.
type ReconciliationStore interface {
	MarkOrderPaid(ctx context.Context, id primitive.ObjectID) error
	ClearUserCart(ctx context.Context, id primitive.ObjectID) error
	DeleteOrder(ctx context.Context, id primitive.ObjectID) error
}

// WebhookController reconciles provider payment events with the order ledger.
type WebhookController struct {
	Store   ReconciliationStore
	Gateway gateway.PaymentGateway
	Log     *zap.Logger
}

// NewWebhookController creates a new WebhookController.
func NewWebhookController(s ReconciliationStore, pg gateway.PaymentGateway, log *zap.Logger) *WebhookController {
	return &WebhookController{Store: s, Gateway: pg, Log: log}
}

// HandleStripe receives signed provider events. Signature failures and
// malformed events are rejected with 400 before any state change; unexpected
// persistence errors return 500 so the provider redelivers; everything else,
// including event kinds this service does not handle, is acknowledged so the
// provider stops retrying.
func (wc *WebhookController) HandleStripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Unable to read request body")
		return
	}

	event, err := wc.Gateway.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		wc.Log.Warn("webhook rejected", zap.Error(err))
		respondError(w, http.StatusBadRequest, "Webhook Error: "+err.Error())
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	switch event.Type {
	case gateway.EventCheckoutCompleted:
		if !wc.handleCheckoutCompleted(ctx, w, event) {
			return
		}
	case gateway.EventPaymentFailed:
		if !wc.handlePaymentFailed(ctx, w, event) {
			return
		}
	default:
		wc.Log.Info("unhandled webhook event", zap.String("type", event.Type))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"received": true})
}

// handleCheckoutCompleted marks the order paid and clears the buyer's cart.
// The two writes are deliberately separate: a failure in either is reported
// on its own without rolling back the other, and redelivery retries both.
func (wc *WebhookController) handleCheckoutCompleted(ctx context.Context, w http.ResponseWriter, event *gateway.Event) bool {
	orderID, userID, ok := sessionMetadata(event.Session)
	if !ok || userID.IsZero() {
		wc.Log.Error("checkout completed event missing metadata")
		respondError(w, http.StatusBadRequest, "Missing metadata")
		return false
	}

	if err := wc.Store.MarkOrderPaid(ctx, orderID); err != nil {
		wc.Log.Error("mark order paid",
			zap.String("orderId", orderID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Error updating order")
		return false
	}
	if err := wc.Store.ClearUserCart(ctx, userID); err != nil {
		wc.Log.Error("clear cart",
			zap.String("userId", userID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Error clearing cart")
		return false
	}

	wc.Log.Info("order paid",
		zap.String("orderId", orderID.Hex()), zap.String("userId", userID.Hex()))
	return true
}

// handlePaymentFailed resolves the originating session and deletes the order
// it was opened for. Deleting an already deleted order is a no-op.
func (wc *WebhookController) handlePaymentFailed(ctx context.Context, w http.ResponseWriter, event *gateway.Event) bool {
	session, err := wc.Gateway.SessionByPaymentIntent(ctx, event.PaymentIntentID)
	if err != nil {
		wc.Log.Error("resolve session for failed payment",
			zap.String("paymentIntent", event.PaymentIntentID), zap.Error(err))
		respondError(w, http.StatusBadRequest, "Missing metadata for failed payment")
		return false
	}
	orderID, _, ok := sessionMetadata(session)
	if !ok {
		respondError(w, http.StatusBadRequest, "Missing metadata for failed payment")
		return false
	}

	if err := wc.Store.DeleteOrder(ctx, orderID); err != nil {
		wc.Log.Error("delete order after failed payment",
			zap.String("orderId", orderID.Hex()), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Error deleting order")
		return false
	}

	wc.Log.Info("order deleted after failed payment", zap.String("orderId", orderID.Hex()))
	return true
}

// sessionMetadata extracts the order and buyer linkage a checkout session was
// created with. A failed-payment caller only needs the order id, but both are
// parsed the same way.
func sessionMetadata(session *gateway.Session) (orderID, userID primitive.ObjectID, ok bool) {
	if session == nil {
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	orderHex := session.Metadata[gateway.MetadataOrderID]
	if orderHex == "" {
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	orderID, err := primitive.ObjectIDFromHex(orderHex)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	if userHex := session.Metadata[gateway.MetadataUserID]; userHex != "" {
		userID, err = primitive.ObjectIDFromHex(userHex)
		if err != nil {
			return primitive.NilObjectID, primitive.NilObjectID, false
		}
	}
	return orderID, userID, true
}
