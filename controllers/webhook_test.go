package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"greencart/gateway"
)

type fakeReconStore struct {
	paid      map[primitive.ObjectID]bool
	carts     map[primitive.ObjectID]map[string]int
	orders    map[primitive.ObjectID]bool
	mutations int
	markErr   error
	clearErr  error
	deleteErr error
}

func newFakeReconStore() *fakeReconStore {
	return &fakeReconStore{
		paid:   map[primitive.ObjectID]bool{},
		carts:  map[primitive.ObjectID]map[string]int{},
		orders: map[primitive.ObjectID]bool{},
	}
}

func (f *fakeReconStore) MarkOrderPaid(ctx context.Context, id primitive.ObjectID) error {
	f.mutations++
	if f.markErr != nil {
		return f.markErr
	}
	// Marking a missing or already paid order is a no-op, as in the store.
	if f.orders[id] {
		f.paid[id] = true
	}
	return nil
}

func (f *fakeReconStore) ClearUserCart(ctx context.Context, id primitive.ObjectID) error {
	f.mutations++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.carts[id] = map[string]int{}
	return nil
}

func (f *fakeReconStore) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	f.mutations++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.orders, id)
	return nil
}

func postWebhook(wc *WebhookController) *httptest.ResponseRecorder {
	r := httptest.NewRequest("POST", "/stripe", bytes.NewBufferString(`{}`))
	r.Header.Set("Stripe-Signature", "t=1,v1=sig")
	w := httptest.NewRecorder()
	wc.HandleStripe(w, r)
	return w
}

func completedEvent(orderID, userID primitive.ObjectID) *gateway.Event {
	return &gateway.Event{
		Type: gateway.EventCheckoutCompleted,
		Session: &gateway.Session{
			ID: "cs_1",
			Metadata: map[string]string{
				gateway.MetadataOrderID: orderID.Hex(),
				gateway.MetadataUserID:  userID.Hex(),
			},
		},
	}
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	db := newFakeReconStore()
	pg := &fakeGateway{verifyErr: errors.New("signature mismatch")}
	wc := NewWebhookController(db, pg, zap.NewNop())

	w := postWebhook(wc)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, db.mutations, "no state change may happen before verification")
}

func TestWebhookCheckoutCompleted(t *testing.T) {
	orderID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	db := newFakeReconStore()
	db.orders[orderID] = true
	db.carts[userID] = map[string]int{primitive.NewObjectID().Hex(): 2}

	pg := &fakeGateway{event: completedEvent(orderID, userID)}
	wc := NewWebhookController(db, pg, zap.NewNop())

	w := postWebhook(wc)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, true, resp["received"])
	assert.True(t, db.paid[orderID])
	assert.Empty(t, db.carts[userID])
}

func TestWebhookCheckoutCompletedIsIdempotent(t *testing.T) {
	orderID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	db := newFakeReconStore()
	db.orders[orderID] = true
	db.carts[userID] = map[string]int{primitive.NewObjectID().Hex(): 1}

	pg := &fakeGateway{event: completedEvent(orderID, userID)}
	wc := NewWebhookController(db, pg, zap.NewNop())

	first := postWebhook(wc)
	second := postWebhook(wc)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.True(t, db.paid[orderID])
	assert.Empty(t, db.carts[userID])
}

func TestWebhookCheckoutCompletedMissingMetadata(t *testing.T) {
	db := newFakeReconStore()
	pg := &fakeGateway{event: &gateway.Event{
		Type:    gateway.EventCheckoutCompleted,
		Session: &gateway.Session{ID: "cs_1", Metadata: map[string]string{}},
	}}
	wc := NewWebhookController(db, pg, zap.NewNop())

	w := postWebhook(wc)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, db.mutations)
}

func TestWebhookCheckoutCompletedPersistenceError(t *testing.T) {
	orderID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	db := newFakeReconStore()
	db.markErr = errors.New("write failed")

	pg := &fakeGateway{event: completedEvent(orderID, userID)}
	wc := NewWebhookController(db, pg, zap.NewNop())

	w := postWebhook(wc)

	// 5xx so the provider redelivers.
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhookPaymentFailedDeletesOrder(t *testing.T) {
	orderID := primitive.NewObjectID()
	db := newFakeReconStore()
	db.orders[orderID] = true

	pg := &fakeGateway{
		event: &gateway.Event{Type: gateway.EventPaymentFailed, PaymentIntentID: "pi_1"},
		byIntent: map[string]*gateway.Session{
			"pi_1": {ID: "cs_1", Metadata: map[string]string{gateway.MetadataOrderID: orderID.Hex()}},
		},
	}
	wc := NewWebhookController(db, pg, zap.NewNop())

	w := postWebhook(wc)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, db.orders, orderID)

	// Replaying the same event once the order is gone must not turn into a
	// server error.
	replay := postWebhook(wc)
	assert.Equal(t, http.StatusOK, replay.Code)
}

func TestWebhookPaymentFailedUnknownIntent(t *testing.T) {
	db := newFakeReconStore()
	pg := &fakeGateway{
		event:    &gateway.Event{Type: gateway.EventPaymentFailed, PaymentIntentID: "pi_missing"},
		byIntent: map[string]*gateway.Session{},
	}
	wc := NewWebhookController(db, pg, zap.NewNop())

	w := postWebhook(wc)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, db.mutations)
}

func TestWebhookIgnoresUnknownEvents(t *testing.T) {
	db := newFakeReconStore()
	pg := &fakeGateway{event: &gateway.Event{Type: "invoice.created"}}
	wc := NewWebhookController(db, pg, zap.NewNop())

	w := postWebhook(wc)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, true, resp["received"])
	assert.Zero(t, db.mutations)
}
