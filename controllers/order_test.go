package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"greencart/gateway"
	"greencart/middleware"
	"greencart/models"
	"greencart/store"
)

type fakeOrderStore struct {
	products map[primitive.ObjectID]*models.Product
	orders   []*models.Order
}

func (f *fakeOrderStore) ProductByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *product
	return &clone, nil
}

func (f *fakeOrderStore) CreateOrder(ctx context.Context, order *models.Order) (primitive.ObjectID, error) {
	order.ID = primitive.NewObjectID()
	f.orders = append(f.orders, order)
	return order.ID, nil
}

func (f *fakeOrderStore) OrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.OrderView, error) {
	return nil, nil
}

func (f *fakeOrderStore) AllOrders(ctx context.Context) ([]models.OrderView, error) {
	return nil, nil
}

type fakeGateway struct {
	created    *gateway.SessionParams
	session    *gateway.Session
	createErr  error
	event      *gateway.Event
	verifyErr  error
	byIntent   map[string]*gateway.Session
	intentErr  error
	verifyLog  int
	createLogs int
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, params gateway.SessionParams) (*gateway.Session, error) {
	f.createLogs++
	f.created = &params
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.session, nil
}

func (f *fakeGateway) VerifyEvent(payload []byte, signature string) (*gateway.Event, error) {
	f.verifyLog++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.event, nil
}

func (f *fakeGateway) SessionByPaymentIntent(ctx context.Context, paymentIntentID string) (*gateway.Session, error) {
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	session, ok := f.byIntent[paymentIntentID]
	if !ok {
		return nil, fmt.Errorf("no session for payment intent %s", paymentIntentID)
	}
	return session, nil
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

func catalogWith(products ...*models.Product) *fakeOrderStore {
	f := &fakeOrderStore{products: map[primitive.ObjectID]*models.Product{}}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func checkoutBody(t *testing.T, address string, items ...models.OrderItem) *bytes.Buffer {
	t.Helper()
	type reqItem struct {
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	}
	req := map[string]interface{}{"address": address}
	list := make([]reqItem, 0, len(items))
	for _, item := range items {
		list = append(list, reqItem{Product: item.Product.Hex(), Quantity: item.Quantity})
	}
	req["items"] = list
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func authedRequest(method, target string, body *bytes.Buffer, user *models.User) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	r := httptest.NewRequest(method, target, body)
	return r.WithContext(middleware.WithUser(r.Context(), user))
}

func testBuyer() *models.User {
	return &models.User{ID: primitive.NewObjectID(), Name: "Ada", Email: "ada@example.com", IsVerified: true}
}

func TestOrderAmount(t *testing.T) {
	// 2x10.00 + 1x5.00 = 25.00, floor(25*0.02) = 0
	assert.Equal(t, 25.0, orderAmount(25.0))
	// floor(100*0.02) = 2
	assert.Equal(t, 102.0, orderAmount(100.0))
	assert.Equal(t, 0.0, orderAmount(0.0))
}

func TestLineUnitAmount(t *testing.T) {
	assert.Equal(t, int64(1020), lineUnitAmount(10.00))
	assert.Equal(t, int64(510), lineUnitAmount(5.00))
	assert.Equal(t, int64(101), lineUnitAmount(0.99))
}

func TestPlaceCODComputesAmount(t *testing.T) {
	p1 := &models.Product{ID: primitive.NewObjectID(), Name: "Tea", OfferPrice: 10.00}
	p2 := &models.Product{ID: primitive.NewObjectID(), Name: "Honey", OfferPrice: 5.00}
	db := catalogWith(p1, p2)
	oc := NewOrderController(db, &fakeGateway{}, zap.NewNop())

	body := checkoutBody(t, primitive.NewObjectID().Hex(),
		models.OrderItem{Product: p1.ID, Quantity: 2},
		models.OrderItem{Product: p2.ID, Quantity: 1},
	)
	w := httptest.NewRecorder()
	oc.PlaceCOD(w, authedRequest("POST", "/api/order/cod", body, testBuyer()))

	var resp envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.Len(t, db.orders, 1)
	order := db.orders[0]
	assert.Equal(t, 25.0, order.Amount)
	assert.Equal(t, models.PaymentTypeCOD, order.PaymentType)
	assert.False(t, order.IsPaid)
}

func TestPlaceCODRejectsEmptyItems(t *testing.T) {
	db := catalogWith()
	oc := NewOrderController(db, &fakeGateway{}, zap.NewNop())

	body := checkoutBody(t, primitive.NewObjectID().Hex())
	w := httptest.NewRecorder()
	oc.PlaceCOD(w, authedRequest("POST", "/api/order/cod", body, testBuyer()))

	var resp envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Empty(t, db.orders)
}

func TestPlaceCODRejectsMissingAddress(t *testing.T) {
	p := &models.Product{ID: primitive.NewObjectID(), Name: "Tea", OfferPrice: 10.00}
	db := catalogWith(p)
	oc := NewOrderController(db, &fakeGateway{}, zap.NewNop())

	body := checkoutBody(t, "", models.OrderItem{Product: p.ID, Quantity: 1})
	w := httptest.NewRecorder()
	oc.PlaceCOD(w, authedRequest("POST", "/api/order/cod", body, testBuyer()))

	var resp envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Empty(t, db.orders)
}

func TestPlaceCODRejectsUnknownProduct(t *testing.T) {
	db := catalogWith()
	oc := NewOrderController(db, &fakeGateway{}, zap.NewNop())

	body := checkoutBody(t, primitive.NewObjectID().Hex(),
		models.OrderItem{Product: primitive.NewObjectID(), Quantity: 1})
	w := httptest.NewRecorder()
	oc.PlaceCOD(w, authedRequest("POST", "/api/order/cod", body, testBuyer()))

	var resp envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "not found")
	assert.Empty(t, db.orders)
}

func TestPlaceOnlineReturnsRedirectURL(t *testing.T) {
	p := &models.Product{ID: primitive.NewObjectID(), Name: "Tea", OfferPrice: 10.00}
	db := catalogWith(p)
	pg := &fakeGateway{session: &gateway.Session{ID: "cs_1", URL: "https://pay.example/cs_1"}}
	oc := NewOrderController(db, pg, zap.NewNop())

	buyer := testBuyer()
	body := checkoutBody(t, primitive.NewObjectID().Hex(),
		models.OrderItem{Product: p.ID, Quantity: 2})
	r := authedRequest("POST", "/api/order/stripe", body, buyer)
	r.Header.Set("Origin", "https://shop.example")
	w := httptest.NewRecorder()
	oc.PlaceOnline(w, r)

	var resp envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "https://pay.example/cs_1", resp.URL)

	require.Len(t, db.orders, 1)
	order := db.orders[0]
	assert.Equal(t, models.PaymentTypeOnline, order.PaymentType)
	assert.False(t, order.IsPaid)

	require.NotNil(t, pg.created)
	assert.Equal(t, order.ID.Hex(), pg.created.Metadata[gateway.MetadataOrderID])
	assert.Equal(t, buyer.ID.Hex(), pg.created.Metadata[gateway.MetadataUserID])
	assert.Equal(t, "https://shop.example/loader?next=/my-orders", pg.created.SuccessURL)
	assert.Equal(t, "https://shop.example/cart", pg.created.CancelURL)
	require.Len(t, pg.created.LineItems, 1)
	assert.Equal(t, int64(1020), pg.created.LineItems[0].UnitAmount)
	assert.Equal(t, int64(2), pg.created.LineItems[0].Quantity)
}

func TestPlaceOnlineSessionFailureKeepsOrder(t *testing.T) {
	p := &models.Product{ID: primitive.NewObjectID(), Name: "Tea", OfferPrice: 10.00}
	db := catalogWith(p)
	pg := &fakeGateway{createErr: errors.New("provider down")}
	oc := NewOrderController(db, pg, zap.NewNop())

	body := checkoutBody(t, primitive.NewObjectID().Hex(),
		models.OrderItem{Product: p.ID, Quantity: 1})
	r := authedRequest("POST", "/api/order/stripe", body, testBuyer())
	r.Header.Set("Origin", "https://shop.example")
	w := httptest.NewRecorder()
	oc.PlaceOnline(w, r)

	var resp envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	// The order is created before the session; it survives the failure and
	// is left for the janitor.
	assert.Len(t, db.orders, 1)
}

func TestPlaceOnlineRequiresOrigin(t *testing.T) {
	db := catalogWith()
	oc := NewOrderController(db, &fakeGateway{}, zap.NewNop())

	body := checkoutBody(t, primitive.NewObjectID().Hex(),
		models.OrderItem{Product: primitive.NewObjectID(), Quantity: 1})
	w := httptest.NewRecorder()
	oc.PlaceOnline(w, authedRequest("POST", "/api/order/stripe", body, testBuyer()))

	var resp envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Empty(t, db.orders)
}
