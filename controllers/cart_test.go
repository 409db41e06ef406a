package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeCartStore struct {
	saved map[string]int
}

func (f *fakeCartStore) ReplaceUserCart(ctx context.Context, id primitive.ObjectID, items map[string]int) error {
	f.saved = items
	return nil
}

func postCart(t *testing.T, cc *CartController, items map[string]int) envelope {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"cartItems": items})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	cc.Update(w, authedRequest("POST", "/api/cart/update", bytes.NewBuffer(body), testBuyer()))

	var resp envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestCartUpdateDropsZeroQuantities(t *testing.T) {
	db := &fakeCartStore{}
	cc := NewCartController(db, zap.NewNop())

	keep := primitive.NewObjectID().Hex()
	gone := primitive.NewObjectID().Hex()
	resp := postCart(t, cc, map[string]int{keep: 2, gone: 0})

	assert.True(t, resp.Success)
	assert.Equal(t, map[string]int{keep: 2}, db.saved, "a quantity reaching zero removes the key")
}

func TestCartUpdateRejectsInvalidProductID(t *testing.T) {
	db := &fakeCartStore{}
	cc := NewCartController(db, zap.NewNop())

	resp := postCart(t, cc, map[string]int{"not-an-id": 1})

	assert.False(t, resp.Success)
	assert.Nil(t, db.saved)
}

func TestCartUpdateAcceptsEmptyCart(t *testing.T) {
	db := &fakeCartStore{}
	cc := NewCartController(db, zap.NewNop())

	resp := postCart(t, cc, map[string]int{})

	assert.True(t, resp.Success)
	assert.Empty(t, db.saved)
}
