package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment types accepted at checkout.
const (
	PaymentTypeCOD    = "COD"
	PaymentTypeOnline = "Online"
)

// DefaultOrderStatus is the fulfillment status a new order starts with.
const DefaultOrderStatus = "Order Placed"

// OrderItem is one line of an order: a product reference and a positive
// quantity.
type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// Order is created unpaid at checkout. Online orders are flipped to paid by
// payment reconciliation, or deleted outright when the payment fails. COD
// orders are never marked paid in this flow.
type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Items       []OrderItem        `bson:"items" json:"items"`
	Amount      float64            `bson:"amount" json:"amount"`
	Address     primitive.ObjectID `bson:"address" json:"address"`
	Status      string             `bson:"status" json:"status"`
	PaymentType string             `bson:"paymentType" json:"paymentType"`
	IsPaid      bool               `bson:"isPaid" json:"isPaid"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderItemView is an order line with the product document resolved, as
// returned by the order listing endpoints.
type OrderItemView struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// OrderView is an order with its product and address references resolved.
type OrderView struct {
	ID          primitive.ObjectID `json:"_id"`
	UserID      primitive.ObjectID `json:"userId"`
	Items       []OrderItemView    `json:"items"`
	Amount      float64            `json:"amount"`
	Address     Address            `json:"address"`
	Status      string             `json:"status"`
	PaymentType string             `json:"paymentType"`
	IsPaid      bool               `json:"isPaid"`
	CreatedAt   time.Time          `json:"createdAt"`
}
