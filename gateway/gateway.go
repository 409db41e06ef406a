// Package gateway abstracts the hosted-payment provider. The storefront only
// needs three operations from it: open a checkout session, authenticate an
// inbound webhook event, and resolve a session from a payment intent.
package gateway

import "context"

// Event kinds the reconciliation handler dispatches on. Any other kind is
// acknowledged and ignored.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventPaymentFailed     = "payment_intent.payment_failed"
)

// Metadata keys attached to checkout sessions so webhook events can be linked
// back to the order and buyer that created them.
const (
	MetadataOrderID = "orderId"
	MetadataUserID  = "userId"
)

// LineItem is one priced line of a checkout session. UnitAmount is in minor
// currency units and already includes the checkout surcharge.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// SessionParams describes the hosted session to create.
type SessionParams struct {
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// Session is a provider-hosted checkout session.
type Session struct {
	ID       string
	URL      string
	Metadata map[string]string
}

// Event is a verified provider notification. Session is populated for
// checkout completion events; PaymentIntentID for payment failures.
type Event struct {
	Type            string
	Session         *Session
	PaymentIntentID string
}

// PaymentGateway is the provider boundary. It is injected into the checkout
// and reconciliation controllers so tests can substitute fakes.
type PaymentGateway interface {
	// CreateCheckoutSession opens a hosted payment session and returns it
	// with its redirect URL.
	CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error)

	// VerifyEvent authenticates a raw webhook payload against its signature
	// and decodes it. Any error means the event must be rejected with no
	// state change.
	VerifyEvent(payload []byte, signature string) (*Event, error)

	// SessionByPaymentIntent resolves the checkout session that produced the
	// given payment intent.
	SessionByPaymentIntent(ctx context.Context, paymentIntentID string) (*Session, error)
}
