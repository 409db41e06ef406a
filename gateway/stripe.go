package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Stripe implements PaymentGateway against the Stripe API.
type Stripe struct {
	api           *client.API
	webhookSecret string
}

// NewStripe builds a gateway with its own API client. The webhook secret is
// the shared secret Stripe signs event payloads with.
func NewStripe(secretKey, webhookSecret string) *Stripe {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{api: api, webhookSecret: webhookSecret}
}

func (s *Stripe) CreateCheckoutSession(ctx context.Context, params SessionParams) (*Session, error) {
	p := &stripe.CheckoutSessionParams{
		Params:     stripe.Params{Context: ctx},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	for _, item := range params.LineItems {
		p.LineItems = append(p.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyUSD)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}

	sess, err := s.api.CheckoutSessions.New(p)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &Session{ID: sess.ID, URL: sess.URL, Metadata: sess.Metadata}, nil
}

func (s *Stripe) VerifyEvent(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, err
	}

	out := &Event{Type: string(event.Type)}
	switch out.Type {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Session = &Session{ID: sess.ID, URL: sess.URL, Metadata: sess.Metadata}
	case EventPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.PaymentIntentID = intent.ID
	}
	return out, nil
}

func (s *Stripe) SessionByPaymentIntent(ctx context.Context, paymentIntentID string) (*Session, error) {
	params := &stripe.CheckoutSessionListParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx

	iter := s.api.CheckoutSessions.List(params)
	for iter.Next() {
		sess := iter.CheckoutSession()
		return &Session{ID: sess.ID, URL: sess.URL, Metadata: sess.Metadata}, nil
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("no session for payment intent %s", paymentIntentID)
}
