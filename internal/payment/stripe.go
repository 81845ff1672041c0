package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

const (
	metadataUserID          = "user_id"
	metadataRecipientName   = "recipient_name"
	metadataRecipientPhone  = "recipient_phone"
	metadataShippingAddress = "shipping_address"
)

// StripeGateway implements Gateway on top of the Stripe API.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	currency      string
}

func NewStripeGateway(secretKey, webhookSecret, currency string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &StripeGateway{
		api:           api,
		webhookSecret: webhookSecret,
		currency:      currency,
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, metadata IntentMetadata) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(g.currency),
	}
	params.Context = ctx
	params.AddMetadata(metadataUserID, metadata.UserID)
	params.AddMetadata(metadataRecipientName, metadata.RecipientName)
	params.AddMetadata(metadataRecipientPhone, metadata.RecipientPhone)
	params.AddMetadata(metadataShippingAddress, metadata.ShippingAddress)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to create payment intent: %w", err)
	}

	log.Info().Str("payment_intent_id", pi.ID).Int64("amount", amount).Msg("stripe: payment intent created")

	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// VerifyEvent checks the Stripe-Signature header against the raw payload and
// returns the confirmation carried by a payment_intent.succeeded event.
func (g *StripeGateway) VerifyEvent(payload []byte, signatureHeader string) (*Confirmation, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	if event.Type != "payment_intent.succeeded" {
		return nil, ErrNotConfirmation
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("stripe: failed to parse payment intent from event: %w", err)
	}

	return &Confirmation{
		IntentID: pi.ID,
		Amount:   pi.Amount,
		Metadata: IntentMetadata{
			UserID:          pi.Metadata[metadataUserID],
			RecipientName:   pi.Metadata[metadataRecipientName],
			RecipientPhone:  pi.Metadata[metadataRecipientPhone],
			ShippingAddress: pi.Metadata[metadataShippingAddress],
		},
	}, nil
}
