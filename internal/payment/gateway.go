package payment

import (
	"context"
	"errors"
)

var (
	// ErrSignatureInvalid means the event payload could not be verified
	// against the webhook secret. Nothing after verification may run.
	ErrSignatureInvalid = errors.New("event signature verification failed")

	// ErrNotConfirmation marks a verified event that is not a successful
	// payment confirmation. Such events are acknowledged and ignored.
	ErrNotConfirmation = errors.New("event is not a payment confirmation")
)

// IntentMetadata is attached to a payment intent at creation time and comes
// back verbatim on the confirmation event. It carries everything the
// reconciler needs to convert the cart into an order.
type IntentMetadata struct {
	UserID          string
	RecipientName   string
	RecipientPhone  string
	ShippingAddress string
}

// Intent is the gateway-side record of an expected charge.
type Intent struct {
	ID           string
	ClientSecret string
}

// Confirmation is a verified payment-success event. Amount is the final
// charged amount in minor currency units.
type Confirmation struct {
	IntentID string
	Amount   int64
	Metadata IntentMetadata
}

// Gateway talks to the external payment processor. CreateIntent must never be
// called inside a database transaction.
type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, metadata IntentMetadata) (*Intent, error)
	VerifyEvent(payload []byte, signatureHeader string) (*Confirmation, error)
}
