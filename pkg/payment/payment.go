// Package payment is the boundary to the external payment provider. The
// booking core only sees intents, their status, and verified webhook events.
package payment

import (
	"context"
	"errors"
)

type IntentStatus string

const (
	IntentProcessing IntentStatus = "processing"
	IntentSucceeded  IntentStatus = "succeeded"
	IntentFailed     IntentStatus = "failed"
	IntentCanceled   IntentStatus = "canceled"
)

type EventType string

const (
	EventIntentSucceeded EventType = "payment_intent.succeeded"
	EventIntentFailed    EventType = "payment_intent.payment_failed"
	EventIntentCanceled  EventType = "payment_intent.canceled"
)

// SignatureHeader carries the webhook signature for both providers.
const SignatureHeader = "Stripe-Signature"

var (
	ErrIntentNotFound   = errors.New("payment intent not found")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrAlreadySucceeded is returned by CancelIntent when the intent was
	// charged before the cancel reached the provider.
	ErrAlreadySucceeded = errors.New("payment intent already succeeded")
)

type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       IntentStatus
	Metadata     map[string]string
}

type CreateIntentRequest struct {
	Amount         int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// Event is a verified provider notification about one intent.
type Event struct {
	ID        string
	Type      EventType
	IntentID  string
	Status    IntentStatus
	BookingID string
}

type Provider interface {
	Name() string
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	CancelIntent(ctx context.Context, intentID string) (*Intent, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
