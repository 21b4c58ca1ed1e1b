package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

type stripeProvider struct {
	api           *client.API
	webhookSecret string
	log           *zap.Logger
}

func NewStripeProvider(secretKey, webhookSecret string, log *zap.Logger) Provider {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &stripeProvider{
		api:           api,
		webhookSecret: webhookSecret,
		log:           log.With(zap.String("provider", "stripe")),
	}
}

func (p *stripeProvider) Name() string { return "stripe" }

func (p *stripeProvider) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		p.log.Error("Failed to create payment intent",
			zap.Error(err),
			zap.String("idempotency_key", req.IdempotencyKey),
		)
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return toIntent(pi), nil
}

func (p *stripeProvider) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		if isStripeNotFound(err) {
			return nil, ErrIntentNotFound
		}
		p.log.Error("Failed to get payment intent", zap.Error(err), zap.String("intent_id", intentID))
		return nil, fmt.Errorf("get payment intent %s: %w", intentID, err)
	}

	return toIntent(pi), nil
}

func (p *stripeProvider) CancelIntent(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Cancel(intentID, params)
	if err == nil {
		return toIntent(pi), nil
	}
	if isStripeNotFound(err) {
		return nil, ErrIntentNotFound
	}

	// Cancel fails for intents in a terminal state; look at which one.
	current, getErr := p.GetIntent(ctx, intentID)
	if getErr != nil {
		return nil, fmt.Errorf("cancel payment intent %s: %w", intentID, err)
	}
	switch current.Status {
	case IntentSucceeded:
		return current, ErrAlreadySucceeded
	case IntentCanceled:
		return current, nil
	}

	p.log.Error("Failed to cancel payment intent", zap.Error(err), zap.String("intent_id", intentID))
	return nil, fmt.Errorf("cancel payment intent %s: %w", intentID, err)
}

func (p *stripeProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		p.log.Warn("Rejected webhook", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: event.ID, Type: EventType(event.Type)}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}

	switch out.Type {
	case EventIntentSucceeded, EventIntentFailed, EventIntentCanceled:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent from event %s: %w", event.ID, err)
		}
		intent := toIntent(&pi)
		out.IntentID = intent.ID
		out.Status = intent.Status
		out.BookingID = intent.Metadata["booking_id"]
	}

	return out, nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       mapStripeStatus(pi),
		Metadata:     pi.Metadata,
	}
}

// mapStripeStatus folds Stripe's intent states into the four the booking
// core distinguishes. An intent waiting for a new payment method after a
// declined attempt counts as failed.
func mapStripeStatus(pi *stripe.PaymentIntent) IntentStatus {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return IntentSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return IntentCanceled
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		if pi.LastPaymentError != nil {
			return IntentFailed
		}
	}
	return IntentProcessing
}

func isStripeNotFound(err error) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == 404
}
