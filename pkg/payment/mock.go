package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockProvider is an in-process provider for local runs and tests. Intents
// start in processing and move only when SetStatus is called. Webhooks are
// signed like Stripe's: "t=<unix>,v1=<hex hmac-sha256 of t.payload>".
type MockProvider struct {
	mu          sync.Mutex
	intents     map[string]*Intent
	idempotency map[string]string
	cancelCalls map[string]int
	secret      string
	tolerance   time.Duration
	now         func() time.Time
	log         *zap.Logger
}

func NewMockProvider(webhookSecret string, log *zap.Logger) *MockProvider {
	return &MockProvider{
		intents:     make(map[string]*Intent),
		idempotency: make(map[string]string),
		cancelCalls: make(map[string]int),
		secret:      webhookSecret,
		tolerance:   5 * time.Minute,
		now:         time.Now,
		log:         log.With(zap.String("provider", "mock")),
	}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if req.IdempotencyKey != "" {
		if id, ok := p.idempotency[req.IdempotencyKey]; ok {
			return cloneIntent(p.intents[id]), nil
		}
	}

	id := "pi_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       IntentProcessing,
		Metadata:     make(map[string]string, len(req.Metadata)),
	}
	for k, v := range req.Metadata {
		intent.Metadata[k] = v
	}

	p.intents[id] = intent
	if req.IdempotencyKey != "" {
		p.idempotency[req.IdempotencyKey] = id
	}

	p.log.Debug("Created intent", zap.String("intent_id", id), zap.Int64("amount", req.Amount))
	return cloneIntent(intent), nil
}

func (p *MockProvider) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[intentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	return cloneIntent(intent), nil
}

func (p *MockProvider) CancelIntent(ctx context.Context, intentID string) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[intentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	p.cancelCalls[intentID]++

	if intent.Status == IntentSucceeded {
		return cloneIntent(intent), ErrAlreadySucceeded
	}
	intent.Status = IntentCanceled
	return cloneIntent(intent), nil
}

// SetStatus simulates the customer completing or failing a payment.
func (p *MockProvider) SetStatus(intentID string, status IntentStatus) (*Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[intentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	intent.Status = status
	return cloneIntent(intent), nil
}

// CancelCalls reports how many times CancelIntent reached intentID.
func (p *MockProvider) CancelCalls(intentID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelCalls[intentID]
}

// IntentCount reports how many distinct intents were created.
func (p *MockProvider) IntentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.intents)
}

type mockWebhook struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Data struct {
		IntentID  string       `json:"intent_id"`
		Status    IntentStatus `json:"status"`
		BookingID string       `json:"booking_id"`
	} `json:"data"`
}

// BuildWebhook returns a signed payload describing the intent's current
// status, as the provider would deliver it.
func (p *MockProvider) BuildWebhook(eventID, intentID string) (payload []byte, signature string, err error) {
	intent, err := p.GetIntent(context.Background(), intentID)
	if err != nil {
		return nil, "", err
	}

	var msg mockWebhook
	msg.ID = eventID
	switch intent.Status {
	case IntentSucceeded:
		msg.Type = EventIntentSucceeded
	case IntentFailed:
		msg.Type = EventIntentFailed
	case IntentCanceled:
		msg.Type = EventIntentCanceled
	default:
		return nil, "", fmt.Errorf("no webhook for intent %s in status %s", intentID, intent.Status)
	}
	msg.Data.IntentID = intent.ID
	msg.Data.Status = intent.Status
	msg.Data.BookingID = intent.Metadata["booking_id"]

	payload, err = json.Marshal(msg)
	if err != nil {
		return nil, "", err
	}
	return payload, p.Sign(payload, p.now()), nil
}

func (p *MockProvider) Sign(payload []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + p.mac(ts, payload)
}

func (p *MockProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	var ts, sig string
	for _, part := range strings.Split(signature, ",") {
		k, v, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch k {
		case "t":
			ts = v
		case "v1":
			sig = v
		}
	}
	if ts == "" || sig == "" {
		return nil, ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	if age := p.now().Sub(time.Unix(unix, 0)); age > p.tolerance || age < -p.tolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}
	if !hmac.Equal([]byte(sig), []byte(p.mac(ts, payload))) {
		return nil, ErrInvalidSignature
	}

	var msg mockWebhook
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}

	return &Event{
		ID:        msg.ID,
		Type:      msg.Type,
		IntentID:  msg.Data.IntentID,
		Status:    msg.Data.Status,
		BookingID: msg.Data.BookingID,
	}, nil
}

func (p *MockProvider) mac(ts string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(p.secret))
	h.Write([]byte(ts))
	h.Write([]byte("."))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func cloneIntent(in *Intent) *Intent {
	out := *in
	out.Metadata = make(map[string]string, len(in.Metadata))
	for k, v := range in.Metadata {
		out.Metadata[k] = v
	}
	return &out
}
