package request

type CreateHoldRequest struct {
	ScheduleID string            `json:"schedule_id" validate:"required,uuid4"`
	PartySize  int               `json:"party_size" validate:"min=1,max=50"`
	Metadata   map[string]string `json:"metadata,omitempty" validate:"max=20,dive,keys,min=1,max=64,endkeys,max=500"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required,max=255"`
}
