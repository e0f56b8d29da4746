package model

import (
	"encoding/json"
	"time"
)

// WebhookEventStatus is the processing outcome recorded for a delivery.
type WebhookEventStatus string

const (
	WebhookEventProcessed WebhookEventStatus = "processed"
	WebhookEventIgnored   WebhookEventStatus = "ignored"
	WebhookEventFailed    WebhookEventStatus = "failed"
)

// WebhookEvent is the durable processing log of a commerce delivery,
// kept for audit and replay diagnosis.
type WebhookEvent struct {
	ID        string             `db:"id" json:"id"`
	Status    WebhookEventStatus `db:"status" json:"status"`
	Reason    string             `db:"reason" json:"reason"`
	Email     string             `db:"email" json:"email"`
	ProductID string             `db:"product_id" json:"productId"`
	Payload   *json.RawMessage   `db:"payload" json:"payload,omitempty"`
	CreatedAt time.Time          `db:"created_at" json:"createdAt"`
}

type CreateWebhookEventParams struct {
	Status    WebhookEventStatus
	Reason    string
	Email     string
	ProductID string
	Payload   json.RawMessage
}
