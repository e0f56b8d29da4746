package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/courseloop/academy-server-go/internal/database"
	"github.com/courseloop/academy-server-go/internal/model"
)

type WebhookEventRepository interface {
	Create(ctx context.Context, params model.CreateWebhookEventParams) (*model.WebhookEvent, error)
	ListRecent(ctx context.Context, limit int) ([]model.WebhookEvent, error)
}

type webhookEventRepo struct {
	db database.DBTX
}

func NewWebhookEventRepository(db *sqlx.DB) WebhookEventRepository {
	return &webhookEventRepo{db: db}
}

func (r *webhookEventRepo) Create(ctx context.Context, params model.CreateWebhookEventParams) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.GetContext(ctx, &event, `
		INSERT INTO webhook_events (id, status, reason, email, product_id, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, uuid.NewString(), params.Status, params.Reason, params.Email, params.ProductID, params.Payload)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *webhookEventRepo) ListRecent(ctx context.Context, limit int) ([]model.WebhookEvent, error) {
	var events []model.WebhookEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM webhook_events
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	return events, err
}
