package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/courseloop/academy-server-go/internal/database"
	"github.com/courseloop/academy-server-go/internal/model"
)

type MagicLinkRepository interface {
	Create(ctx context.Context, params model.CreateMagicLinkTokenParams) (*model.MagicLinkToken, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error)
	// Consume marks the token used, but only if it is currently unused and
	// unexpired. Returns false when the conditional update touched no row,
	// which is how a lost race surfaces.
	Consume(ctx context.Context, id string) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) MagicLinkRepository
}

type magicLinkRepo struct {
	db database.DBTX
}

func NewMagicLinkRepository(db *sqlx.DB) MagicLinkRepository {
	return &magicLinkRepo{db: db}
}

func (r *magicLinkRepo) WithTx(tx *sqlx.Tx) MagicLinkRepository {
	return &magicLinkRepo{db: tx}
}

func (r *magicLinkRepo) Create(ctx context.Context, params model.CreateMagicLinkTokenParams) (*model.MagicLinkToken, error) {
	var token model.MagicLinkToken
	err := r.db.GetContext(ctx, &token, `
		INSERT INTO magic_link_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, uuid.NewString(), params.UserID, params.TokenHash, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *magicLinkRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.MagicLinkToken, error) {
	var token model.MagicLinkToken
	err := r.db.GetContext(ctx, &token, `
		SELECT * FROM magic_link_tokens WHERE token_hash = $1
	`, tokenHash)
	return HandleNotFound(&token, err)
}

func (r *magicLinkRepo) Consume(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE magic_link_tokens SET
			used_at = $2
		WHERE id = $1 AND used_at IS NULL AND expires_at > $2
	`, id, time.Now())
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *magicLinkRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM magic_link_tokens
		WHERE expires_at < NOW() OR used_at IS NOT NULL
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
