package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/courseloop/academy-server-go/internal/database"
	"github.com/courseloop/academy-server-go/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// FindOrCreate upserts a user keyed on lower(email). The returned flag
	// reports whether a new row was inserted.
	FindOrCreate(ctx context.Context, params model.CreateUserParams) (*model.User, bool, error)
	// SetPassword stores a password hash only if none exists yet. Returns
	// false when the user already has a credential.
	SetPassword(ctx context.Context, id string, passwordHash string) (bool, error)
	MarkEmailVerified(ctx context.Context, id string) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) UserRepository
}

type userRepo struct {
	db database.DBTX
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE LOWER(email) = LOWER($1)
	`, email)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindOrCreate(ctx context.Context, params model.CreateUserParams) (*model.User, bool, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (id, email, name, external_contact_id, must_set_password)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (LOWER(email)) DO NOTHING
		RETURNING *
	`, uuid.NewString(), params.Email, params.Name, params.ExternalContactID, params.MustSetPassword)
	if err == nil {
		return &user, true, nil
	}

	// Insert lost to an existing row; fall back to the existing user.
	existing, ferr := r.FindByEmail(ctx, params.Email)
	if ferr != nil {
		return nil, false, ferr
	}
	if existing != nil {
		return existing, false, nil
	}
	return nil, false, err
}

func (r *userRepo) SetPassword(ctx context.Context, id string, passwordHash string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			password_hash = $2,
			must_set_password = FALSE,
			updated_at = $3
		WHERE id = $1 AND password_hash IS NULL
	`, id, passwordHash, time.Now())
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *userRepo) MarkEmailVerified(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			email_verified = TRUE,
			updated_at = $2
		WHERE id = $1
	`, id, time.Now())
	return err
}
