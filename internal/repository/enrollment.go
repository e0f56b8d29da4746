package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/courseloop/academy-server-go/internal/database"
	"github.com/courseloop/academy-server-go/internal/model"
)

type EnrollmentRepository interface {
	// Create inserts an enrollment keyed on (user_id, course_id). Replayed
	// deliveries hit the uniqueness constraint and are reported as
	// created=false, never as an error.
	Create(ctx context.Context, params model.CreateEnrollmentParams) (bool, error)
	Exists(ctx context.Context, userID, courseID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) EnrollmentRepository
}

type enrollmentRepo struct {
	db database.DBTX
}

func NewEnrollmentRepository(db *sqlx.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) WithTx(tx *sqlx.Tx) EnrollmentRepository {
	return &enrollmentRepo{db: tx}
}

func (r *enrollmentRepo) Create(ctx context.Context, params model.CreateEnrollmentParams) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO enrollments (id, user_id, course_id, source, external_transaction_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT enrollments_user_course_key DO NOTHING
	`, uuid.NewString(), params.UserID, params.CourseID, params.Source,
		params.ExternalTransactionID, params.Metadata)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *enrollmentRepo) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2
		)
	`, userID, courseID)
	return exists, err
}

func (r *enrollmentRepo) ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.SelectContext(ctx, &enrollments, `
		SELECT * FROM enrollments
		WHERE user_id = $1
		ORDER BY enrolled_at DESC
	`, userID)
	return enrollments, err
}
