package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/courseloop/academy-server-go/internal/database"
	"github.com/courseloop/academy-server-go/internal/model"
)

type ProgressRepository interface {
	// MarkCompleted upserts the progress row for (user, lesson) and sets it
	// completed. Replays keep the original completion timestamp; completed
	// never flips back to false here.
	MarkCompleted(ctx context.Context, params model.CompleteLessonParams) (*model.LessonProgress, error)
	Find(ctx context.Context, userID, lessonID string) (*model.LessonProgress, error)
	CompletedLessonIDs(ctx context.Context, userID, courseID string) ([]string, error)
	CountCompletedInCourse(ctx context.Context, userID, courseID string) (int, error)
}

type progressRepo struct {
	db database.DBTX
}

func NewProgressRepository(db *sqlx.DB) ProgressRepository {
	return &progressRepo{db: db}
}

func (r *progressRepo) MarkCompleted(ctx context.Context, params model.CompleteLessonParams) (*model.LessonProgress, error) {
	now := time.Now()
	var progress model.LessonProgress
	err := r.db.GetContext(ctx, &progress, `
		INSERT INTO lesson_progress (id, user_id, lesson_id, completed, completed_at, watched_seconds, last_position, updated_at)
		VALUES ($1, $2, $3, TRUE, $4, $5, $6, $4)
		ON CONFLICT ON CONSTRAINT lesson_progress_user_lesson_key DO UPDATE SET
			completed = TRUE,
			completed_at = COALESCE(lesson_progress.completed_at, EXCLUDED.completed_at),
			watched_seconds = GREATEST(lesson_progress.watched_seconds, EXCLUDED.watched_seconds),
			last_position = GREATEST(lesson_progress.last_position, EXCLUDED.last_position),
			updated_at = EXCLUDED.updated_at
		RETURNING *
	`, uuid.NewString(), params.UserID, params.LessonID, now,
		params.WatchedSeconds, params.LastPosition)
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *progressRepo) Find(ctx context.Context, userID, lessonID string) (*model.LessonProgress, error) {
	var progress model.LessonProgress
	err := r.db.GetContext(ctx, &progress, `
		SELECT * FROM lesson_progress WHERE user_id = $1 AND lesson_id = $2
	`, userID, lessonID)
	return HandleNotFound(&progress, err)
}

func (r *progressRepo) CompletedLessonIDs(ctx context.Context, userID, courseID string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `
		SELECT lp.lesson_id FROM lesson_progress lp
		JOIN lessons l ON l.id = lp.lesson_id
		WHERE lp.user_id = $1 AND l.course_id = $2 AND lp.completed = TRUE
	`, userID, courseID)
	return ids, err
}

func (r *progressRepo) CountCompletedInCourse(ctx context.Context, userID, courseID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM lesson_progress lp
		JOIN lessons l ON l.id = lp.lesson_id
		WHERE lp.user_id = $1 AND l.course_id = $2 AND lp.completed = TRUE
	`, userID, courseID)
	return count, err
}
