package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/courseloop/academy-server-go/internal/database"
	"github.com/courseloop/academy-server-go/internal/model"
)

type QuizRepository interface {
	FindByID(ctx context.Context, id string) (*model.Quiz, error)
	ListQuestions(ctx context.Context, quizID string) ([]model.QuizQuestion, error)
	ListAnswers(ctx context.Context, quizID string) ([]model.QuizAnswer, error)
	CreateAttempt(ctx context.Context, params model.CreateQuizAttemptParams) (*model.QuizAttempt, error)
	ListAttempts(ctx context.Context, userID, quizID string) ([]model.QuizAttempt, error)
	// PassedQuizIDs returns the ids of the course's quizzes the user has
	// passed at least once.
	PassedQuizIDs(ctx context.Context, userID, courseID string) ([]string, error)
}

type quizRepo struct {
	db database.DBTX
}

func NewQuizRepository(db *sqlx.DB) QuizRepository {
	return &quizRepo{db: db}
}

func (r *quizRepo) FindByID(ctx context.Context, id string) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.db.GetContext(ctx, &quiz, `
		SELECT * FROM quizzes WHERE id = $1
	`, id)
	return HandleNotFound(&quiz, err)
}

func (r *quizRepo) ListQuestions(ctx context.Context, quizID string) ([]model.QuizQuestion, error) {
	var questions []model.QuizQuestion
	err := r.db.SelectContext(ctx, &questions, `
		SELECT * FROM quiz_questions
		WHERE quiz_id = $1
		ORDER BY position
	`, quizID)
	return questions, err
}

func (r *quizRepo) ListAnswers(ctx context.Context, quizID string) ([]model.QuizAnswer, error) {
	var answers []model.QuizAnswer
	err := r.db.SelectContext(ctx, &answers, `
		SELECT a.* FROM quiz_answers a
		JOIN quiz_questions q ON q.id = a.question_id
		WHERE q.quiz_id = $1
		ORDER BY q.position, a.position
	`, quizID)
	return answers, err
}

func (r *quizRepo) CreateAttempt(ctx context.Context, params model.CreateQuizAttemptParams) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.db.GetContext(ctx, &attempt, `
		INSERT INTO quiz_attempts (id, user_id, quiz_id, score, passed, answers)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, uuid.NewString(), params.UserID, params.QuizID, params.Score, params.Passed, params.Answers)
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *quizRepo) ListAttempts(ctx context.Context, userID, quizID string) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.db.SelectContext(ctx, &attempts, `
		SELECT * FROM quiz_attempts
		WHERE user_id = $1 AND quiz_id = $2
		ORDER BY completed_at DESC
	`, userID, quizID)
	return attempts, err
}

func (r *quizRepo) PassedQuizIDs(ctx context.Context, userID, courseID string) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT a.quiz_id FROM quiz_attempts a
		JOIN quizzes q ON q.id = a.quiz_id
		WHERE a.user_id = $1 AND q.course_id = $2 AND a.passed = TRUE
	`, userID, courseID)
	return ids, err
}
