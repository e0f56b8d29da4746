package model

import (
	"encoding/json"
	"time"
)

// QuestionType distinguishes single-answer from multi-select questions.
type QuestionType string

const (
	QuestionTypeSingle QuestionType = "single"
	QuestionTypeMulti  QuestionType = "multi"
)

type Quiz struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"courseId"`
	ModuleID     *string   `db:"module_id" json:"moduleId,omitempty"`
	Title        string    `db:"title" json:"title"`
	IsFinalExam  bool      `db:"is_final_exam" json:"isFinalExam"`
	PassingScore int       `db:"passing_score" json:"passingScore"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type QuizQuestion struct {
	ID           string       `db:"id" json:"id"`
	QuizID       string       `db:"quiz_id" json:"quizId"`
	Prompt       string       `db:"prompt" json:"prompt"`
	QuestionType QuestionType `db:"question_type" json:"questionType"`
	Position     int          `db:"position" json:"position"`
}

type QuizAnswer struct {
	ID         string `db:"id" json:"id"`
	QuestionID string `db:"question_id" json:"questionId"`
	AnswerText string `db:"answer_text" json:"answerText"`
	IsCorrect  bool   `db:"is_correct" json:"-"`
	Position   int    `db:"position" json:"position"`
}

type QuizAttempt struct {
	ID          string          `db:"id" json:"id"`
	UserID      string          `db:"user_id" json:"userId"`
	QuizID      string          `db:"quiz_id" json:"quizId"`
	Score       int             `db:"score" json:"score"`
	Passed      bool            `db:"passed" json:"passed"`
	Answers     json.RawMessage `db:"answers" json:"answers"`
	CompletedAt time.Time       `db:"completed_at" json:"completedAt"`
}

type CreateQuizAttemptParams struct {
	UserID  string
	QuizID  string
	Score   int
	Passed  bool
	Answers json.RawMessage
}
