package service

import (
	"context"
	"encoding/json"
	"math"

	"github.com/courseloop/academy-server-go/internal/audit"
	apperrors "github.com/courseloop/academy-server-go/internal/errors"
	"github.com/courseloop/academy-server-go/internal/model"
	"github.com/courseloop/academy-server-go/internal/repository"
)

// QuizView is the student-facing shape of a quiz: questions and answer
// text only, correctness withheld until submission.
type QuizView struct {
	Quiz      model.Quiz         `json:"quiz"`
	Questions []QuizQuestionView `json:"questions"`
}

type QuizQuestionView struct {
	Question model.QuizQuestion `json:"question"`
	Answers  []model.QuizAnswer `json:"answers"`
}

// QuizResult is returned after scoring a submission. CorrectAnswers
// reveals the key per question for the review screen.
type QuizResult struct {
	Score          int                 `json:"score"`
	Passed         bool                `json:"passed"`
	CorrectCount   int                 `json:"correctCount"`
	TotalQuestions int                 `json:"totalQuestions"`
	CorrectAnswers map[string][]string `json:"correctAnswers"`
	AttemptID      string              `json:"attemptId"`
}

// QuizService serves quiz content and scores submissions.
type QuizService struct {
	quizzes repository.QuizRepository
	enrolls repository.EnrollmentRepository
}

func NewQuizService(
	quizzes repository.QuizRepository,
	enrolls repository.EnrollmentRepository,
) *QuizService {
	return &QuizService{quizzes: quizzes, enrolls: enrolls}
}

// GetQuiz loads a quiz for taking. Requires enrollment in the owning
// course; the answer key never leaves the server here.
func (s *QuizService) GetQuiz(ctx context.Context, userID, quizID string) (*QuizView, error) {
	quiz, err := s.requireEnrolledQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	questions, err := s.quizzes.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	answers, err := s.quizzes.ListAnswers(ctx, quizID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	byQuestion := make(map[string][]model.QuizAnswer, len(questions))
	for _, a := range answers {
		a.IsCorrect = false
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}

	view := &QuizView{Quiz: *quiz}
	for _, q := range questions {
		view.Questions = append(view.Questions, QuizQuestionView{
			Question: q,
			Answers:  byQuestion[q.ID],
		})
	}
	return view, nil
}

// SubmitQuiz scores a submission against the hidden key and records the
// attempt. A question counts only on exact set equality: every correct
// option selected and nothing else. Attempts are append-only.
func (s *QuizService) SubmitQuiz(
	ctx context.Context,
	userID, quizID string,
	submitted map[string][]string,
) (*QuizResult, error) {
	quiz, err := s.requireEnrolledQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	questions, err := s.quizzes.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if len(questions) == 0 {
		return nil, apperrors.ValidationError("quiz has no questions")
	}

	answers, err := s.quizzes.ListAnswers(ctx, quizID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	key := make(map[string][]string, len(questions))
	for _, a := range answers {
		if a.IsCorrect {
			key[a.QuestionID] = append(key[a.QuestionID], a.ID)
		}
	}

	correctCount := 0
	for _, q := range questions {
		if sameIDSet(key[q.ID], submitted[q.ID]) {
			correctCount++
		}
	}

	score := int(math.Round(100 * float64(correctCount) / float64(len(questions))))
	passed := score >= quiz.PassingScore

	answersJSON, err := json.Marshal(submitted)
	if err != nil {
		return nil, apperrors.Internal("failed to encode submitted answers").WithCause(err)
	}

	attempt, err := s.quizzes.CreateAttempt(ctx, model.CreateQuizAttemptParams{
		UserID:  userID,
		QuizID:  quizID,
		Score:   score,
		Passed:  passed,
		Answers: answersJSON,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	audit.Log(ctx, audit.Event{
		Type:   audit.EventQuizSubmitted,
		UserID: userID,
		Details: map[string]interface{}{
			"quiz_id": quizID,
			"score":   score,
			"passed":  passed,
		},
	})

	return &QuizResult{
		Score:          score,
		Passed:         passed,
		CorrectCount:   correctCount,
		TotalQuestions: len(questions),
		CorrectAnswers: key,
		AttemptID:      attempt.ID,
	}, nil
}

// ListAttempts returns the viewer's own attempt history for a quiz.
func (s *QuizService) ListAttempts(ctx context.Context, userID, quizID string) ([]model.QuizAttempt, error) {
	if _, err := s.requireEnrolledQuiz(ctx, userID, quizID); err != nil {
		return nil, err
	}
	attempts, err := s.quizzes.ListAttempts(ctx, userID, quizID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return attempts, nil
}

func (s *QuizService) requireEnrolledQuiz(ctx context.Context, userID, quizID string) (*model.Quiz, error) {
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if quiz == nil {
		return nil, apperrors.NotFound("quiz")
	}

	enrolled, err := s.enrolls.Exists(ctx, userID, quiz.CourseID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if !enrolled {
		return nil, apperrors.NotEnrolled()
	}
	return quiz, nil
}

// sameIDSet compares two id slices as sets, order-independent and
// duplicate-insensitive.
func sameIDSet(a, b []string) bool {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) != len(setB) {
		return false
	}
	for id := range setA {
		if !setB[id] {
			return false
		}
	}
	return true
}
