package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/courseloop/academy-server-go/internal/audit"
	apperrors "github.com/courseloop/academy-server-go/internal/errors"
	"github.com/courseloop/academy-server-go/internal/model"
	"github.com/courseloop/academy-server-go/internal/repository"
)

// CompletionResult is the updated completion state after marking one
// lesson done. CourseCompleted flips to true only on the action that
// brought the course to 100%.
type CompletionResult struct {
	Progress         *model.LessonProgress `json:"progress"`
	CompletedLessons int                   `json:"completedLessons"`
	TotalLessons     int                   `json:"totalLessons"`
	CourseCompleted  bool                  `json:"courseCompleted"`
}

// ProgressService records lesson completions.
type ProgressService struct {
	courses  repository.CourseRepository
	enrolls  repository.EnrollmentRepository
	progress repository.ProgressRepository
	quizzes  repository.QuizRepository
}

func NewProgressService(
	courses repository.CourseRepository,
	enrolls repository.EnrollmentRepository,
	progress repository.ProgressRepository,
	quizzes repository.QuizRepository,
) *ProgressService {
	return &ProgressService{courses: courses, enrolls: enrolls, progress: progress, quizzes: quizzes}
}

// CompleteLesson marks a lesson fully watched. Completion is an explicit
// all-or-nothing action: watched seconds and position are set to the
// lesson's full duration. Replaying the action is a no-op that still
// reports current counts.
func (s *ProgressService) CompleteLesson(ctx context.Context, userID, lessonID string) (*CompletionResult, error) {
	lesson, err := s.courses.FindLessonByID(ctx, lessonID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if lesson == nil {
		return nil, apperrors.NotFound("lesson")
	}

	enrolled, err := s.enrolls.Exists(ctx, userID, lesson.CourseID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if !enrolled && !lesson.IsFreePreview {
		return nil, apperrors.NotEnrolled()
	}

	progress, err := s.progress.MarkCompleted(ctx, model.CompleteLessonParams{
		UserID:         userID,
		LessonID:       lessonID,
		WatchedSeconds: lesson.DurationSeconds,
		LastPosition:   lesson.DurationSeconds,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	completed, err := s.progress.CountCompletedInCourse(ctx, userID, lesson.CourseID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	total, err := s.courses.CountLessons(ctx, lesson.CourseID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	result := &CompletionResult{
		Progress:         progress,
		CompletedLessons: completed,
		TotalLessons:     total,
		CourseCompleted:  total > 0 && completed >= total,
	}

	if result.CourseCompleted {
		audit.Log(ctx, audit.Event{
			Type:   audit.EventCourseCompleted,
			UserID: userID,
			Details: map[string]interface{}{
				"course_id": lesson.CourseID,
			},
		})
	}

	log.Debug().
		Str("userId", userID).
		Str("lessonId", lessonID).
		Int("completed", completed).
		Int("total", total).
		Msg("lesson marked complete")

	return result, nil
}

// CourseAccessFor loads the viewer's outline snapshot and evaluates
// unlock state for one course.
func (s *ProgressService) CourseAccessFor(ctx context.Context, userID, courseID string) (*CourseAccess, error) {
	outline, err := s.courses.GetOutline(ctx, courseID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if outline == nil {
		return nil, apperrors.NotFound("course")
	}

	enrolled := false
	var completedIDs, passedIDs []string
	if userID != "" {
		enrolled, err = s.enrolls.Exists(ctx, userID, courseID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
	}
	if enrolled {
		completedIDs, err = s.progress.CompletedLessonIDs(ctx, userID, courseID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		passedIDs, err = s.quizzes.PassedQuizIDs(ctx, userID, courseID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
	}

	access := EvaluateCourseAccess(outline, enrolled, completedIDs, passedIDs)
	return &access, nil
}
