package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/courseloop/academy-server-go/internal/errors"
	"github.com/courseloop/academy-server-go/internal/model"
)

type progressFixture struct {
	svc      *ProgressService
	courses  *fakeCourseRepo
	enrolls  *fakeEnrollmentRepo
	progress *fakeProgressRepo
	quizzes  *fakeQuizRepo
}

func newProgressFixture() *progressFixture {
	f := &progressFixture{
		courses:  newFakeCourseRepo(),
		enrolls:  newFakeEnrollmentRepo(),
		progress: newFakeProgressRepo(),
		quizzes:  newFakeQuizRepo(),
	}
	f.svc = NewProgressService(f.courses, f.enrolls, f.progress, f.quizzes)
	return f
}

func (f *progressFixture) addLesson(id, courseID string, duration int, freePreview bool) {
	f.courses.lessons[id] = &model.Lesson{
		ID:              id,
		CourseID:        courseID,
		DurationSeconds: duration,
		IsFreePreview:   freePreview,
	}
}

func TestCompleteLesson_EnrolledUser(t *testing.T) {
	f := newProgressFixture()
	f.addLesson("l1", "course-1", 300, false)
	f.courses.counts["course-1"] = 2
	f.enrolls.existing[enrollKey("user-1", "course-1")] = true
	f.progress.completed[enrollKey("user-1", "course-1")] = []string{"l1"}

	result, err := f.svc.CompleteLesson(context.Background(), "user-1", "l1")
	require.NoError(t, err)

	assert.True(t, result.Progress.Completed)
	assert.Equal(t, 1, result.CompletedLessons)
	assert.Equal(t, 2, result.TotalLessons)
	assert.False(t, result.CourseCompleted)

	require.Len(t, f.progress.marked, 1)
	assert.Equal(t, 300, f.progress.marked[0].WatchedSeconds, "mark complete fills the full duration")
	assert.Equal(t, 300, f.progress.marked[0].LastPosition)
}

func TestCompleteLesson_LastLessonCompletesCourse(t *testing.T) {
	f := newProgressFixture()
	f.addLesson("l2", "course-1", 120, false)
	f.courses.counts["course-1"] = 2
	f.enrolls.existing[enrollKey("user-1", "course-1")] = true
	f.progress.completed[enrollKey("user-1", "course-1")] = []string{"l1", "l2"}

	result, err := f.svc.CompleteLesson(context.Background(), "user-1", "l2")
	require.NoError(t, err)
	assert.True(t, result.CourseCompleted)
}

func TestCompleteLesson_UnknownLesson(t *testing.T) {
	f := newProgressFixture()
	_, err := f.svc.CompleteLesson(context.Background(), "user-1", "ghost")
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}

func TestCompleteLesson_NotEnrolled(t *testing.T) {
	f := newProgressFixture()
	f.addLesson("l1", "course-1", 300, false)

	_, err := f.svc.CompleteLesson(context.Background(), "user-1", "l1")
	assert.Equal(t, apperrors.ErrCodeNotEnrolled, apperrors.GetCode(err))
}

func TestCompleteLesson_FreePreviewWithoutEnrollment(t *testing.T) {
	f := newProgressFixture()
	f.addLesson("l1", "course-1", 300, true)
	f.courses.counts["course-1"] = 3

	result, err := f.svc.CompleteLesson(context.Background(), "user-1", "l1")
	require.NoError(t, err)
	assert.True(t, result.Progress.Completed)
}

func TestCourseAccessFor(t *testing.T) {
	f := newProgressFixture()
	outline := twoModuleOutline()
	f.courses.outlines["course-1"] = outline
	f.enrolls.existing[enrollKey("user-1", "course-1")] = true
	f.progress.completed[enrollKey("user-1", "course-1")] = []string{"l1", "l2"}
	f.quizzes.passed[enrollKey("user-1", "course-1")] = []string{"q1"}

	access, err := f.svc.CourseAccessFor(context.Background(), "user-1", "course-1")
	require.NoError(t, err)

	assert.True(t, access.Enrolled)
	assert.Equal(t, 2, access.CompletedLessons)
	q1 := quizByID(t, *access, "q1")
	assert.True(t, q1.Passed)
}

func TestCourseAccessFor_UnknownCourse(t *testing.T) {
	f := newProgressFixture()
	_, err := f.svc.CourseAccessFor(context.Background(), "user-1", "ghost")
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}

func TestCourseAccessFor_AnonymousViewer(t *testing.T) {
	f := newProgressFixture()
	f.courses.outlines["course-1"] = twoModuleOutline()

	access, err := f.svc.CourseAccessFor(context.Background(), "", "course-1")
	require.NoError(t, err)
	assert.False(t, access.Enrolled)
	assert.Empty(t, access.FinalExams)
}
