package service

import "github.com/courseloop/academy-server-go/internal/model"

// QuizAccess describes the computed availability of one quiz or exam.
type QuizAccess struct {
	Quiz     model.Quiz `json:"quiz"`
	Unlocked bool       `json:"unlocked"`
	Passed   bool       `json:"passed"`
}

// LessonAccess describes one lesson together with the viewer's completion.
type LessonAccess struct {
	Lesson    model.Lesson `json:"lesson"`
	Completed bool         `json:"completed"`
}

// ModuleAccess is the per-module slice of a course access view.
type ModuleAccess struct {
	Module  model.Module   `json:"module"`
	Lessons []LessonAccess `json:"lessons"`
	Quizzes []QuizAccess   `json:"quizzes"`
}

// CourseAccess is the full computed access state for one viewer and course.
type CourseAccess struct {
	Course           model.Course `json:"course"`
	Enrolled         bool         `json:"enrolled"`
	Modules          []ModuleAccess `json:"modules"`
	FinalExams       []QuizAccess   `json:"finalExams"`
	CompletedLessons int            `json:"completedLessons"`
	TotalLessons     int            `json:"totalLessons"`
}

// EvaluateCourseAccess computes which lessons, module quizzes and final
// exams are currently available. It is a pure function over a snapshot:
// the ordered course outline, the viewer's completed-lesson set, and the
// set of quizzes the viewer has passed. Nothing is cached or stored; the
// caller re-evaluates on every read.
//
// Rules:
//   - A module's quiz unlocks only when every lesson in that module and
//     in every earlier module is completed (prefix closure).
//   - A final exam unlocks when every lesson in the course is completed,
//     regardless of quiz results.
//   - Anything already passed stays visible as passed.
//   - Without an enrollment, only free-preview lessons are listed and no
//     quiz or exam appears at all.
func EvaluateCourseAccess(
	outline *model.CourseOutline,
	enrolled bool,
	completedLessonIDs []string,
	passedQuizIDs []string,
) CourseAccess {
	completed := toSet(completedLessonIDs)
	passed := toSet(passedQuizIDs)

	access := CourseAccess{
		Course:       outline.Course,
		Enrolled:     enrolled,
		TotalLessons: outline.LessonCount(),
	}

	if !enrolled {
		for _, mo := range outline.Modules {
			ma := ModuleAccess{Module: mo.Module}
			for _, l := range mo.Lessons {
				if l.IsFreePreview {
					ma.Lessons = append(ma.Lessons, LessonAccess{Lesson: l})
				}
			}
			access.Modules = append(access.Modules, ma)
		}
		return access
	}

	quizzesByModule := make(map[string][]model.Quiz)
	var finalExams []model.Quiz
	for _, q := range outline.Quizzes {
		if q.IsFinalExam {
			finalExams = append(finalExams, q)
			continue
		}
		if q.ModuleID != nil {
			quizzesByModule[*q.ModuleID] = append(quizzesByModule[*q.ModuleID], q)
		}
	}

	// A course with no lessons has nothing to complete; completion-based
	// unlocks stay closed instead of opening vacuously.
	hasLessons := access.TotalLessons > 0

	prefixComplete := true
	allComplete := true
	for _, mo := range outline.Modules {
		ma := ModuleAccess{Module: mo.Module}

		moduleComplete := true
		for _, l := range mo.Lessons {
			done := completed[l.ID]
			if done {
				access.CompletedLessons++
			} else {
				moduleComplete = false
			}
			ma.Lessons = append(ma.Lessons, LessonAccess{Lesson: l, Completed: done})
		}
		if !moduleComplete {
			allComplete = false
		}
		prefixComplete = prefixComplete && moduleComplete

		for _, q := range quizzesByModule[mo.Module.ID] {
			ma.Quizzes = append(ma.Quizzes, QuizAccess{
				Quiz:     q,
				Unlocked: (hasLessons && prefixComplete) || passed[q.ID],
				Passed:   passed[q.ID],
			})
		}

		access.Modules = append(access.Modules, ma)
	}

	for _, q := range finalExams {
		access.FinalExams = append(access.FinalExams, QuizAccess{
			Quiz:     q,
			Unlocked: (hasLessons && allComplete) || passed[q.ID],
			Passed:   passed[q.ID],
		})
	}

	return access
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
