package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/courseloop/academy-server-go/internal/database"
	"github.com/courseloop/academy-server-go/internal/model"
)

type CourseRepository interface {
	FindByID(ctx context.Context, id string) (*model.Course, error)
	ListPublished(ctx context.Context) ([]model.Course, error)
	FindLessonByID(ctx context.Context, id string) (*model.Lesson, error)
	CountLessons(ctx context.Context, courseID string) (int, error)
	// GetOutline loads the full ordered content hierarchy of a course:
	// modules with their lessons, plus the course's quizzes.
	GetOutline(ctx context.Context, courseID string) (*model.CourseOutline, error)
}

type courseRepo struct {
	db database.DBTX
}

func NewCourseRepository(db *sqlx.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) FindByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.GetContext(ctx, &course, `
		SELECT * FROM courses WHERE id = $1
	`, id)
	return HandleNotFound(&course, err)
}

func (r *courseRepo) ListPublished(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.SelectContext(ctx, &courses, `
		SELECT * FROM courses
		WHERE is_published = TRUE
		ORDER BY created_at
	`)
	return courses, err
}

func (r *courseRepo) FindLessonByID(ctx context.Context, id string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.db.GetContext(ctx, &lesson, `
		SELECT * FROM lessons WHERE id = $1
	`, id)
	return HandleNotFound(&lesson, err)
}

func (r *courseRepo) CountLessons(ctx context.Context, courseID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM lessons WHERE course_id = $1
	`, courseID)
	return count, err
}

func (r *courseRepo) GetOutline(ctx context.Context, courseID string) (*model.CourseOutline, error) {
	course, err := r.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, nil
	}

	var modules []model.Module
	err = r.db.SelectContext(ctx, &modules, `
		SELECT * FROM course_modules
		WHERE course_id = $1
		ORDER BY position, created_at
	`, courseID)
	if err != nil {
		return nil, err
	}

	var lessons []model.Lesson
	err = r.db.SelectContext(ctx, &lessons, `
		SELECT * FROM lessons
		WHERE course_id = $1
		ORDER BY position, created_at
	`, courseID)
	if err != nil {
		return nil, err
	}

	var quizzes []model.Quiz
	err = r.db.SelectContext(ctx, &quizzes, `
		SELECT * FROM quizzes
		WHERE course_id = $1
		ORDER BY created_at
	`, courseID)
	if err != nil {
		return nil, err
	}

	lessonsByModule := make(map[string][]model.Lesson, len(modules))
	for _, l := range lessons {
		lessonsByModule[l.ModuleID] = append(lessonsByModule[l.ModuleID], l)
	}

	outline := &model.CourseOutline{
		Course:  *course,
		Modules: make([]model.ModuleOutline, 0, len(modules)),
		Quizzes: quizzes,
	}
	for _, m := range modules {
		outline.Modules = append(outline.Modules, model.ModuleOutline{
			Module:  m,
			Lessons: lessonsByModule[m.ID],
		})
	}

	return outline, nil
}
