package model

import "time"

type Course struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	IsPublished bool      `db:"is_published" json:"isPublished"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type Module struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"courseId"`
	Title     string    `db:"title" json:"title"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Lesson struct {
	ID              string    `db:"id" json:"id"`
	ModuleID        string    `db:"module_id" json:"moduleId"`
	CourseID        string    `db:"course_id" json:"courseId"`
	Title           string    `db:"title" json:"title"`
	DurationSeconds int       `db:"duration_seconds" json:"durationSeconds"`
	IsFreePreview   bool      `db:"is_free_preview" json:"isFreePreview"`
	Position        int       `db:"position" json:"position"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// CourseOutline is the ordered content hierarchy of a single course,
// the input snapshot for unlock evaluation.
type CourseOutline struct {
	Course  Course
	Modules []ModuleOutline
	Quizzes []Quiz
}

// ModuleOutline is a module with its ordered lessons.
type ModuleOutline struct {
	Module  Module
	Lessons []Lesson
}

// LessonCount returns the total number of lessons across all modules.
func (o *CourseOutline) LessonCount() int {
	n := 0
	for _, m := range o.Modules {
		n += len(m.Lessons)
	}
	return n
}
