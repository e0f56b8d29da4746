package model

import "time"

type LessonProgress struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"userId"`
	LessonID       string     `db:"lesson_id" json:"lessonId"`
	Completed      bool       `db:"completed" json:"completed"`
	CompletedAt    *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	WatchedSeconds int        `db:"watched_seconds" json:"watchedSeconds"`
	LastPosition   int        `db:"last_position" json:"lastPosition"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

type CompleteLessonParams struct {
	UserID         string
	LessonID       string
	WatchedSeconds int
	LastPosition   int
}
