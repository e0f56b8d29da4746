package model

import (
	"encoding/json"
	"time"
)

// EnrollmentSource identifies how an enrollment was granted.
type EnrollmentSource string

const (
	EnrollmentSourceWebhook   EnrollmentSource = "commerce-webhook"
	EnrollmentSourceManual    EnrollmentSource = "manual"
	EnrollmentSourceCSVImport EnrollmentSource = "csv-import"
)

type Enrollment struct {
	ID                    string           `db:"id" json:"id"`
	UserID                string           `db:"user_id" json:"userId"`
	CourseID              string           `db:"course_id" json:"courseId"`
	Source                EnrollmentSource `db:"source" json:"source"`
	ExternalTransactionID *string          `db:"external_transaction_id" json:"externalTransactionId,omitempty"`
	Metadata              *json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	EnrolledAt            time.Time        `db:"enrolled_at" json:"enrolledAt"`
}

type CreateEnrollmentParams struct {
	UserID                string
	CourseID              string
	Source                EnrollmentSource
	ExternalTransactionID *string
	Metadata              *json.RawMessage
}
