package model

import "time"

type User struct {
	ID                string    `db:"id" json:"id"`
	Email             string    `db:"email" json:"email"`
	Name              string    `db:"name" json:"name"`
	PasswordHash      *string   `db:"password_hash" json:"-"`
	ExternalContactID *string   `db:"external_contact_id" json:"externalContactId,omitempty"`
	EmailVerified     bool      `db:"email_verified" json:"emailVerified"`
	MustSetPassword   bool      `db:"must_set_password" json:"mustSetPassword"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// HasPassword reports whether the user has completed credential setup.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

type CreateUserParams struct {
	Email             string
	Name              string
	ExternalContactID *string
	MustSetPassword   bool
}
