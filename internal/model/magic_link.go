package model

import "time"

// MagicLinkToken is a single-use sign-in credential. Only the SHA-256
// hash of the raw token is stored.
type MagicLinkToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"userId"`
	TokenHash string     `db:"token_hash" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	UsedAt    *time.Time `db:"used_at" json:"usedAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

func (t *MagicLinkToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

type CreateMagicLinkTokenParams struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
}
