package model

import "time"

// ProductMapping translates an external commerce product identifier into
// course access. Maintained by the surrounding application; read-only here.
type ProductMapping struct {
	ID        string    `db:"id" json:"id"`
	ProductID string    `db:"product_id" json:"productId"`
	CourseID  *string   `db:"course_id" json:"courseId,omitempty"`
	GrantAll  bool      `db:"grant_all" json:"grantAll"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
