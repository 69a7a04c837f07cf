package models

import "time"

// User describes a registered account. The email verification and password reset
// tokens live on the row so consuming them is a matter of clearing the column.
type User struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Name     string `json:"name,omitempty"`

	EmailVerifiedAt        *time.Time `json:"email_verified_at,omitempty"`
	EmailVerificationToken *string    `json:"-"`

	PasswordResetToken   *string    `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
}

// Verified reports whether the account's email address has been confirmed.
func (u *User) Verified() bool {
	return u != nil && u.EmailVerifiedAt != nil
}
