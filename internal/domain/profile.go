package domain

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Username      string    `json:"username" db:"username"`
	Email         string    `json:"email" db:"email"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	EmailVerified bool      `json:"emailVerified" db:"email_verified"`
	Bio           *string   `json:"bio" db:"bio"`
	AvatarURL     *string   `json:"avatarUrl" db:"avatar_url"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// PublicProfile is the profile as shown to any caller. It never carries
// the email address or credentials.
type PublicProfile struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Bio       *string   `json:"bio"`
	AvatarURL *string   `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *Profile) Public() *PublicProfile {
	return &PublicProfile{
		ID:        p.ID,
		Username:  p.Username,
		Bio:       p.Bio,
		AvatarURL: p.AvatarURL,
		CreatedAt: p.CreatedAt,
	}
}

// ProfileUpdate holds optional changes; nil fields are left untouched.
type ProfileUpdate struct {
	Bio       *string
	AvatarURL *string
}

func (u ProfileUpdate) IsEmpty() bool {
	return u.Bio == nil && u.AvatarURL == nil
}
