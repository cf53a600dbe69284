package domain

import (
	"time"

	"github.com/google/uuid"
)

type Tweet struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProfileID uuid.UUID `json:"profileId" db:"profile_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Author struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	AvatarURL *string   `json:"avatarUrl" db:"avatar_url"`
}

// TweetWithAuthor is a feed entry. LikeCount and IsLiked are filled in by
// the service after the page is loaded.
type TweetWithAuthor struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ProfileID uuid.UUID `json:"profileId" db:"profile_id"`
	Author    Author    `json:"author" db:"author"`
	LikeCount int       `json:"likeCount" db:"-"`
	IsLiked   bool      `json:"isLiked" db:"-"`
}

// LikeStatus is the state of one tweet's likes from a viewer's perspective.
type LikeStatus struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}
