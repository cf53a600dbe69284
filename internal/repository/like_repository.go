package repository

import (
	"context"

	"github.com/google/uuid"
)

type LikeRepository interface {
	// Toggle flips the like of profileID on tweetID and reports the new
	// state. ErrNotFound means the tweet does not exist.
	Toggle(ctx context.Context, tweetID, profileID uuid.UUID) (bool, error)
	Count(ctx context.Context, tweetID uuid.UUID) (int, error)
	IsLiked(ctx context.Context, tweetID, profileID uuid.UUID) (bool, error)
	// CountMany returns a count for every id passed, zero included.
	CountMany(ctx context.Context, tweetIDs []uuid.UUID) (map[uuid.UUID]int, error)
	LikedBy(ctx context.Context, tweetIDs []uuid.UUID, profileID uuid.UUID) (map[uuid.UUID]bool, error)
}
