package repository

import (
	"context"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/domain"
	"github.com/google/uuid"
)

type TweetRepository interface {
	Create(ctx context.Context, tweet *domain.Tweet) error
	// Feed lists all tweets, newest first.
	Feed(ctx context.Context, limit, offset int) ([]*domain.TweetWithAuthor, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]*domain.TweetWithAuthor, error)
	// Delete removes the tweet only when profileID is its author. A missing
	// tweet and a foreign tweet both report false.
	Delete(ctx context.Context, id, profileID uuid.UUID) (bool, error)
}
