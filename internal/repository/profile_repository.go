package repository

import (
	"context"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/domain"
	"github.com/google/uuid"
)

type ProfileRepository interface {
	// Create returns ErrUsernameTaken or ErrEmailTaken when a unique
	// constraint rejects the row.
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	GetByUsername(ctx context.Context, username string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// MarkEmailVerified flags the profile as verified only if id and email
	// still belong to the same row. It reports whether a row matched.
	MarkEmailVerified(ctx context.Context, id uuid.UUID, email string) (bool, error)
	Update(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.Profile, error)
	Ping(ctx context.Context) error
}
