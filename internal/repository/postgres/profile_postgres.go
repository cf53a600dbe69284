package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/domain"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const profileColumns = `id, username, email, password_hash, email_verified, bio, avatar_url, created_at`

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, username, email, password_hash, email_verified, bio, avatar_url, created_at)
		VALUES (:id, :username, :email, :password_hash, :email_verified, :bio, :avatar_url, :created_at)`

	_, err := r.db.NamedExecContext(ctx, query, profile)
	if err != nil {
		if code, constraint := pqCode(err); code == codeUniqueViolation {
			switch constraint {
			case constraintUsernameUnique:
				return repository.ErrUsernameTaken
			case constraintEmailUnique:
				return repository.ErrEmailTaken
			}
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
}

func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE username = $1`, username)
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email)
}

func (r *profileRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.db.GetContext(ctx, &profile, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM profiles WHERE username = $1)`, username)
}

func (r *profileRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM profiles WHERE email = $1)`, email)
}

func (r *profileRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, arg); err != nil {
		return false, fmt.Errorf("failed to check profile existence: %w", err)
	}
	return exists, nil
}

func (r *profileRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID, email string) (bool, error) {
	query := `UPDATE profiles SET email_verified = true WHERE id = $1 AND email = $2`

	result, err := r.db.ExecContext(ctx, query, id, email)
	if err != nil {
		return false, fmt.Errorf("failed to verify email: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// Update applies the non-nil fields of update and returns the stored row.
func (r *profileRepository) Update(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.Profile, error) {
	if update.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	// An empty avatar URL clears the column.
	query := `
		UPDATE profiles
		SET bio = COALESCE($2, bio),
			avatar_url = CASE WHEN $3::text IS NULL THEN avatar_url ELSE NULLIF($3::text, '') END
		WHERE id = $1
		RETURNING ` + profileColumns

	var profile domain.Profile
	err := r.db.GetContext(ctx, &profile, query, id, update.Bio, update.AvatarURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile not found: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return &profile, nil
}

func (r *profileRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
