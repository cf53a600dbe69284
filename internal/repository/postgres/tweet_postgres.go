package postgres

import (
	"context"
	"fmt"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/domain"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const tweetWithAuthorSelect = `
		SELECT t.id, t.content, t.created_at, t.profile_id,
			p.id AS "author.id", p.username AS "author.username", p.avatar_url AS "author.avatar_url"
		FROM tweets t
		INNER JOIN profiles p ON p.id = t.profile_id`

type tweetRepository struct {
	db *sqlx.DB
}

func NewTweetRepository(db *sqlx.DB) repository.TweetRepository {
	return &tweetRepository{db: db}
}

func (r *tweetRepository) Create(ctx context.Context, tweet *domain.Tweet) error {
	query := `
		INSERT INTO tweets (id, profile_id, content, created_at)
		VALUES (:id, :profile_id, :content, :created_at)`

	_, err := r.db.NamedExecContext(ctx, query, tweet)
	if err != nil {
		if code, _ := pqCode(err); code == codeForeignKeyViolation {
			return fmt.Errorf("author profile missing: %w", repository.ErrNotFound)
		}
		return fmt.Errorf("failed to create tweet: %w", err)
	}

	return nil
}

func (r *tweetRepository) Feed(ctx context.Context, limit, offset int) ([]*domain.TweetWithAuthor, error) {
	query := tweetWithAuthorSelect + `
		ORDER BY t.created_at DESC
		LIMIT $1 OFFSET $2`

	tweets := []*domain.TweetWithAuthor{}
	if err := r.db.SelectContext(ctx, &tweets, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}

	return tweets, nil
}

func (r *tweetRepository) ListByProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]*domain.TweetWithAuthor, error) {
	query := tweetWithAuthorSelect + `
		WHERE t.profile_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3`

	tweets := []*domain.TweetWithAuthor{}
	if err := r.db.SelectContext(ctx, &tweets, query, profileID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list tweets by profile: %w", err)
	}

	return tweets, nil
}

func (r *tweetRepository) Delete(ctx context.Context, id, profileID uuid.UUID) (bool, error) {
	query := `DELETE FROM tweets WHERE id = $1 AND profile_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, profileID)
	if err != nil {
		return false, fmt.Errorf("failed to delete tweet: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}
