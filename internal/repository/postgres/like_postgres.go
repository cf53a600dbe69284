package postgres

import (
	"context"
	"fmt"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type likeRepository struct {
	db *sqlx.DB
}

func NewLikeRepository(db *sqlx.DB) repository.LikeRepository {
	return &likeRepository{db: db}
}

// Toggle runs in one transaction. The primary key on (tweet_id, profile_id)
// settles concurrent toggles; a duplicate insert is ignored.
func (r *likeRepository) Toggle(ctx context.Context, tweetID, profileID uuid.UUID) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM likes WHERE tweet_id = $1 AND profile_id = $2)`,
		tweetID, profileID)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}

	if exists {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM likes WHERE tweet_id = $1 AND profile_id = $2`,
			tweetID, profileID)
		if err != nil {
			return false, fmt.Errorf("failed to remove like: %w", err)
		}
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO likes (tweet_id, profile_id, created_at) VALUES ($1, $2, NOW())
			ON CONFLICT (tweet_id, profile_id) DO NOTHING`,
			tweetID, profileID)
		if err != nil {
			if code, _ := pqCode(err); code == codeForeignKeyViolation {
				return false, fmt.Errorf("tweet not found: %w", repository.ErrNotFound)
			}
			return false, fmt.Errorf("failed to add like: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit like toggle: %w", err)
	}

	return !exists, nil
}

func (r *likeRepository) Count(ctx context.Context, tweetID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM likes WHERE tweet_id = $1`, tweetID)
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

func (r *likeRepository) IsLiked(ctx context.Context, tweetID, profileID uuid.UUID) (bool, error) {
	var liked bool
	err := r.db.GetContext(ctx, &liked,
		`SELECT EXISTS(SELECT 1 FROM likes WHERE tweet_id = $1 AND profile_id = $2)`,
		tweetID, profileID)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return liked, nil
}

type likeCountRow struct {
	TweetID uuid.UUID `db:"tweet_id"`
	Count   int       `db:"count"`
}

func (r *likeRepository) CountMany(ctx context.Context, tweetIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(tweetIDs))
	if len(tweetIDs) == 0 {
		return counts, nil
	}
	for _, id := range tweetIDs {
		counts[id] = 0
	}

	var rows []likeCountRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT tweet_id, COUNT(*) AS count FROM likes WHERE tweet_id = ANY($1::uuid[]) GROUP BY tweet_id`,
		pq.Array(uuidStrings(tweetIDs)))
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	for _, row := range rows {
		counts[row.TweetID] = row.Count
	}

	return counts, nil
}

func (r *likeRepository) LikedBy(ctx context.Context, tweetIDs []uuid.UUID, profileID uuid.UUID) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool, len(tweetIDs))
	if len(tweetIDs) == 0 {
		return liked, nil
	}

	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids,
		`SELECT tweet_id FROM likes WHERE profile_id = $1 AND tweet_id = ANY($2::uuid[])`,
		profileID, pq.Array(uuidStrings(tweetIDs)))
	if err != nil {
		return nil, fmt.Errorf("failed to list liked tweets: %w", err)
	}

	for _, id := range ids {
		liked[id] = true
	}

	return liked, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
