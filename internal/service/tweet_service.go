package service

import (
	"context"
	"errors"
	"time"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/apperr"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/domain"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/logger"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/repository"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/validator"
	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type TweetService struct {
	tweetRepo repository.TweetRepository
	likeRepo  repository.LikeRepository
	validator *validator.Validator
	logger    logger.Logger
}

type CreateTweetRequest struct {
	Content string `json:"content" validate:"min=1,max=140"`
}

// Page is a limit/offset window over a newest-first listing.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the limit to [1, MaxPageLimit] and the offset to >= 0.
func (p Page) Normalize() Page {
	if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func NewTweetService(
	tweetRepo repository.TweetRepository,
	likeRepo repository.LikeRepository,
	validator *validator.Validator,
	log logger.Logger,
) *TweetService {
	return &TweetService{
		tweetRepo: tweetRepo,
		likeRepo:  likeRepo,
		validator: validator,
		logger:    log.WithFields(map[string]interface{}{"service": "tweet"}),
	}
}

func (s *TweetService) Create(ctx context.Context, profileID string, req CreateTweetRequest) (*domain.Tweet, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	authorID, err := uuid.Parse(profileID)
	if err != nil {
		return nil, apperr.NotFound(MsgProfileNotFound)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	tweet := &domain.Tweet{
		ID:        id,
		ProfileID: authorID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.tweetRepo.Create(ctx, tweet); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(MsgProfileNotFound)
		}
		return nil, err
	}

	return tweet, nil
}

// Feed lists every tweet newest first. viewerID may be empty for an
// anonymous caller, in which case no tweet is marked as liked.
func (s *TweetService) Feed(ctx context.Context, page Page, viewerID string) ([]*domain.TweetWithAuthor, error) {
	page = page.Normalize()

	tweets, err := s.tweetRepo.Feed(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	if err := s.annotate(ctx, tweets, viewerID); err != nil {
		return nil, err
	}
	return tweets, nil
}

// ListByUser lists one author's tweets. A malformed user id matches no
// author and yields an empty list.
func (s *TweetService) ListByUser(ctx context.Context, userID string, page Page, viewerID string) ([]*domain.TweetWithAuthor, error) {
	page = page.Normalize()

	authorID, err := uuid.Parse(userID)
	if err != nil {
		return []*domain.TweetWithAuthor{}, nil
	}

	tweets, err := s.tweetRepo.ListByProfile(ctx, authorID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}

	if err := s.annotate(ctx, tweets, viewerID); err != nil {
		return nil, err
	}
	return tweets, nil
}

// Delete removes the caller's own tweet. Missing, foreign and malformed
// ids all produce the same not-found error.
func (s *TweetService) Delete(ctx context.Context, tweetID, profileID string) error {
	id, err := uuid.Parse(tweetID)
	if err != nil {
		return apperr.NotFound(MsgTweetNotDeletable)
	}
	author, err := uuid.Parse(profileID)
	if err != nil {
		return apperr.NotFound(MsgTweetNotDeletable)
	}

	deleted, err := s.tweetRepo.Delete(ctx, id, author)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound(MsgTweetNotDeletable)
	}

	s.logger.Info("tweet deleted", map[string]interface{}{"tweetId": id.String(), "userId": author.String()})
	return nil
}

func (s *TweetService) annotate(ctx context.Context, tweets []*domain.TweetWithAuthor, viewerID string) error {
	if len(tweets) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(tweets))
	for i, t := range tweets {
		ids[i] = t.ID
	}

	counts, err := s.likeRepo.CountMany(ctx, ids)
	if err != nil {
		return err
	}

	var liked map[uuid.UUID]bool
	if viewer, err := uuid.Parse(viewerID); err == nil {
		liked, err = s.likeRepo.LikedBy(ctx, ids, viewer)
		if err != nil {
			return err
		}
	}

	for _, t := range tweets {
		t.LikeCount = counts[t.ID]
		t.IsLiked = liked[t.ID]
	}
	return nil
}
