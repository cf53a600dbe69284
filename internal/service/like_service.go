package service

import (
	"context"
	"errors"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/apperr"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/domain"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/repository"
	"github.com/google/uuid"
)

type LikeService struct {
	likeRepo repository.LikeRepository
}

func NewLikeService(likeRepo repository.LikeRepository) *LikeService {
	return &LikeService{likeRepo: likeRepo}
}

// Toggle likes the tweet if the caller has not, otherwise unlikes it, and
// returns the resulting state with a fresh count.
func (s *LikeService) Toggle(ctx context.Context, tweetID, profileID string) (*domain.LikeStatus, error) {
	id, err := uuid.Parse(tweetID)
	if err != nil {
		return nil, apperr.NotFound(MsgTweetNotFound)
	}
	viewer, err := uuid.Parse(profileID)
	if err != nil {
		return nil, apperr.NotFound(MsgProfileNotFound)
	}

	liked, err := s.likeRepo.Toggle(ctx, id, viewer)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(MsgTweetNotFound)
		}
		return nil, err
	}

	count, err := s.likeRepo.Count(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.LikeStatus{Liked: liked, LikeCount: count}, nil
}

// Status reports the like count and, for a known viewer, whether they like
// the tweet. An unknown but well-formed tweet id has zero likes.
func (s *LikeService) Status(ctx context.Context, tweetID, viewerID string) (*domain.LikeStatus, error) {
	id, err := uuid.Parse(tweetID)
	if err != nil {
		return nil, apperr.NotFound(MsgTweetNotFound)
	}

	count, err := s.likeRepo.Count(ctx, id)
	if err != nil {
		return nil, err
	}

	status := &domain.LikeStatus{LikeCount: count}
	if viewer, err := uuid.Parse(viewerID); err == nil {
		status.Liked, err = s.likeRepo.IsLiked(ctx, id, viewer)
		if err != nil {
			return nil, err
		}
	}

	return status, nil
}
