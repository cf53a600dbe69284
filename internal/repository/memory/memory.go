// Package memory holds map-backed repositories with the same contracts as
// the postgres ones. They back unit and end-to-end tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/domain"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/repository"
	"github.com/google/uuid"
)

// Store shares one lock across profiles, tweets and likes so that joins
// and cascades see a consistent view.
type Store struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*domain.Profile
	tweets   map[uuid.UUID]*domain.Tweet
	likes    map[likeKey]time.Time
	PingErr  error
}

type likeKey struct {
	tweetID   uuid.UUID
	profileID uuid.UUID
}

func NewStore() *Store {
	return &Store{
		profiles: make(map[uuid.UUID]*domain.Profile),
		tweets:   make(map[uuid.UUID]*domain.Tweet),
		likes:    make(map[likeKey]time.Time),
	}
}

func (s *Store) Profiles() repository.ProfileRepository { return &profileRepository{s} }
func (s *Store) Tweets() repository.TweetRepository     { return &tweetRepository{s} }
func (s *Store) Likes() repository.LikeRepository       { return &likeRepository{s} }

type profileRepository struct{ s *Store }

func (r *profileRepository) Create(_ context.Context, profile *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.profiles {
		if p.Username == profile.Username {
			return repository.ErrUsernameTaken
		}
		if p.Email == profile.Email {
			return repository.ErrEmailTaken
		}
	}

	stored := *profile
	r.s.profiles[profile.ID] = &stored
	return nil
}

func (r *profileRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.find(func(p *domain.Profile) bool { return p.ID == id })
}

func (r *profileRepository) GetByUsername(_ context.Context, username string) (*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.find(func(p *domain.Profile) bool { return p.Username == username })
}

func (r *profileRepository) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.find(func(p *domain.Profile) bool { return p.Email == email })
}

func (r *profileRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *profileRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *profileRepository) MarkEmailVerified(_ context.Context, id uuid.UUID, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[id]
	if !ok || p.Email != email {
		return false, nil
	}
	p.EmailVerified = true
	return true, nil
}

func (r *profileRepository) Update(_ context.Context, id uuid.UUID, update domain.ProfileUpdate) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile not found: %w", repository.ErrNotFound)
	}
	if update.Bio != nil {
		bio := *update.Bio
		p.Bio = &bio
	}
	if update.AvatarURL != nil {
		if avatar := *update.AvatarURL; avatar != "" {
			p.AvatarURL = &avatar
		} else {
			p.AvatarURL = nil
		}
	}

	out := *p
	return &out, nil
}

func (r *profileRepository) Ping(context.Context) error {
	return r.s.PingErr
}

func (r *profileRepository) find(match func(*domain.Profile) bool) (*domain.Profile, error) {
	for _, p := range r.s.profiles {
		if match(p) {
			out := *p
			return &out, nil
		}
	}
	return nil, fmt.Errorf("profile not found: %w", repository.ErrNotFound)
}

type tweetRepository struct{ s *Store }

func (r *tweetRepository) Create(_ context.Context, tweet *domain.Tweet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[tweet.ProfileID]; !ok {
		return fmt.Errorf("author not found: %w", repository.ErrNotFound)
	}
	stored := *tweet
	r.s.tweets[tweet.ID] = &stored
	return nil
}

func (r *tweetRepository) Feed(_ context.Context, limit, offset int) ([]*domain.TweetWithAuthor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.list(func(*domain.Tweet) bool { return true }, limit, offset), nil
}

func (r *tweetRepository) ListByProfile(_ context.Context, profileID uuid.UUID, limit, offset int) ([]*domain.TweetWithAuthor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.list(func(t *domain.Tweet) bool { return t.ProfileID == profileID }, limit, offset), nil
}

func (r *tweetRepository) Delete(_ context.Context, id, profileID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tweets[id]
	if !ok || t.ProfileID != profileID {
		return false, nil
	}
	delete(r.s.tweets, id)
	for k := range r.s.likes {
		if k.tweetID == id {
			delete(r.s.likes, k)
		}
	}
	return true, nil
}

func (r *tweetRepository) list(match func(*domain.Tweet) bool, limit, offset int) []*domain.TweetWithAuthor {
	var matched []*domain.Tweet
	for _, t := range r.s.tweets {
		if match(t) {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	out := []*domain.TweetWithAuthor{}
	for i := offset; i < len(matched) && len(out) < limit; i++ {
		out = append(out, r.withAuthor(matched[i]))
	}
	return out
}

func (r *tweetRepository) withAuthor(t *domain.Tweet) *domain.TweetWithAuthor {
	out := &domain.TweetWithAuthor{
		ID:        t.ID,
		Content:   t.Content,
		CreatedAt: t.CreatedAt,
		ProfileID: t.ProfileID,
	}
	if p, ok := r.s.profiles[t.ProfileID]; ok {
		out.Author = domain.Author{ID: p.ID, Username: p.Username, AvatarURL: p.AvatarURL}
	}
	return out
}

type likeRepository struct{ s *Store }

func (r *likeRepository) Toggle(_ context.Context, tweetID, profileID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tweets[tweetID]; !ok {
		return false, fmt.Errorf("tweet not found: %w", repository.ErrNotFound)
	}

	key := likeKey{tweetID: tweetID, profileID: profileID}
	if _, ok := r.s.likes[key]; ok {
		delete(r.s.likes, key)
		return false, nil
	}
	r.s.likes[key] = time.Now().UTC()
	return true, nil
}

func (r *likeRepository) Count(_ context.Context, tweetID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.count(tweetID), nil
}

func (r *likeRepository) IsLiked(_ context.Context, tweetID, profileID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.likes[likeKey{tweetID: tweetID, profileID: profileID}]
	return ok, nil
}

func (r *likeRepository) CountMany(_ context.Context, tweetIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[uuid.UUID]int, len(tweetIDs))
	for _, id := range tweetIDs {
		counts[id] = r.count(id)
	}
	return counts, nil
}

func (r *likeRepository) LikedBy(_ context.Context, tweetIDs []uuid.UUID, profileID uuid.UUID) (map[uuid.UUID]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	liked := make(map[uuid.UUID]bool, len(tweetIDs))
	for _, id := range tweetIDs {
		if _, ok := r.s.likes[likeKey{tweetID: id, profileID: profileID}]; ok {
			liked[id] = true
		}
	}
	return liked, nil
}

func (r *likeRepository) count(tweetID uuid.UUID) int {
	n := 0
	for k := range r.s.likes {
		if k.tweetID == tweetID {
			n++
		}
	}
	return n
}
