package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/apperr"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/domain"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/logger"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/metrics"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/repository"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/upload"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/validator"
	"github.com/google/uuid"
)

// MaxAvatarSize is the largest accepted avatar upload in bytes.
const MaxAvatarSize = 5 * 1024 * 1024

var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

type ProfileService struct {
	profileRepo repository.ProfileRepository
	images      upload.ImageHost
	validator   *validator.Validator
	logger      logger.Logger
}

type UpdateProfileRequest struct {
	Bio       *string `json:"bio" validate:"omitempty,max=160"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,url|len=0"`
}

// AvatarFile is an uploaded avatar before it reaches the image host.
type AvatarFile struct {
	Content     io.Reader
	Size        int64
	ContentType string
}

func NewProfileService(
	profileRepo repository.ProfileRepository,
	images upload.ImageHost,
	validator *validator.Validator,
	log logger.Logger,
) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		images:      images,
		validator:   validator,
		logger:      log.WithFields(map[string]interface{}{"service": "profile"}),
	}
}

func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*domain.PublicProfile, error) {
	profile, err := s.profileRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(MsgUserNotFound)
		}
		return nil, err
	}
	return profile.Public(), nil
}

func (s *ProfileService) GetOwn(ctx context.Context, profileID string) (*domain.PublicProfile, error) {
	profile, err := s.load(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return profile.Public(), nil
}

func (s *ProfileService) load(ctx context.Context, profileID string) (*domain.Profile, error) {
	id, err := uuid.Parse(profileID)
	if err != nil {
		return nil, apperr.NotFound(MsgProfileNotFound)
	}

	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(MsgProfileNotFound)
		}
		return nil, err
	}
	return profile, nil
}

// Update applies the fields present in req and leaves the rest untouched.
// An empty avatarUrl clears the avatar.
func (s *ProfileService) Update(ctx context.Context, profileID string, req UpdateProfileRequest) (*domain.PublicProfile, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(profileID)
	if err != nil {
		return nil, apperr.NotFound(MsgProfileNotFound)
	}

	profile, err := s.profileRepo.Update(ctx, id, domain.ProfileUpdate{
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound(MsgProfileNotFound)
		}
		return nil, err
	}
	return profile.Public(), nil
}

// UploadAvatar stores a new avatar, points the profile at it and then
// removes the previous image from the host on a best-effort basis.
func (s *ProfileService) UploadAvatar(ctx context.Context, profileID string, file *AvatarFile) (*domain.PublicProfile, error) {
	if file == nil || file.Content == nil {
		return nil, apperr.Validation(MsgNoFile, nil)
	}
	if file.Size > MaxAvatarSize {
		return nil, apperr.Validation(MsgFileTooLarge, nil)
	}
	if !allowedAvatarTypes[strings.ToLower(file.ContentType)] {
		return nil, apperr.Validation(MsgInvalidFileType, nil)
	}

	current, err := s.load(ctx, profileID)
	if err != nil {
		return nil, err
	}

	image, err := s.images.UploadAvatar(ctx, file.Content)
	if err != nil {
		metrics.IncAvatarUpload(false)
		return nil, apperr.Upstream(MsgUploadFailed, err)
	}
	metrics.IncAvatarUpload(true)

	updated, err := s.profileRepo.Update(ctx, current.ID, domain.ProfileUpdate{AvatarURL: &image.URL})
	if err != nil {
		return nil, err
	}

	if current.AvatarURL != nil {
		s.deleteImage(ctx, current.ID, *current.AvatarURL)
	}

	s.logger.Info("avatar updated", map[string]interface{}{"userId": current.ID.String()})
	return updated.Public(), nil
}

func (s *ProfileService) deleteImage(ctx context.Context, profileID uuid.UUID, url string) {
	publicID, ok := upload.PublicIDFromURL(url)
	if !ok {
		return
	}
	if err := s.images.Delete(ctx, publicID); err != nil {
		s.logger.WithError(err).Warn("failed to delete previous avatar", map[string]interface{}{
			"userId":   profileID.String(),
			"publicId": publicID,
		})
	}
}
