package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/apperr"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/config"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/domain"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/logger"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/metrics"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/repository"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/email"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/hash"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/jwt"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/validator"
	"github.com/google/uuid"
)

const VerifyEmailPath = "/api/auth/verify-email"

type AuthService struct {
	profileRepo  repository.ProfileRepository
	tokenService *jwt.TokenService
	mailer       email.Sender
	validator    *validator.Validator
	logger       logger.Logger
	cfg          *config.Config
}

type SignupRequest struct {
	Username string `json:"username" validate:"min=3,max=20,username"`
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=8"`
}

type SignupResponse struct {
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"userId"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=8"`
}

func NewAuthService(
	profileRepo repository.ProfileRepository,
	tokenService *jwt.TokenService,
	mailer email.Sender,
	validator *validator.Validator,
	log logger.Logger,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		profileRepo:  profileRepo,
		tokenService: tokenService,
		mailer:       mailer,
		validator:    validator,
		logger:       log.WithFields(map[string]interface{}{"service": "auth"}),
		cfg:          cfg,
	}
}

// Signup creates an unverified profile and emails a verification link
// rooted at baseURL. A failed email does not fail the signup.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest, baseURL string) (*SignupResponse, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	taken, err := s.profileRepo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Domain(MsgUsernameTaken)
	}

	taken, err = s.profileRepo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Domain(MsgEmailTaken)
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate profile id: %w", err)
	}

	profile := &domain.Profile{
		ID:           id,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameTaken):
			return nil, apperr.Domain(MsgUsernameTaken)
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, apperr.Domain(MsgEmailTaken)
		}
		return nil, err
	}

	s.logger.Info("profile created", map[string]interface{}{"userId": id.String()})

	token, err := s.tokenService.GenerateVerificationToken(id.String(), profile.Email)
	if err != nil {
		s.logger.WithError(err).Error("failed to create verification token", map[string]interface{}{"userId": id.String()})
	} else {
		s.sendVerificationEmail(ctx, profile, VerificationURL(baseURL, token))
	}

	return &SignupResponse{
		Message: "Account created. Please check your email to verify.",
		UserID:  id,
	}, nil
}

func (s *AuthService) sendVerificationEmail(ctx context.Context, profile *domain.Profile, verificationURL string) {
	timeout := s.cfg.Email.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.mailer.SendVerificationEmail(sendCtx, profile.Email, verificationURL); err != nil {
		metrics.IncEmail(false)
		s.logger.WithError(err).Warn("failed to send verification email", map[string]interface{}{
			"userId": profile.ID.String(),
		})
		return
	}

	metrics.IncEmail(true)
	s.logger.Debug("verification email sent", map[string]interface{}{"userId": profile.ID.String()})
}

// Login returns the profile for valid credentials of a verified account.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*domain.Profile, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.InvalidCredentials(MsgInvalidCredentials)
		}
		return nil, err
	}

	ok, err := hash.VerifyPassword(req.Password, profile.PasswordHash)
	if err != nil {
		s.logger.WithError(err).Warn("stored password hash is unreadable", map[string]interface{}{
			"userId": profile.ID.String(),
		})
	}
	if !ok {
		return nil, apperr.InvalidCredentials(MsgInvalidCredentials)
	}

	if !profile.EmailVerified {
		return nil, apperr.Domain(MsgEmailNotVerified)
	}

	return profile, nil
}

// VerifyEmail marks the token's profile as verified. Repeating it with the
// same token while unexpired is harmless.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return apperr.Validation(MsgTokenRequired, nil)
	}

	claims, err := s.tokenService.ValidateVerificationToken(token)
	if err != nil {
		return apperr.Domain(MsgInvalidToken)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return apperr.Domain(MsgInvalidToken)
	}

	ok, err := s.profileRepo.MarkEmailVerified(ctx, userID, claims.Email)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Domain(MsgInvalidToken)
	}

	s.logger.Info("email verified", map[string]interface{}{"userId": userID.String()})
	return nil
}

// VerificationURL builds the link sent in the verification email.
func VerificationURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + VerifyEmailPath + "?token=" + url.QueryEscape(token)
}
