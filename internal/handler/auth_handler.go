package handler

import (
	"github.com/MartyBonacci/tweeter-gdg-1/internal/config"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/logger"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/ratelimit"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/service"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/session"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService   *service.AuthService
	sessions      *session.Manager
	signupLimiter *ratelimit.Limiter
	loginLimiter  *ratelimit.Limiter
	cfg           *config.Config
	logger        logger.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	sessions *session.Manager,
	store ratelimit.Store,
	cfg *config.Config,
	log logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		sessions:      sessions,
		signupLimiter: ratelimit.New(ratelimit.SignupPolicy, store),
		loginLimiter:  ratelimit.New(ratelimit.LoginPolicy, store),
		cfg:           cfg,
		logger:        log.WithFields(map[string]interface{}{"handler": "auth"}),
	}
}

// Signup handles account creation
// POST /api/auth/signup
func (h *AuthHandler) Signup(c *fiber.Ctx, _ []string) error {
	if err := checkLimit(c, h.signupLimiter, "Too many signup attempts. Please try again later.", h.logger); err != nil {
		return err
	}

	var req service.SignupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Signup(c.UserContext(), req, h.baseURL(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles credential login and redirects with a session cookie
// POST /api/auth/login?redirectTo=/path
func (h *AuthHandler) Login(c *fiber.Ctx, _ []string) error {
	if err := checkLimit(c, h.loginLimiter, "Too many login attempts. Please try again later.", h.logger); err != nil {
		return err
	}

	var req service.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	profile, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return err
	}

	if err := h.sessions.Commit(c, profile.ID.String()); err != nil {
		return err
	}

	return c.Redirect(safeRedirect(c.Query("redirectTo")), fiber.StatusFound)
}

// Logout clears the session cookie
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx, _ []string) error {
	if _, err := h.sessions.RequireAuth(c); err != nil {
		return err
	}

	h.sessions.Destroy(c)
	return c.Redirect(session.LoginPath, fiber.StatusFound)
}

// VerifyEmail handles the link from the verification email
// GET /api/auth/verify-email?token=xxx
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx, _ []string) error {
	if err := h.authService.VerifyEmail(c.UserContext(), c.Query("token")); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Email verified successfully. You can now log in.",
	})
}

func (h *AuthHandler) baseURL(c *fiber.Ctx) string {
	if h.cfg.Server.BaseURL != "" {
		return h.cfg.Server.BaseURL
	}
	return getOriginFromRequest(c)
}
