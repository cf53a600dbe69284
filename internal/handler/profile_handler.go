package handler

import (
	"github.com/MartyBonacci/tweeter-gdg-1/internal/service"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/session"
	"github.com/gofiber/fiber/v2"
)

const avatarField = "avatar"

type ProfileHandler struct {
	profileService *service.ProfileService
	sessions       *session.Manager
}

func NewProfileHandler(profileService *service.ProfileService, sessions *session.Manager) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, sessions: sessions}
}

// GetOwn returns the caller's profile
// GET /api/profile/me
func (h *ProfileHandler) GetOwn(c *fiber.Ctx, _ []string) error {
	userID, err := h.sessions.RequireAuth(c)
	if err != nil {
		return err
	}

	profile, err := h.profileService.GetOwn(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"profile": profile})
}

// GetByUsername returns a public profile
// GET /api/profile/:username
func (h *ProfileHandler) GetByUsername(c *fiber.Ctx, params []string) error {
	profile, err := h.profileService.GetByUsername(c.UserContext(), params[0])
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"profile": profile})
}

// Update changes bio and avatar URL
// PATCH /api/profile
func (h *ProfileHandler) Update(c *fiber.Ctx, _ []string) error {
	userID, err := h.sessions.RequireAuth(c)
	if err != nil {
		return err
	}

	var req service.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	profile, err := h.profileService.Update(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"profile": profile})
}

// UploadAvatar replaces the avatar from a multipart "avatar" field
// POST /api/profile/avatar
func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx, _ []string) error {
	userID, err := h.sessions.RequireAuth(c)
	if err != nil {
		return err
	}

	var file *service.AvatarFile
	if header, err := c.FormFile(avatarField); err == nil {
		f, err := header.Open()
		if err != nil {
			return err
		}
		defer f.Close()

		file = &service.AvatarFile{
			Content:     f,
			Size:        header.Size,
			ContentType: header.Header.Get(fiber.HeaderContentType),
		}
	}

	profile, err := h.profileService.UploadAvatar(c.UserContext(), userID, file)
	if err != nil {
		return err
	}

	var avatarURL string
	if profile.AvatarURL != nil {
		avatarURL = *profile.AvatarURL
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"avatarUrl": avatarURL,
		"profile":   profile,
	})
}
