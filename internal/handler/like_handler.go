package handler

import (
	"github.com/MartyBonacci/tweeter-gdg-1/internal/service"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/session"
	"github.com/gofiber/fiber/v2"
)

type LikeHandler struct {
	likeService *service.LikeService
	sessions    *session.Manager
}

func NewLikeHandler(likeService *service.LikeService, sessions *session.Manager) *LikeHandler {
	return &LikeHandler{likeService: likeService, sessions: sessions}
}

// Toggle likes or unlikes a tweet
// POST /api/likes/:tweetId
func (h *LikeHandler) Toggle(c *fiber.Ctx, params []string) error {
	userID, err := h.sessions.RequireAuth(c)
	if err != nil {
		return err
	}

	status, err := h.likeService.Toggle(c.UserContext(), params[0], userID)
	if err != nil {
		return err
	}

	message := "Tweet unliked"
	if status.Liked {
		message = "Tweet liked"
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"liked":     status.Liked,
		"likeCount": status.LikeCount,
		"message":   message,
	})
}

// Status reports a tweet's likes; the session is optional
// GET /api/likes/:tweetId
func (h *LikeHandler) Status(c *fiber.Ctx, params []string) error {
	viewerID, _ := h.sessions.Read(c)

	status, err := h.likeService.Status(c.UserContext(), params[0], viewerID)
	if err != nil {
		return err
	}

	return c.JSON(status)
}
