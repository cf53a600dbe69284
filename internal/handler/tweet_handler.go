package handler

import (
	"github.com/MartyBonacci/tweeter-gdg-1/internal/logger"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/ratelimit"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/service"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/session"
	"github.com/gofiber/fiber/v2"
)

type TweetHandler struct {
	tweetService *service.TweetService
	sessions     *session.Manager
	limiter      *ratelimit.Limiter
	logger       logger.Logger
}

func NewTweetHandler(tweetService *service.TweetService, sessions *session.Manager, store ratelimit.Store, log logger.Logger) *TweetHandler {
	return &TweetHandler{
		tweetService: tweetService,
		sessions:     sessions,
		limiter:      ratelimit.New(ratelimit.TweetPolicy, store),
		logger:       log.WithFields(map[string]interface{}{"handler": "tweet"}),
	}
}

// Create posts a tweet
// POST /api/tweets
func (h *TweetHandler) Create(c *fiber.Ctx, _ []string) error {
	userID, err := h.sessions.RequireAuth(c)
	if err != nil {
		return err
	}

	if err := checkLimit(c, h.limiter, "Too many tweets. Please slow down.", h.logger); err != nil {
		return err
	}

	var req service.CreateTweetRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	tweet, err := h.tweetService.Create(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(tweet)
}

// Feed lists all tweets
// GET /api/tweets?limit=20&offset=0
func (h *TweetHandler) Feed(c *fiber.Ctx, _ []string) error {
	viewerID, _ := h.sessions.Read(c)

	tweets, err := h.tweetService.Feed(c.UserContext(), pageFromQuery(c), viewerID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"tweets": tweets})
}

// ListByUser lists one user's tweets
// GET /api/tweets/user/:userId
func (h *TweetHandler) ListByUser(c *fiber.Ctx, params []string) error {
	viewerID, _ := h.sessions.Read(c)

	tweets, err := h.tweetService.ListByUser(c.UserContext(), params[0], pageFromQuery(c), viewerID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"tweets": tweets})
}

// Delete removes one of the caller's tweets
// DELETE /api/tweets/:tweetId
func (h *TweetHandler) Delete(c *fiber.Ctx, params []string) error {
	userID, err := h.sessions.RequireAuth(c)
	if err != nil {
		return err
	}

	if err := h.tweetService.Delete(c.UserContext(), params[0], userID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Tweet deleted successfully",
	})
}
