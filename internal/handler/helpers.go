package handler

import (
	"net/url"
	"strings"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/apperr"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/logger"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/ratelimit"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/service"
	"github.com/gofiber/fiber/v2"
)

const (
	msgInvalidBody    = "Invalid request body"
	defaultAfterLogin = "/home"
)

// getOriginFromRequest extracts the origin from multiple sources (fallback chain)
// Priority: Origin header > Referer header > Host header
func getOriginFromRequest(c *fiber.Ctx) string {
	if origin := c.Get(fiber.HeaderOrigin); origin != "" {
		return origin
	}

	if referer := c.Get(fiber.HeaderReferer); referer != "" {
		if parsedURL, err := url.Parse(referer); err == nil && parsedURL.Host != "" {
			return parsedURL.Scheme + "://" + parsedURL.Host
		}
	}

	host := c.Get(fiber.HeaderHost)
	if host == "" {
		host = c.Hostname()
	}
	if host == "" {
		return ""
	}

	scheme := "http"
	if c.Protocol() == "https" || c.Get(fiber.HeaderXForwardedProto) == "https" {
		scheme = "https"
	}
	return scheme + "://" + host
}

// clientKey is the rate limit key of the caller.
func clientKey(c *fiber.Ctx) string {
	return ratelimit.ClientKey(c.Get(fiber.HeaderXForwardedFor), c.Get("X-Real-IP"), c.Context().RemoteIP().String())
}

// checkLimit counts the request against limiter. A failing store lets the
// request through so an outage of the counter store never locks users out.
func checkLimit(c *fiber.Ctx, limiter *ratelimit.Limiter, message string, log logger.Logger) error {
	res, err := limiter.Check(c.UserContext(), clientKey(c))
	if err != nil {
		log.WithError(err).Warn("rate limit check failed", map[string]interface{}{
			"policy": limiter.Policy().Name,
		})
		return nil
	}
	if !res.Allowed {
		return &limitExceeded{
			err:    apperr.RateLimited(message),
			policy: limiter.Policy().Name,
			result: res,
		}
	}
	return nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Validation(msgInvalidBody, nil)
	}
	return nil
}

func pageFromQuery(c *fiber.Ctx) service.Page {
	return service.Page{
		Limit:  c.QueryInt("limit", service.DefaultPageLimit),
		Offset: c.QueryInt("offset", 0),
	}
}

// safeRedirect keeps post-login redirects on this site.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return defaultAfterLogin
	}
	return target
}
