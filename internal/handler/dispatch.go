package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/apperr"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/logger"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/metrics"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/ratelimit"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/router"
	"github.com/MartyBonacci/tweeter-gdg-1/internal/session"
	"github.com/gofiber/fiber/v2"
)

const msgInternal = "Internal server error"

// HandlerFunc serves one API route. params holds the values of the
// pattern's parameter segments in order.
type HandlerFunc func(c *fiber.Ctx, params []string) error

// Dispatcher routes /api requests through the route table and turns
// handler errors into responses.
type Dispatcher struct {
	routes *router.Table[HandlerFunc]
	logger logger.Logger
}

func NewDispatcher(log logger.Logger) *Dispatcher {
	return &Dispatcher{
		routes: router.New[HandlerFunc](),
		logger: log.WithFields(map[string]interface{}{"component": "dispatch"}),
	}
}

func (d *Dispatcher) Handle(method, pattern string, h HandlerFunc) {
	d.routes.Register(method, pattern, h)
}

func (d *Dispatcher) Routes() []router.Route[HandlerFunc] {
	return d.routes.Routes()
}

// Serve is mounted on the /api catch-all.
func (d *Dispatcher) Serve(c *fiber.Ctx) error {
	start := time.Now()
	method := c.Method()

	route, params, ok := d.routes.Match(method, c.Path())
	if !ok {
		err := c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
		metrics.ObserveRequest(method, metrics.RouteUnmatched, fiber.StatusNotFound, start)
		return err
	}

	err := route.Handler(c, params)
	if err != nil {
		err = d.writeError(c, err)
	}

	metrics.ObserveRequest(method, route.Pattern, c.Response().StatusCode(), start)
	return err
}

func (d *Dispatcher) writeError(c *fiber.Ctx, err error) error {
	if uerr, ok := session.IsUnauthenticated(err); ok {
		if acceptsHTML(c) {
			return c.Redirect(uerr.RedirectTo, fiber.StatusFound)
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":      "Unauthorized",
			"redirectTo": uerr.RedirectTo,
		})
	}

	var limited *limitExceeded
	if errors.As(err, &limited) {
		return d.writeRateLimited(c, limited)
	}

	appErr, ok := apperr.As(err)
	if !ok {
		d.logger.WithError(err).Error("request failed", requestFields(c))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msgInternal})
	}

	switch appErr.Kind {
	case apperr.KindValidation, apperr.KindDomain:
		d.logger.Debug(appErr.Message, requestFields(c))
	case apperr.KindUpstream, apperr.KindInternal:
		d.logger.WithError(appErr).Error("request failed", requestFields(c))
	}

	body := fiber.Map{"error": appErr.Message}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	return c.Status(appErr.Status()).JSON(body)
}

func (d *Dispatcher) writeRateLimited(c *fiber.Ctx, e *limitExceeded) error {
	metrics.IncRateLimitRejection(e.policy)

	fields := requestFields(c)
	fields["policy"] = e.policy
	d.logger.Info("rate limit exceeded", fields)

	c.Set("X-RateLimit-Remaining", strconv.Itoa(e.result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(e.result.ResetTime.Unix(), 10))
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(e.result.RetryAfter(time.Now())))

	return c.Status(e.err.Status()).JSON(fiber.Map{
		"error":     e.err.Message,
		"remaining": e.result.Remaining,
		"resetTime": e.result.ResetTime,
	})
}

// limitExceeded is a rate limited error that keeps the denied check's
// counter state for the response headers.
type limitExceeded struct {
	err    *apperr.Error
	policy string
	result ratelimit.Result
}

func (e *limitExceeded) Error() string {
	return e.err.Error()
}

func (e *limitExceeded) Unwrap() error {
	return e.err
}

func acceptsHTML(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML)
}

func requestFields(c *fiber.Ctx) map[string]interface{} {
	return map[string]interface{}{
		"method": c.Method(),
		"path":   c.Path(),
	}
}
