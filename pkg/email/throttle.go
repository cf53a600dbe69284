package email

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// ThrottledSender caps the outbound send rate of another Sender. Callers
// block until a token is free or their context ends.
type ThrottledSender struct {
	next    Sender
	limiter *rate.Limiter
}

func NewThrottledSender(next Sender, perSecond float64) *ThrottledSender {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &ThrottledSender{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (s *ThrottledSender) SendVerificationEmail(ctx context.Context, to, verificationURL string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email throttle: %w", err)
	}
	return s.next.SendVerificationEmail(ctx, to, verificationURL)
}
