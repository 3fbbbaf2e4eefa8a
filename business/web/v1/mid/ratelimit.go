package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/votechain/business/web/errs"
	"github.com/ardanlabs/votechain/foundation/web"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when the service is receiving more requests
// than it is configured to accept.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimit rejects requests over the specified rate with a 429. The limiter
// is shared by every route the middleware is attached to. A limit of zero
// or less disables the middleware.
func RateLimit(limit float64, burst int) web.Middleware {
	if limit <= 0 {
		return nil
	}

	lim := rate.NewLimiter(rate.Limit(limit), burst)

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !lim.Allow() {
				return errs.NewTrusted(ErrRateLimited, http.StatusTooManyRequests)
			}

			// Call the next handler.
			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
