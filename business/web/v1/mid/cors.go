package mid

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ardanlabs/votechain/foundation/web"
)

// preflightMaxAge is how long a browser may cache a preflight response.
const preflightMaxAge = 24 * time.Hour

// Cors sets the response headers needed for Cross-Origin Resource Sharing.
// The allowed methods are asked for on each preflight request so routes
// registered after the middleware was built are still advertised.
func Cors(origin string, methods func() []string) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}

			// Only a preflight needs the method and header lists.
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(methods(), ", "))
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(int(preflightMaxAge.Seconds())))
			}

			// Call the next handler.
			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
