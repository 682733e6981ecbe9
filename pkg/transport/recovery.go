package transport

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/relais/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to internal-error responses. The server continues to
// accept new requests after a panic is recovered.
//
// If the response has already been partially written (a broken stream),
// nothing more can be sent; the panic is logged and the connection is
// left to close.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"path", r.URL.Path,
						"request_id", RequestIDFromContext(r.Context()),
						"panic", fmt.Sprintf("%v", rec),
					)
					WriteGatewayError(w, api.NewInternal(fmt.Sprintf("internal server error: %v", rec)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
