// Package request provides middleware for request-scoped identifiers.
// Every request gets a request ID, either propagated from the caller via
// X-Request-ID or generated, and the ID travels in the context for logs
// and audit events.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"aurum/pkg/requestcontext"
)

const HeaderRequestID = "X-Request-ID"

// Middleware ensures a request ID is present on the context and echoed in
// the response headers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
