package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// GetRequestIDFromContext returns the request id assigned by chi's RequestID
// middleware, or "" when none was assigned.
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}
