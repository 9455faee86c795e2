package testutil

import (
	"net/http"
	"time"

	"credo-referral/pkg/requestcontext"
)

// WithRequestMetadata adds the values the HTTP middleware chain would set,
// for handler tests that call handlers directly.
func WithRequestMetadata(req *http.Request, requestID string, now time.Time) *http.Request {
	ctx := requestcontext.WithRequestID(req.Context(), requestID)
	ctx = requestcontext.WithTime(ctx, now)
	ctx = requestcontext.WithClientMetadata(ctx, "192.0.2.10", "test-agent", "unknown")
	return req.WithContext(ctx)
}
