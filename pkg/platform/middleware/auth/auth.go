package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "reviewhub/pkg/domain"
	dErrors "reviewhub/pkg/domain-errors"
	request "reviewhub/pkg/platform/middleware/request"
	"reviewhub/pkg/requestcontext"
)

// authFailedMessage is the only failure text a caller ever sees.
const authFailedMessage = "authentication failed"

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	UserID string
	JTI    string
}

// FailureCounter is notified on every rejected request.
type FailureCounter interface {
	IncrementAuthFailures()
}

// Option configures RequireAuth.
type Option func(*options)

type options struct {
	failures FailureCounter
}

// WithFailureCounter reports rejections to a metrics sink.
func WithFailureCounter(c FailureCounter) Option {
	return func(o *options) { o.failures = c }
}

var (
	errMissingHeader = errors.New("missing authorization header")
	errMalformed     = errors.New("malformed authorization header")
	errBadSubject    = errors.New("token subject is not a user id")
)

// Authenticate verifies an Authorization header value and returns the
// validated claims. Every failure carries the same unauthorized error; the
// wrapped cause is for server-side logs only.
func Authenticate(validator JWTValidator, authorizationHeader string) (*JWTClaims, id.UserID, error) {
	if strings.TrimSpace(authorizationHeader) == "" {
		return nil, id.UserID{}, unauthorized(errMissingHeader)
	}
	parts := strings.Fields(authorizationHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, id.UserID{}, unauthorized(errMalformed)
	}

	claims, err := validator.ValidateToken(parts[1])
	if err != nil {
		return nil, id.UserID{}, unauthorized(err)
	}
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, id.UserID{}, unauthorized(fmt.Errorf("%w: %w", errBadSubject, err))
	}
	return claims, userID, nil
}

func unauthorized(cause error) error {
	return dErrors.Wrap(cause, dErrors.CodeUnauthorized, authFailedMessage)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and places the
// verified user id in the request context for downstream handlers.
func RequireAuth(validator JWTValidator, logger *slog.Logger, opts ...Option) func(http.Handler) http.Handler {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			_, userID, err := Authenticate(validator, r.Header.Get("Authorization"))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access",
					"error", errors.Unwrap(err),
					"request_id", request.GetRequestID(ctx),
				)
				if o.failures != nil {
					o.failures.IncrementAuthFailures()
				}
				writeJSONError(w, http.StatusUnauthorized, string(dErrors.CodeUnauthorized), authFailedMessage)
				return
			}

			ctx = requestcontext.WithUserID(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
