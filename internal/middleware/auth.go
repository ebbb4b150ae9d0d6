package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bookshelf/bookshelf/internal/auth"
	"github.com/bookshelf/bookshelf/internal/metrics"
	"github.com/bookshelf/bookshelf/internal/model"
)

// TokenValidator turns a bearer token into the caller's identity.
type TokenValidator interface {
	Validate(token string) (*model.Identity, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger  *slog.Logger
	Tokens  TokenValidator
	Metrics metrics.Recorder
}

// Auth returns a middleware that authenticates API requests.
// It reads the bearer token from the Authorization header, validates it
// and injects the resolved identity into the request context.
// Every failure produces the same 401 response.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				recorder.IncTokenValidation(metrics.OutcomeMissing)
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeAuthError(w)
				return
			}

			identity, err := cfg.Tokens.Validate(token)
			if err != nil {
				recorder.IncTokenValidation(metrics.OutcomeInvalid)
				reason := "invalid_token"
				if errors.Is(err, auth.ErrNoIdentity) {
					reason = "no_identity"
				}
				logAuthFailure(cfg.Logger, r, reason, slog.String("error", err.Error()))
				writeAuthError(w)
				return
			}

			recorder.IncTokenValidation(metrics.OutcomeValid)
			recordUserID(r.Context(), identity.SubjectID)

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken returns the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string, attrs ...any) {
	if logger == nil {
		return
	}
	args := append([]any{
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	}, attrs...)
	logger.WarnContext(r.Context(), "authentication failed", args...)
}

// writeAuthError writes a 401 Unauthorized response.
// The same message is used for all failures.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="bookshelf"`)
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing bearer token")
}
