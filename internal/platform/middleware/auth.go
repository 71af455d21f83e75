package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"fidelis/pkg/domain"
	"fidelis/pkg/requestcontext"
)

// SessionValidator resolves a bearer token into a live session.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (domain.SessionID, string, error)
}

// RequireSession rejects requests without a live session and threads the
// session ID and actor label into the context for downstream use (liveness
// re-checks in the retry runner, activity logging).
func RequireSession(validator SessionValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}
			ctx := r.Context()
			sessionID, actor, err := validator.Validate(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				unauthorized(w)
				return
			}
			ctx = requestcontext.WithSessionID(ctx, sessionID)
			ctx = requestcontext.WithActor(ctx, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or expired session"}`))
}
