package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/pocket-ledger/internal/auth"
	"github.com/josh-kwaku/pocket-ledger/internal/handler"
	"github.com/josh-kwaku/pocket-ledger/internal/logging"
)

type tokenResolver interface {
	Resolve(token string) (*auth.Claims, error)
}

// Auth resolves the bearer token to a user id carried in the request context.
func Auth(tokens tokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := tokens.Resolve(token)
			if err != nil {
				logging.FromContext(r.Context()).Debug("rejected bearer token", "error", err)
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.WithUserID(r.Context(), claims.UserID)
			logger := logging.FromContext(ctx).With("user_id", claims.UserID)
			ctx = logging.WithLogger(ctx, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
