package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/meghshyam-labs/vyapar-backend/pkg/auth"
	"github.com/meghshyam-labs/vyapar-backend/pkg/config"
	"github.com/meghshyam-labs/vyapar-backend/pkg/logger"
)

// SessionCookieName is the cookie the checkout opt-in flow sets and this
// middleware reads back.
const SessionCookieName = "vyapar_session"

type sessionCtxKey struct{}

// Session resolves the signed session cookie into the account id for
// downstream handlers. Requests without a cookie, or with one that fails
// validation, pass through anonymously; checkout works either way.
func Session(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseSessionToken(cfg, cookie.Value)
			if err != nil {
				if logg != nil {
					logg.Warn(r.Context(), "session.cookie_rejected")
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionCtxKey{}, claims.UserID)
			if logg != nil {
				ctx = logg.WithAccountID(ctx, claims.UserID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionUserID returns the authenticated account id, if the request carried
// a valid session cookie.
func SessionUserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(sessionCtxKey{}).(uuid.UUID)
	return id, ok
}
