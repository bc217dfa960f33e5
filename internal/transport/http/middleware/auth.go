package middleware

import (
	"context"
	"net/http"
	"strings"

	"empdesk/internal/domain/auth"
	"empdesk/internal/platform/logging"
)

const SessionCookieName = "empdesk_session"

type ctxKey string

const ctxKeyUser ctxKey = "user"

// SessionValidator confirms that a token's server-side session is still live.
type SessionValidator interface {
	ValidateSession(ctx context.Context, user auth.UserContext) error
}

// Auth attaches the caller identity when a valid bearer token or session
// cookie is present. Requests without one continue anonymously.
func Auth(secret string, sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if cookie, err := r.Cookie(SessionCookieName); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			user := auth.UserContext{
				AccountID: claims.AccountID,
				Email:     claims.Email,
				IsAdmin:   claims.IsAdmin,
				SessionID: claims.SessionID,
			}
			if sessions != nil {
				if err := sessions.ValidateSession(r.Context(), user); err != nil {
					logging.FromContext(r.Context()).Debug("session rejected", "accountId", user.AccountID, "err", err)
					next.ServeHTTP(w, r)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) string {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}
