package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"

	"github.com/mbolis/quick-forms/apperr"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/service"
)

type contextKey struct{}

var userContext = contextKey{}

// CurrentUser returns the user loaded by Authenticated.
func CurrentUser(r *http.Request) (model.User, bool) {
	user, ok := r.Context().Value(userContext).(model.User)
	return user, ok
}

// WithUser stores user in ctx as Authenticated would.
func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, userContext, user)
}

// Authenticated checks the OAuth bearer token and loads its user.
func Authenticated(secret string, users *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), principal(users)).Handler(next)
	}
}

func principal(users *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)
			uid := claims[httpx.ClaimUserID]
			if uid == "" {
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "auth.claims.uid")
				return
			}

			user, err := users.GetUser(r.Context(), uid)
			if apperr.IsKind(err, apperr.NotFound) {
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "auth.user.not_found")
				return
			}
			if err != nil {
				httpx.LogInternalError(w, "auth.user", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// Admin lets through only users with the admin role. It must run after Authenticated.
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r)
		if !ok || !user.IsAdmin() {
			httpx.LogError(w, r, "auth.admin", apperr.New(apperr.Forbidden, "admin role required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CookieAuth lets GET requests authenticate with the token cookies set at
// login, refreshing an expired access token on the fly.
func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != "GET" || r.Header.Get("authorization") != "" {
				h.ServeHTTP(w, r)
				return
			}

			token, err := r.Cookie(httpx.AccessTokenCookie)
			if err != nil && !errors.Is(err, http.ErrNoCookie) {
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "cookie.access_token")
				return
			}
			if err == nil {
				r.Header.Set("authorization", "Bearer "+token.Value)
				buf := httpx.NewResponseBuffer()
				h.ServeHTTP(buf, r)
				if buf.Status() != http.StatusUnauthorized {
					buf.Flush(w)
					return
				}
			}

			// token was empty or unauthorized
			refreshToken, err := r.Cookie(httpx.RefreshTokenCookie)
			if err != nil {
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "cookie.refresh_token")
				return
			}

			req, err := httpx.RefreshRequest(refreshToken.Value)
			if err != nil {
				httpx.LogInternalError(w, "cookie.refresh.new_request", err)
				return
			}
			resp := httpx.NewResponseBuffer()
			bearerServer.UserCredentials(resp, req)
			if resp.Status() == http.StatusUnauthorized {
				httpx.ClearTokenCookies(w)
				httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "cookie.refresh.unauthorized")
				return
			}
			if resp.Status() != 0 && resp.Status() != http.StatusOK {
				httpx.LogStatus(w, resp.Status(), log.DebugLevel, "cookie.refresh")
				return
			}

			granted, err := httpx.SetTokenCookies(w, resp.Body())
			if err != nil {
				httpx.LogInternalError(w, "cookie.refresh.parse_body", err)
				return
			}

			r.Header.Set("authorization", "Bearer "+granted.AccessToken)
			h.ServeHTTP(w, r)
		})
	}
}
