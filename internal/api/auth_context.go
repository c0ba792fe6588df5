package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/askboard/askboard-server/internal/auth"
	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/service"
	"github.com/askboard/askboard-server/internal/session"
)

// authMiddleware returns a middleware that validates Bearer tokens and stores
// the user and session in context.
// If no token is present or invalid, continues without a user: some routes
// are public and voting treats a missing user as a no-op.
// Handlers use RequireUser to check authentication.
func authMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, claims, err := authService.VerifyAccessToken(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := session.WithUser(r.Context(), user)
			ctx = session.WithSessionID(ctx, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireUser returns the authenticated user from context.
// Returns 401 if not authenticated.
func RequireUser(ctx context.Context) (*domain.User, error) {
	user, ok := session.User(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	return user, nil
}

// ClientHeaders are the request headers recorded on a new session.
type ClientHeaders struct {
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
	UserAgent     string `header:"User-Agent"`
}

// Client describes the caller for the session list.
func (h ClientHeaders) Client() auth.ClientInfo {
	ip := h.XRealIP
	if h.XForwardedFor != "" {
		first, _, _ := strings.Cut(h.XForwardedFor, ",")
		ip = strings.TrimSpace(first)
	}
	return auth.ClientInfo{IPAddress: ip, UserAgent: h.UserAgent}
}
