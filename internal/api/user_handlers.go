package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/askboard/askboard-server/internal/domain"
	"github.com/askboard/askboard-server/internal/session"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the signed-in user with activity totals",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMyActivity",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/activity",
		Summary:     "Get my activity",
		Description: "Returns the signed-in user's activity, newest first",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMyActivity)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMySessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me/sessions",
		Summary:     "List my sessions",
		Description: "Returns the signed-in user's active sessions",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMySessions)
}

// === DTOs ===

// CurrentUserResponse is the signed-in user plus activity totals.
type CurrentUserResponse struct {
	UserResponse
	Counts map[domain.ActivityType]int `json:"counts" doc:"Activity totals by type"`
}

// CurrentUserOutput wraps the current user response for Huma.
type CurrentUserOutput struct {
	Body CurrentUserResponse
}

// SessionInfo describes one active session.
type SessionInfo struct {
	ID         string    `json:"id" doc:"Session ID"`
	Current    bool      `json:"current" doc:"Whether this is the calling session"`
	CreatedAt  time.Time `json:"created_at" doc:"When the session was opened"`
	LastSeenAt time.Time `json:"last_seen_at" doc:"Last refresh"`
	ExpiresAt  time.Time `json:"expires_at" doc:"When the refresh token expires"`
	IPAddress  string    `json:"ip_address,omitempty" doc:"Client IP at login"`
	UserAgent  string    `json:"user_agent,omitempty" doc:"Client user agent at login"`
}

// SessionsResponse lists active sessions.
type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions" doc:"Active sessions"`
}

// SessionsOutput wraps the sessions response for Huma.
type SessionsOutput struct {
	Body SessionsResponse
}

// === Handlers ===

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*CurrentUserOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.services.Activity.Counts(ctx, user.ID)
	if err != nil {
		s.logger.Warn("failed to count activity", "user_id", user.ID, "error", err)
	}
	if counts == nil {
		counts = map[domain.ActivityType]int{}
	}

	return &CurrentUserOutput{Body: CurrentUserResponse{
		UserResponse: mapUser(user),
		Counts:       counts,
	}}, nil
}

func (s *Server) handleGetMyActivity(ctx context.Context, input *ActivityInput) (*ActivityOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Activity.UserFeed(ctx, user.ID, input.Limit, input.Before)
	if err != nil {
		return nil, err
	}

	return &ActivityOutput{Body: *page}, nil
}

func (s *Server) handleListMySessions(ctx context.Context, _ *struct{}) (*SessionsOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := s.services.Sessions.ListUserSessions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	current := session.SessionID(ctx)
	resp := make([]SessionInfo, len(sessions))
	for i, sess := range sessions {
		resp[i] = SessionInfo{
			ID:         sess.ID,
			Current:    sess.ID == current,
			CreatedAt:  sess.CreatedAt,
			LastSeenAt: sess.LastSeenAt,
			ExpiresAt:  sess.ExpiresAt,
			IPAddress:  sess.IPAddress,
			UserAgent:  sess.UserAgent,
		}
	}

	return &SessionsOutput{Body: SessionsResponse{Sessions: resp}}, nil
}
