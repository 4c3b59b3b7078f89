// Package auth registers users, issues and revokes access tokens and carries the caller's
// session through request contexts.
package auth

import (
	"context"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// Session identifies the authenticated caller of a request.
type Session struct {
	UserID    string    `json:"userId"`
	Role      quiz.Role `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored by WithSession.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
