package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	u := quiz.User{ID: "t1", Name: "Cikgu Aminah", Email: "aminah@school.my", Role: quiz.RoleTeacher}

	signed, issued, err := tokens.Issue(u)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if issued.TokenID == "" {
		t.Error("TokenID should be set")
	}

	got, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.UserID != "t1" || got.Role != quiz.RoleTeacher || got.Email != u.Email || got.TokenID != issued.TokenID {
		t.Errorf("Parse() = %+v", got)
	}
	if !got.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, issued.ExpiresAt)
	}
}

func TestTokens_Parse_Rejects(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tokens := NewTokens("secret", time.Hour)
	tokens.now = func() time.Time { return now }

	valid, _, err := tokens.Issue(quiz.User{ID: "s1", Role: quiz.RoleStudent})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	other := NewTokens("other-secret", time.Hour)
	other.now = tokens.now
	foreign, _, _ := other.Issue(quiz.User{ID: "s1", Role: quiz.RoleStudent})

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "s1", "role": "student", "iss": issuer}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	badRole, _, _ := tokens.Issue(quiz.User{ID: "x", Role: "admin"})

	tests := []struct {
		name  string
		token string
		at    time.Time
	}{
		{"expired", valid, now.Add(2 * time.Hour)},
		{"wrong secret", foreign, now},
		{"alg none", none, now},
		{"garbage", "not.a.token", now},
		{"tampered", valid[:strings.LastIndex(valid, ".")] + ".AAAA", now},
		{"unknown role", badRole, now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens.now = func() time.Time { return tt.at }
			if _, err := tokens.Parse(tt.token); err == nil {
				t.Error("Parse() should fail")
			}
		})
	}
}
