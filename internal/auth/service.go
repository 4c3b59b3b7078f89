package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/p-n-ai/pai-quiz/internal/analytics"
	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/platform/cache"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

const (
	MinPasswordLength = 8
	revokedKeyPrefix  = "revoked:"
)

// Config wires the service's collaborators.
type Config struct {
	Store      store.Store
	Tokens     *Tokens
	Revoked    cache.Store
	Events     analytics.EventLogger
	BcryptCost int
}

// Service handles registration, login and logout.
type Service struct {
	store   store.Store
	tokens  *Tokens
	revoked cache.Store
	events  analytics.EventLogger
	cost    int
	now     func() time.Time
}

func NewService(c Config) *Service {
	cost := c.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	revoked := c.Revoked
	if revoked == nil {
		revoked = cache.NewMemory()
	}
	events := c.Events
	if events == nil {
		events = analytics.NopEventLogger{}
	}
	return &Service{
		store:   c.Store,
		tokens:  c.Tokens,
		revoked: revoked,
		events:  events,
		cost:    cost,
		now:     time.Now,
	}
}

// RegisterRequest describes a new account. TeacherID is required for students.
type RegisterRequest struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Password     string    `json:"password"`
	Role         quiz.Role `json:"role"`
	TeacherID    string    `json:"teacherId,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r RegisterRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.InvalidArgument("name is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.InvalidArgument("email %q is not valid", r.Email)
	}
	if utf8.RuneCountInString(r.Password) < MinPasswordLength {
		return errors.InvalidArgument("password must be at least %d characters", MinPasswordLength)
	}
	if !r.Role.Valid() {
		return errors.InvalidArgument("role must be teacher or student")
	}
	if r.Role == quiz.RoleStudent && r.TeacherID == "" {
		return errors.InvalidArgument("teacherId is required for students")
	}
	return nil
}

// Register creates the account. A student joins the named teacher's roster.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (quiz.User, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := req.validate(); err != nil {
		return quiz.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return quiz.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := quiz.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Role:         req.Role,
		ProfileImage: req.ProfileImage,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	teacherID := ""
	if u.Role == quiz.RoleStudent {
		teacherID = req.TeacherID
	}
	if err := s.store.CreateUser(ctx, u, teacherID); err != nil {
		return quiz.User{}, err
	}

	slog.Info("user registered", "user_id", u.ID, "role", u.Role)
	analytics.Log(ctx, s.events, analytics.Event{
		UserID:    u.ID,
		EventType: analytics.UserRegistered,
		Data:      map[string]any{"role": string(u.Role), "teacher_id": teacherID},
	})
	return u, nil
}

// LoginResult is returned on successful login.
type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        quiz.User `json:"user"`
}

// Login checks the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, errors.CodeNotFound) {
		return LoginResult{}, errors.Unauthenticated("invalid email or password")
	}
	if err != nil {
		return LoginResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, errors.Unauthenticated("invalid email or password")
	}

	token, session, err := s.tokens.Issue(u)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{AccessToken: token, ExpiresAt: session.ExpiresAt, User: u}, nil
}

// Logout revokes the session's token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, session Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Set(ctx, revokedKeyPrefix+session.TokenID, session.UserID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate verifies a bearer token and rejects revoked ones.
func (s *Service) Authenticate(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, errors.Unauthenticated("missing access token")
	}
	session, err := s.tokens.Parse(token)
	if err != nil {
		return Session{}, errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("invalid access token"), errors.WithCause(err))
	}

	_, revoked, err := s.revoked.Get(ctx, revokedKeyPrefix+session.TokenID)
	if err != nil {
		return Session{}, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("session check unavailable"), errors.WithCause(err))
	}
	if revoked {
		return Session{}, errors.Unauthenticated("access token has been revoked")
	}
	return session, nil
}
