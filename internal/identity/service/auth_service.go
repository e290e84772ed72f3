// Package service implements the authentication state machine: register,
// login, refresh-with-rotation, logout, and bearer token verification.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"storehub/backend/internal/audit"
	"storehub/backend/internal/security"
	sessiondomain "storehub/backend/internal/session/domain"
	sessionservice "storehub/backend/internal/session/service"
	userdomain "storehub/backend/internal/user/domain"
	userrepo "storehub/backend/internal/user/repository"
)

// Sentinel errors for the auth service; handlers map them to HTTP statuses.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// the two are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated covers every rejected bearer: missing, malformed,
	// expired, wrong token class, or a session that no longer exists.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrEmailTaken is returned by Register for a duplicate email.
	ErrEmailTaken = errors.New("email already registered")
)

// TokenPair is the credential pair issued on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// SessionStore owns the session lifecycle: one live session per user,
// replaced on establish, hard-deleted on invalidate.
type SessionStore interface {
	Establish(ctx context.Context, userID string) (*sessiondomain.Session, error)
	Invalidate(ctx context.Context, s *sessiondomain.Session) error
	AttachTokens(ctx context.Context, sessionID, accessToken, refreshToken string) error
	Find(ctx context.Context, id string) (*sessiondomain.Session, error)
	FindByUser(ctx context.Context, userID string) (*sessiondomain.Session, error)
}

// RegisterParams are the inputs to Register.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthService implements registration, login, refresh, logout, and token
// verification. All dependencies are injected; there is no global state.
type AuthService struct {
	users    UserRepo
	sessions SessionStore
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	audit    audit.Recorder
}

// NewAuthService returns an AuthService with the given dependencies.
// auditLog may be nil.
func NewAuthService(users UserRepo, sessions SessionStore, hasher *security.Hasher, tokens *security.TokenProvider, auditLog audit.Recorder) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		audit:    auditLog,
	}
}

// Register creates a user with the USER role. Returns ErrEmailTaken when the
// email is already registered; any other storage error propagates so the
// caller answers with a server error rather than a silent empty success.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*userdomain.Profile, error) {
	email := normalizeEmail(p.Email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}
	hash, err := s.hasher.Hash([]byte(p.Password))
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		PasswordHash: hash,
		Role:         userdomain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	s.record(ctx, user.ID, "auth.register", "user:"+user.ID)
	return user.Profile(), nil
}

// Login authenticates with email/password, replaces the user's session, and
// returns a fresh token pair. Unknown email and wrong password produce the
// same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	if user == nil {
		s.record(ctx, "", "auth.login_failure", "user:unknown")
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.record(ctx, user.ID, "auth.login_failure", "user:"+user.ID)
		return nil, ErrInvalidCredentials
	}
	pair, err := s.issueFor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, user.ID, "auth.login", "user:"+user.ID)
	return pair, nil
}

// Refresh rotates the session named by the presented refresh token: the old
// session is deleted and a new one with a new token pair takes its place,
// making the presented token single-use. authorization is the raw
// Authorization header value.
func (s *AuthService) Refresh(ctx context.Context, authorization string) (*TokenPair, error) {
	raw := security.StripBearer(authorization)
	if raw == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.tokens.ParseRefresh(raw)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	sess, err := s.sessions.Find(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	if sess == nil {
		// Forged token, or a token whose session was already rotated or
		// logged out. Replay must fail here, not silently succeed.
		return nil, ErrUnauthenticated
	}
	if err := s.sessions.Invalidate(ctx, sess); err != nil {
		if errors.Is(err, sessionservice.ErrSessionNotFound) {
			// Concurrent replay: another request deleted the session first.
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	pair, err := s.issueFor(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	s.record(ctx, sess.UserID, "auth.refresh", "user:"+sess.UserID)
	return pair, nil
}

// Logout deletes the caller's session, permanently invalidating both
// outstanding tokens. userID arrives already authenticated.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	sess, err := s.sessions.FindByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("query session by user: %w", err)
	}
	if sess == nil {
		return ErrUnauthenticated
	}
	if err := s.sessions.Invalidate(ctx, sess); err != nil {
		if errors.Is(err, sessionservice.ErrSessionNotFound) {
			return ErrUnauthenticated
		}
		return err
	}
	s.record(ctx, userID, "auth.logout", "user:"+userID)
	return nil
}

// VerifyAccessToken resolves a bearer access token to the owning user's
// profile. Invalid, expired, refresh-class, or session-orphaned tokens yield
// (nil, nil): no identity, but also no error to escalate. A non-nil error
// means a storage failure.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*userdomain.Profile, error) {
	claims, err := s.tokens.ParseAccess(token)
	if err != nil {
		return nil, nil
	}
	return s.resolveSubject(ctx, claims.Subject)
}

// VerifyRefreshToken is symmetric to VerifyAccessToken but accepts only
// refresh-class tokens.
func (s *AuthService) VerifyRefreshToken(ctx context.Context, token string) (*userdomain.Profile, error) {
	claims, err := s.tokens.ParseRefresh(token)
	if err != nil {
		return nil, nil
	}
	return s.resolveSubject(ctx, claims.Subject)
}

func (s *AuthService) resolveSubject(ctx context.Context, sessionID string) (*userdomain.Profile, error) {
	sess, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	if sess == nil || !sess.TokensAttached() {
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if user == nil {
		return nil, nil
	}
	return user.Profile(), nil
}

// issueFor runs the establish + mint + persist sequence shared by login and
// refresh. Both tokens carry the new session id as subject; the session row
// ends up holding the pair it issued.
func (s *AuthService) issueFor(ctx context.Context, userID string) (*TokenPair, error) {
	sess, err := s.sessions.Establish(ctx, userID)
	if err != nil {
		return nil, err
	}
	accessToken, err := s.tokens.IssueAccess(sess.ID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := s.tokens.IssueRefresh(sess.ID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := s.sessions.AttachTokens(ctx, sess.ID, accessToken, refreshToken); err != nil {
		return nil, fmt.Errorf("attach tokens: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) record(ctx context.Context, userID, action, resource string) {
	if s.audit != nil {
		s.audit.Record(ctx, userID, action, resource, "")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
