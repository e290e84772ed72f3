package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storehub/backend/internal/security"
	sessiondomain "storehub/backend/internal/session/domain"
	sessionrepo "storehub/backend/internal/session/repository"
	sessionservice "storehub/backend/internal/session/service"
	userdomain "storehub/backend/internal/user/domain"
	userrepo "storehub/backend/internal/user/repository"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*userdomain.User
	byEmail map[string]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:    make(map[string]*userdomain.User),
		byEmail: make(map[string]*userdomain.User),
	}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return userrepo.ErrDuplicateEmail
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u
	return nil
}

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*sessiondomain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: make(map[string]*sessiondomain.Session)}
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s2 := *s
		return &s2, nil
	}
	return nil, nil
}

func (r *memSessionRepo) GetByUserID(ctx context.Context, userID string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.m {
		if s.UserID == userID {
			s2 := *s
			return &s2, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.m {
		if existing.UserID == s.UserID {
			return sessionrepo.ErrDuplicateSession
		}
	}
	s2 := *s
	r.m[s.ID] = &s2
	return nil
}

func (r *memSessionRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[id]; !ok {
		return false, nil
	}
	delete(r.m, id)
	return true, nil
}

func (r *memSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.m {
		if s.UserID == userID {
			delete(r.m, id)
		}
	}
	return nil
}

func (r *memSessionRepo) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.m[id]; ok {
		s.AccessToken = accessToken
		s.RefreshToken = refreshToken
	}
	return nil
}

func (r *memSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

func newTestAuthService(t *testing.T) (*AuthService, *memSessionRepo) {
	t.Helper()
	sessions := newMemSessionRepo()
	svc := NewAuthService(
		newMemUserRepo(),
		sessionservice.NewStore(sessions),
		security.NewHasher(4),
		security.NewTokenProvider("access-secret", "refresh-secret", 15*time.Minute, time.Hour),
		nil,
	)
	return svc, sessions
}

func register(t *testing.T, svc *AuthService, email string) *userdomain.Profile {
	t.Helper()
	profile, err := svc.Register(context.Background(), RegisterParams{
		Email:     email,
		Password:  "password123",
		FirstName: "Test",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return profile
}

func TestAuthService_Register(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	profile := register(t, svc, "user@example.com")
	if profile.ID == "" {
		t.Fatal("expected user id")
	}
	if profile.Email != "user@example.com" {
		t.Errorf("email: got %q", profile.Email)
	}
	if profile.Role != userdomain.RoleUser {
		t.Errorf("role: got %q, want %q", profile.Role, userdomain.RoleUser)
	}

	_, err := svc.Register(ctx, RegisterParams{
		Email: "user@example.com", Password: "other", FirstName: "A", LastName: "B",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email: want ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_RegisterNormalizesEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	register(t, svc, "user@example.com")
	_, err := svc.Register(ctx, RegisterParams{
		Email: "  USER@Example.COM ", Password: "x", FirstName: "A", LastName: "B",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("case-varied duplicate: want ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "user@example.com")

	// Unknown email and wrong password must be indistinguishable.
	_, errUnknown := svc.Login(ctx, "nobody@example.com", "password123")
	_, errWrong := svc.Login(ctx, "user@example.com", "wrong")
	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Errorf("unknown email: want ErrInvalidCredentials, got %v", errUnknown)
	}
	if !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Errorf("wrong password: want ErrInvalidCredentials, got %v", errWrong)
	}
	if errUnknown != errWrong {
		t.Error("unknown email and wrong password must return the same error")
	}
}

func TestAuthService_LoginIssuesVerifiablePair(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	profile := register(t, svc, "user@example.com")

	pair, err := svc.Login(ctx, "user@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("Login should return both tokens")
	}

	identity, err := svc.VerifyAccessToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if identity == nil || identity.ID != profile.ID {
		t.Fatalf("access token should resolve to the user, got %+v", identity)
	}

	identity, err = svc.VerifyRefreshToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefreshToken: %v", err)
	}
	if identity == nil || identity.ID != profile.ID {
		t.Fatalf("refresh token should resolve to the user, got %+v", identity)
	}
}

func TestAuthService_VerifyRejectsWrongClass(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "user@example.com")
	pair, _ := svc.Login(ctx, "user@example.com", "password123")

	if identity, err := svc.VerifyAccessToken(ctx, pair.RefreshToken); err != nil || identity != nil {
		t.Errorf("VerifyAccessToken(refresh): want nil identity, got %+v err %v", identity, err)
	}
	if identity, err := svc.VerifyRefreshToken(ctx, pair.AccessToken); err != nil || identity != nil {
		t.Errorf("VerifyRefreshToken(access): want nil identity, got %+v err %v", identity, err)
	}
}

func TestAuthService_SecondLoginKillsFirstSession(t *testing.T) {
	svc, sessions := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "user@example.com")

	first, _ := svc.Login(ctx, "user@example.com", "password123")
	second, err := svc.Login(ctx, "user@example.com", "password123")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}

	if identity, _ := svc.VerifyAccessToken(ctx, first.AccessToken); identity != nil {
		t.Error("first access token should be dead after second login")
	}
	if identity, _ := svc.VerifyRefreshToken(ctx, first.RefreshToken); identity != nil {
		t.Error("first refresh token should be dead after second login")
	}
	if identity, _ := svc.VerifyAccessToken(ctx, second.AccessToken); identity == nil {
		t.Error("second access token should be live")
	}
	if sessions.count() != 1 {
		t.Errorf("sessions: got %d, want 1", sessions.count())
	}
}

func TestAuthService_RefreshRotates(t *testing.T) {
	svc, sessions := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "user@example.com")
	pair, _ := svc.Login(ctx, "user@example.com", "password123")

	next, err := svc.Refresh(ctx, "Bearer "+pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.AccessToken == pair.AccessToken || next.RefreshToken == pair.RefreshToken {
		t.Error("Refresh should mint a fresh pair")
	}
	if sessions.count() != 1 {
		t.Errorf("sessions after refresh: got %d, want 1", sessions.count())
	}

	// The presented refresh token is single-use.
	if _, err := svc.Refresh(ctx, "Bearer "+pair.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("replayed refresh: want ErrUnauthenticated, got %v", err)
	}
	// The old access token died with its session.
	if identity, _ := svc.VerifyAccessToken(ctx, pair.AccessToken); identity != nil {
		t.Error("old access token should be dead after rotation")
	}
	// The new pair is live.
	if identity, _ := svc.VerifyAccessToken(ctx, next.AccessToken); identity == nil {
		t.Error("new access token should be live")
	}
}

func TestAuthService_RefreshRejectsBadBearer(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "user@example.com")
	pair, _ := svc.Login(ctx, "user@example.com", "password123")

	cases := []string{
		"",
		"Bearer",
		"Bearer not-a-jwt",
		"Basic " + pair.RefreshToken,
		"Bearer " + pair.AccessToken, // wrong class
	}
	for _, header := range cases {
		if _, err := svc.Refresh(ctx, header); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("Refresh(%q): want ErrUnauthenticated, got %v", header, err)
		}
	}
}

func TestAuthService_Logout(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	profile := register(t, svc, "user@example.com")
	pair, _ := svc.Login(ctx, "user@example.com", "password123")

	if err := svc.Logout(ctx, profile.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if identity, _ := svc.VerifyAccessToken(ctx, pair.AccessToken); identity != nil {
		t.Error("access token should be dead after logout")
	}
	if identity, _ := svc.VerifyRefreshToken(ctx, pair.RefreshToken); identity != nil {
		t.Error("refresh token should be dead after logout")
	}
	if _, err := svc.Refresh(ctx, "Bearer "+pair.RefreshToken); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("refresh after logout: want ErrUnauthenticated, got %v", err)
	}
	if err := svc.Logout(ctx, profile.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("second logout: want ErrUnauthenticated, got %v", err)
	}
}

func TestAuthService_VerifyIgnoresSessionWithoutTokens(t *testing.T) {
	svc, sessions := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "user@example.com")
	pair, _ := svc.Login(ctx, "user@example.com", "password123")

	// Strip the stored tokens; the session row alone must not authenticate.
	sessions.mu.Lock()
	for _, s := range sessions.m {
		s.AccessToken = ""
		s.RefreshToken = ""
	}
	sessions.mu.Unlock()

	if identity, err := svc.VerifyAccessToken(ctx, pair.AccessToken); err != nil || identity != nil {
		t.Errorf("token-less session: want nil identity, got %+v err %v", identity, err)
	}
}

func TestAuthService_ConcurrentLogins(t *testing.T) {
	svc, sessions := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "user@example.com")

	const n = 16
	pairs := make([]*TokenPair, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pair, err := svc.Login(ctx, "user@example.com", "password123")
			if err != nil {
				t.Errorf("Login: %v", err)
				return
			}
			pairs[i] = pair
		}(i)
	}
	wg.Wait()

	if sessions.count() != 1 {
		t.Fatalf("sessions after %d concurrent logins: got %d, want 1", n, sessions.count())
	}
	live := 0
	for _, pair := range pairs {
		if pair == nil {
			continue
		}
		if identity, _ := svc.VerifyAccessToken(ctx, pair.AccessToken); identity != nil {
			live++
		}
	}
	if live != 1 {
		t.Errorf("live token pairs: got %d, want 1", live)
	}
}

func TestAuthService_ConcurrentRefreshReplay(t *testing.T) {
	svc, sessions := newTestAuthService(t)
	ctx := context.Background()
	register(t, svc, "user@example.com")
	pair, _ := svc.Login(ctx, "user@example.com", "password123")

	const n = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(ctx, "Bearer "+pair.RefreshToken)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrUnauthenticated) {
				t.Errorf("Refresh: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("concurrent replays of one refresh token: got %d winners, want 1", wins)
	}
	if sessions.count() != 1 {
		t.Errorf("sessions: got %d, want 1", sessions.count())
	}
}
