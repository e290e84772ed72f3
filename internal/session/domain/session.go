package domain

import "time"

// Session binds a user to at most one outstanding token pair. It is the unit
// of revocation: a token whose session row is gone is dead regardless of its
// own expiry. The session id is the subject claim of both issued tokens.
type Session struct {
	ID           string
	UserID       string
	AccessToken  string // empty until a token pair is attached
	RefreshToken string // empty until a token pair is attached
	CreatedAt    time.Time
}

// TokensAttached reports whether a token pair has been persisted onto the
// session. Verifiers treat sessions without tokens as absent.
func (s *Session) TokensAttached() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}
