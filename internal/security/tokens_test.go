package security

import (
	"testing"
	"time"
)

func newTestProvider() *TokenProvider {
	return NewTokenProvider("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour)
}

func TestTokenProvider_IssueAndParse(t *testing.T) {
	p := newTestProvider()

	access, err := p.IssueAccess("sess-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, err := p.IssueRefresh("sess-1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if access == refresh {
		t.Fatal("access and refresh tokens should differ")
	}

	claims, err := p.ParseAccess(access)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if claims.Subject != "sess-1" {
		t.Errorf("access subject: got %q, want sess-1", claims.Subject)
	}
	if claims.Refresh {
		t.Error("access token should not carry the refresh marker")
	}

	claims, err = p.ParseRefresh(refresh)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if claims.Subject != "sess-1" {
		t.Errorf("refresh subject: got %q, want sess-1", claims.Subject)
	}
	if !claims.Refresh {
		t.Error("refresh token should carry the refresh marker")
	}
}

func TestTokenProvider_RejectsWrongClass(t *testing.T) {
	p := newTestProvider()
	access, _ := p.IssueAccess("sess-1")
	refresh, _ := p.IssueRefresh("sess-1")

	if _, err := p.ParseAccess(refresh); err != ErrInvalidToken {
		t.Errorf("ParseAccess(refresh token): want ErrInvalidToken, got %v", err)
	}
	if _, err := p.ParseRefresh(access); err != ErrInvalidToken {
		t.Errorf("ParseRefresh(access token): want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_RejectsForeignSecret(t *testing.T) {
	p := newTestProvider()
	other := NewTokenProvider("other-access", "other-refresh", 15*time.Minute, 168*time.Hour)

	access, _ := other.IssueAccess("sess-1")
	refresh, _ := other.IssueRefresh("sess-1")

	if _, err := p.ParseAccess(access); err != ErrInvalidToken {
		t.Errorf("foreign access token: want ErrInvalidToken, got %v", err)
	}
	if _, err := p.ParseRefresh(refresh); err != ErrInvalidToken {
		t.Errorf("foreign refresh token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_RejectsExpired(t *testing.T) {
	p := NewTokenProvider("access-secret", "refresh-secret", -time.Minute, -time.Minute)

	access, _ := p.IssueAccess("sess-1")
	if _, err := p.ParseAccess(access); err != ErrInvalidToken {
		t.Errorf("expired access token: want ErrInvalidToken, got %v", err)
	}
	refresh, _ := p.IssueRefresh("sess-1")
	if _, err := p.ParseRefresh(refresh); err != ErrInvalidToken {
		t.Errorf("expired refresh token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_RejectsGarbage(t *testing.T) {
	p := newTestProvider()
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := p.ParseAccess(tok); err != ErrInvalidToken {
			t.Errorf("ParseAccess(%q): want ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestStripBearer(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"BEARER abc", "abc"},
		{"  Bearer abc  ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"Bearer ", ""},
		{"", ""},
		{"abc.def.ghi", ""},
	}
	for _, tc := range cases {
		if got := StripBearer(tc.header); got != tc.want {
			t.Errorf("StripBearer(%q): got %q, want %q", tc.header, got, tc.want)
		}
	}
}
