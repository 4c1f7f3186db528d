package security

import (
	"errors"
	"testing"
	"time"
)

func newTestIssuer(accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return NewTokenIssuer("access-secret", "refresh-secret", accessTTL, refreshTTL)
}

func TestIssuePair_RoundTrip(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(time.Hour, 24*time.Hour)
	userID := "user-123"

	pair, err := issuer.IssuePair(userID)
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", pair)
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatalf("access and refresh tokens must differ")
	}

	accessClaims, err := issuer.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess error: %v", err)
	}
	if accessClaims.UserID != userID {
		t.Fatalf("access claims user mismatch: got %q want %q", accessClaims.UserID, userID)
	}

	refreshClaims, err := issuer.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh error: %v", err)
	}
	if refreshClaims.UserID != userID {
		t.Fatalf("refresh claims user mismatch: got %q want %q", refreshClaims.UserID, userID)
	}
}

func TestVerifyAccess_Expired(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(-1*time.Second, 24*time.Hour)

	pair, err := issuer.IssuePair("u1")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	_, err = issuer.VerifyAccess(pair.AccessToken)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_CrossClassFails(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(time.Hour, 24*time.Hour)

	pair, err := issuer.IssuePair("u2")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	// An access token must never validate as a refresh token and vice versa.
	if _, err := issuer.VerifyRefresh(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for access token on refresh secret, got %v", err)
	}
	if _, err := issuer.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for refresh token on access secret, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(time.Hour, 24*time.Hour)
	other := NewTokenIssuer("other-access", "other-refresh", time.Hour, 24*time.Hour)

	pair, err := issuer.IssuePair("u3")
	if err != nil {
		t.Fatalf("IssuePair error: %v", err)
	}

	if _, err := other.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(time.Hour, 24*time.Hour)

	if _, err := issuer.VerifyAccess("not.a.jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for malformed token, got %v", err)
	}
}
