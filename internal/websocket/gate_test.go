package websocket

import (
	"context"
	"errors"
	"testing"
)

type stubVerifier struct {
	principal *Principal
	err       error
	lastToken string
}

func (v *stubVerifier) Verify(token string) (*Principal, error) {
	v.lastToken = token
	if v.err != nil {
		return nil, v.err
	}
	return v.principal, nil
}

type stubMembership struct {
	member bool
	err    error
}

func (m *stubMembership) IsMember(ctx context.Context, userID, channelID uint) (bool, error) {
	return m.member, m.err
}

func TestAuthenticate(t *testing.T) {
	t.Run("empty token", func(t *testing.T) {
		gate := NewGate(&stubVerifier{}, &stubMembership{})
		if _, err := gate.Authenticate(""); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		gate := NewGate(&stubVerifier{err: errors.New("bad signature")}, &stubMembership{})
		if _, err := gate.Authenticate("garbage"); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		gate := NewGate(&stubVerifier{principal: &Principal{UserID: 7, Username: "alice"}}, &stubMembership{})
		principal, err := gate.Authenticate("good-token")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if principal.UserID != 7 || principal.Username != "alice" {
			t.Fatalf("unexpected principal: %+v", principal)
		}
	})

	t.Run("bearer prefix stripped", func(t *testing.T) {
		verifier := &stubVerifier{principal: &Principal{UserID: 1}}
		gate := NewGate(verifier, &stubMembership{})
		if _, err := gate.Authenticate("Bearer abc123"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if verifier.lastToken != "abc123" {
			t.Fatalf("prefix not stripped, verifier saw %q", verifier.lastToken)
		}
	})
}

func TestAuthorizeChannel(t *testing.T) {
	principal := &Principal{UserID: 1, Username: "alice"}

	t.Run("member admitted", func(t *testing.T) {
		gate := NewGate(&stubVerifier{}, &stubMembership{member: true})
		if err := gate.AuthorizeChannel(context.Background(), principal, 10); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("non member rejected", func(t *testing.T) {
		gate := NewGate(&stubVerifier{}, &stubMembership{member: false})
		if err := gate.AuthorizeChannel(context.Background(), principal, 10); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("store failure rejects instead of admitting", func(t *testing.T) {
		storeErr := errors.New("connection refused")
		gate := NewGate(&stubVerifier{}, &stubMembership{err: storeErr})
		err := gate.AuthorizeChannel(context.Background(), principal, 10)
		if err == nil {
			t.Fatal("expected error when membership lookup fails")
		}
		if errors.Is(err, ErrForbidden) {
			t.Fatal("lookup failure must be distinguishable from a membership denial")
		}
	})
}

func TestAuthorizeUser(t *testing.T) {
	gate := NewGate(&stubVerifier{}, &stubMembership{})
	principal := &Principal{UserID: 4}

	if err := gate.AuthorizeUser(principal, 4); err != nil {
		t.Fatalf("owner rejected: %v", err)
	}
	if err := gate.AuthorizeUser(principal, 5); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign user topic, got %v", err)
	}
}
