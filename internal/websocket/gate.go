package websocket

import (
	"context"
	"errors"
	"strings"
)

// Application close codes sent when admission is rejected. Clients branch on
// these: 4401 means re-authenticate, 4403 means give up.
const (
	CloseUnauthenticated = 4401
	CloseForbidden       = 4403
	CloseInternalError   = 4000
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Principal is the authenticated identity a credential resolves to.
type Principal struct {
	UserID   uint
	Username string
}

// TokenVerifier validates a bearer credential. It is the same verification
// the REST middleware performs: same secret, same claims.
type TokenVerifier interface {
	Verify(token string) (*Principal, error)
}

// MembershipChecker reports whether a user holds an active membership in a
// channel. Backed by the relational store.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID, channelID uint) (bool, error)
}

// Gate authorizes a connection against a topic before admission. It fails
// closed: any decode failure, expired credential, or missing membership is a
// rejection, never a degraded admission.
type Gate struct {
	tokens  TokenVerifier
	members MembershipChecker
}

func NewGate(tokens TokenVerifier, members MembershipChecker) *Gate {
	return &Gate{tokens: tokens, members: members}
}

// Authenticate resolves the query-parameter token to a principal.
// WebSocket upgrade requests cannot always set headers, so the credential
// arrives as ?token= but is validated exactly like a REST bearer token.
func (g *Gate) Authenticate(token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	token = strings.TrimPrefix(token, "Bearer ")
	principal, err := g.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return principal, nil
}

// AuthorizeChannel verifies the principal may join a channel topic.
func (g *Gate) AuthorizeChannel(ctx context.Context, principal *Principal, channelID uint) error {
	ok, err := g.members.IsMember(ctx, principal.UserID, channelID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// AuthorizeUser verifies the principal owns the requested user topic.
func (g *Gate) AuthorizeUser(principal *Principal, userID uint) error {
	if principal.UserID != userID {
		return ErrForbidden
	}
	return nil
}
