// Package session owns the persisted session record: the upstream
// bearer token, user id and role that survive gateway restarts.
package session

import (
	"context"
	"time"
)

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// Session is the authenticated identity for one UI session.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resumable reports whether the record is complete enough to attempt
// verification at bootstrap. Token, user id and role must all be set.
func (s *Session) Resumable() bool {
	return s != nil && s.Token != "" && s.UserID != "" && s.Role != ""
}

// Store persists sessions across gateway restarts.
type Store interface {
	Save(ctx context.Context, sess *Session) error
	Load(ctx context.Context, id string) (*Session, bool, error)
	Delete(ctx context.Context, id string) error
}

// TokenSource adapts a stored session to the remote client's token
// lookup. The store is read on every call, never cached in a closure.
type TokenSource struct {
	Sessions  Store
	SessionID string
}

func (ts TokenSource) Token(ctx context.Context) (string, error) {
	sess, ok, err := ts.Sessions.Load(ctx, ts.SessionID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return sess.Token, nil
}
