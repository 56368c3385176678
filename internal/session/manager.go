package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"atelier/portal/internal/auth"
	"atelier/portal/internal/rbac"
	"atelier/portal/internal/store"
	"atelier/portal/internal/util"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrEmailRequired = errors.New("email is required")
)

// Session is the explicit per-request identity handed to every handler.
type Session struct {
	ID          string    `json:"-"`
	Token       string    `json:"token,omitempty"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        rbac.Role `json:"role"`
	Synced      bool      `json:"synced,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Manager owns session init (SignIn) and teardown (SignOut).
type Manager struct {
	store    Store
	resolver *Resolver
	signer   *auth.Signer
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewManager(sessions Store, resolver *Resolver, secret []byte, ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		store:    sessions,
		resolver: resolver,
		signer:   auth.NewSigner(secret),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With("component", "session"),
	}
}

func (m *Manager) SignIn(ctx context.Context, email, displayName string) (Session, error) {
	if strings.TrimSpace(email) == "" {
		return Session{}, ErrEmailRequired
	}
	identity := m.resolver.Resolve(ctx, email, displayName)

	now := m.now().UTC()
	sess := Session{
		ID:          util.NewID("ses"),
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		Role:        identity.Role,
		Synced:      identity.Synced,
		ExpiresAt:   now.Add(m.ttl),
	}
	token, err := m.signer.Issue(auth.Claims{
		SID:   sess.ID,
		Email: sess.Email,
		Name:  sess.DisplayName,
		Role:  string(sess.Role),
		Exp:   sess.ExpiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}
	sess.Token = token

	err = m.store.SaveSession(ctx, store.SessionRecord{
		Key:         auth.HashToken(sess.ID),
		Email:       sess.Email,
		DisplayName: sess.DisplayName,
		Role:        string(sess.Role),
		CreatedAt:   now,
		ExpiresAt:   sess.ExpiresAt,
	})
	if err != nil {
		return Session{}, fmt.Errorf("persist session: %w", err)
	}
	m.logger.Info("signed in", "email", sess.Email, "role", sess.Role, "synced", sess.Synced)
	return sess, nil
}

// Lookup verifies the token and loads its record. A valid signature is not
// enough: a signed-out session has no record and is rejected.
func (m *Manager) Lookup(ctx context.Context, token string) (Session, error) {
	claims, err := m.signer.Parse(token)
	if err != nil {
		return Session{}, err
	}
	record, err := m.store.LookupSession(ctx, auth.HashToken(claims.SID))
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	return Session{
		ID:          claims.SID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
		Role:        rbac.Normalize(record.Role),
		ExpiresAt:   record.ExpiresAt,
	}, nil
}

func (m *Manager) SignOut(ctx context.Context, sess Session) error {
	if err := m.store.RevokeSession(ctx, auth.HashToken(sess.ID)); err != nil {
		return err
	}
	m.logger.Info("signed out", "email", sess.Email)
	return nil
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

type contextKey struct{}

func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(Session)
	return sess, ok
}
