package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"atelier/portal/internal/backend"
	"atelier/portal/internal/rbac"
)

// Syncer is the upstream user-sync call made after every sign-in.
type Syncer interface {
	SyncUser(ctx context.Context, email, displayName string) (backend.SyncedUser, error)
}

// Identity is the outcome of a sign-in: who the user is and which role the
// portal grants them. Synced is false when the role is the fallback.
type Identity struct {
	Email       string
	DisplayName string
	Role        rbac.Role
	Synced      bool
}

type Resolver struct {
	syncer  Syncer
	timeout time.Duration
	logger  *slog.Logger
}

const defaultSyncTimeout = 10 * time.Second

func NewResolver(syncer Syncer, timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}
	return &Resolver{syncer: syncer, timeout: timeout, logger: logger.With("component", "resolver")}
}

// Resolve awaits a single sync call. It always returns: any sync error, an
// empty level or an unrecognized level yields rbac.DefaultRole.
func (r *Resolver) Resolve(ctx context.Context, email, displayName string) Identity {
	identity := Identity{
		Email:       strings.TrimSpace(email),
		DisplayName: strings.TrimSpace(displayName),
		Role:        rbac.DefaultRole,
	}

	syncCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	user, err := r.syncer.SyncUser(syncCtx, identity.Email, identity.DisplayName)
	if err != nil {
		r.logger.Warn("user sync failed, using default role", "email", identity.Email, "role", identity.Role, "err", err)
		return identity
	}

	role := rbac.Role(strings.ToUpper(strings.TrimSpace(user.UserLevel)))
	if !rbac.Known(role) {
		r.logger.Warn("unrecognized user level, using default role", "email", identity.Email, "level", user.UserLevel)
		return identity
	}
	identity.Role = role
	identity.Synced = true
	return identity
}
