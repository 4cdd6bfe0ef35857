package auth

import (
	"context"
	"time"
)

// Repository defines persistence operations for user records. Every mutation
// that touches a single record is atomic per record; implementations must not
// serialize unrelated users against each other.
type Repository interface {
	// Insert stores a new user. Returns apperr.Conflict when the username or
	// email is already taken.
	Insert(ctx context.Context, u *User) error

	// GetByID returns nil, nil when no user exists with the identifier.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByLogin resolves a lowercase-normalized username or email.
	GetByLogin(ctx context.Context, usernameOrEmail string) (*User, error)

	// RecordLoginFailure bumps the failure counter atomically and returns the
	// new count, so the caller can apply the lockout threshold race-free.
	RecordLoginFailure(ctx context.Context, id string, at time.Time) (int, error)

	// RecordLoginSuccess resets the failure counter, stamps last-login info and
	// appends the session, evicting the oldest past maxSessions.
	RecordLoginSuccess(ctx context.Context, id string, s Session, maxSessions int) error

	// RemoveSession drops the token from the user's session list. Idempotent.
	RemoveSession(ctx context.Context, id, token string) error

	// SetPassword replaces the credential material and clears every session.
	SetPassword(ctx context.Context, id, hash, salt string, mustChange bool) error

	SetStatus(ctx context.Context, id string, st Status) error
	SetTOTPEnabled(ctx context.Context, id string, enabled bool) error

	// SetRole reassigns the role and replaces the stored permission set.
	SetRole(ctx context.Context, id string, role Role, perms []Permission) error

	// GrantPermission adds a single permission to the stored set.
	GrantPermission(ctx context.Context, id string, p Permission) error

	SetPreferences(ctx context.Context, id string, prefs Preferences) error

	// List returns users ordered by creation time, newest first.
	List(ctx context.Context, skip, limit int64) ([]*User, error)
}
