package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arsipku/arsipku/internal/apperr"
)

// MemoryRepository is an in-memory Repository used by unit tests. It mirrors
// the conditional-update semantics of the Mongo implementation.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*User)}
}

func cloneUser(u *User) *User {
	cp := *u
	cp.Permissions = append([]Permission(nil), u.Permissions...)
	cp.Sessions = append([]Session(nil), u.Sessions...)
	if u.LastLogin != nil {
		t := *u.LastLogin
		cp.LastLogin = &t
	}
	if u.LastFailedLogin != nil {
		t := *u.LastFailedLogin
		cp.LastFailedLogin = &t
	}
	return &cp
}

func (r *MemoryRepository) Insert(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, got := range r.byID {
		if got.Username == u.Username || got.Email == u.Email {
			return apperr.Conflict("username or email already exists")
		}
	}
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byID[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r *MemoryRepository) GetByLogin(ctx context.Context, usernameOrEmail string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Username == usernameOrEmail || u.Email == usernameOrEmail {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) RecordLoginFailure(ctx context.Context, id string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return 0, apperr.NotFound("user not found")
	}
	u.FailedLogins++
	u.LastFailedLogin = &at
	u.UpdatedAt = at
	return u.FailedLogins, nil
}

func (r *MemoryRepository) RecordLoginSuccess(ctx context.Context, id string, s Session, maxSessions int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	now := time.Now().UTC()
	u.FailedLogins = 0
	u.LastFailedLogin = nil
	u.LastLogin = &now
	u.LastLoginIP = s.SourceIP
	u.UpdatedAt = now
	u.Sessions = append(u.Sessions, s)
	if len(u.Sessions) > maxSessions {
		u.Sessions = u.Sessions[len(u.Sessions)-maxSessions:]
	}
	return nil
}

func (r *MemoryRepository) RemoveSession(ctx context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	kept := u.Sessions[:0]
	for _, s := range u.Sessions {
		if s.Token != token {
			kept = append(kept, s)
		}
	}
	u.Sessions = kept
	return nil
}

func (r *MemoryRepository) SetPassword(ctx context.Context, id, hash, salt string, mustChange bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	now := time.Now().UTC()
	u.PasswordHash = hash
	u.PasswordSalt = salt
	u.PasswordChangedAt = now
	u.MustChangePassword = mustChange
	u.Sessions = nil
	u.UpdatedAt = now
	return nil
}

func (r *MemoryRepository) SetStatus(ctx context.Context, id string, st Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.Status = st
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) SetTOTPEnabled(ctx context.Context, id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.TOTPEnabled = enabled
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) SetRole(ctx context.Context, id string, role Role, perms []Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.Role = role
	u.Permissions = append([]Permission(nil), perms...)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) GrantPermission(ctx context.Context, id string, p Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	for _, got := range u.Permissions {
		if got == p {
			return nil
		}
	}
	u.Permissions = append(u.Permissions, p)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) SetPreferences(ctx context.Context, id string, prefs Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.Preferences = prefs
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) List(ctx context.Context, skip, limit int64) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*User, 0, len(r.byID))
	for _, u := range r.byID {
		all = append(all, cloneUser(u))
	}
	// newest first
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if skip >= int64(len(all)) {
		return []*User{}, nil
	}
	all = all[skip:]
	if limit > 0 && limit < int64(len(all)) {
		all = all[:limit]
	}
	return all, nil
}
