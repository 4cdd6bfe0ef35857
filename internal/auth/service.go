package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"github.com/arsipku/arsipku/internal/apperr"
	"github.com/arsipku/arsipku/internal/audit"
	"github.com/arsipku/arsipku/internal/config"
	"github.com/arsipku/arsipku/pkg/logger"
	"github.com/arsipku/arsipku/pkg/metrics"
)

// Service owns identity, credential verification, session issuance and the
// role/permission model. It performs no transport concerns; handlers call it
// with plain values.
type Service struct {
	repo Repository
	rec  audit.Recorder
	cfg  config.SecurityConfig
}

func NewService(repo Repository, rec audit.Recorder, cfg config.SecurityConfig) *Service {
	return &Service{repo: repo, rec: rec, cfg: cfg}
}

func (s *Service) policy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        s.cfg.PasswordMinLength,
		RequireUppercase: s.cfg.RequireUppercase,
		RequireLowercase: s.cfg.RequireLowercase,
		RequireNumber:    s.cfg.RequireNumber,
		RequireSpecial:   s.cfg.RequireSpecial,
	}
}

// record appends an audit entry. Audit failures are logged, never propagated:
// losing the entry is less harmful than losing the mutation it describes.
func (s *Service) record(ctx context.Context, e audit.Entry) {
	if err := s.rec.Record(ctx, e); err != nil {
		metrics.AuditWriteFailures.Inc()
		logger.Errorf("audit write failed (action=%s user=%s): %v", e.Action, e.UserID, err)
	}
}

// CreateUser registers a new account. The permission set is derived from the
// role once and stored on the record. A TOTP secret is generated but the
// second factor stays disabled until explicitly enabled.
func (s *Service) CreateUser(ctx context.Context, username, email, password, fullName string, role Role, department, createdBy string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		return "", apperr.Validation("username is required")
	}
	if !ValidEmail(email) {
		return "", apperr.Validation("invalid email format")
	}
	if !ValidRole(role) {
		return "", apperr.Validation("unknown role")
	}
	if errs := s.policy().Validate(password); len(errs) > 0 {
		return "", apperr.Validation("password validation failed: " + strings.Join(errs, ", "))
	}

	hash, salt, err := HashPassword(password)
	if err != nil {
		return "", apperr.Storage("hash password", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: s.cfg.TOTPIssuer, AccountName: email})
	if err != nil {
		return "", apperr.Storage("generate totp secret", err)
	}

	now := time.Now().UTC()
	u := &User{
		ID:                uuid.NewString(),
		Username:          username,
		Email:             email,
		FullName:          fullName,
		Department:        department,
		PasswordHash:      hash,
		PasswordSalt:      salt,
		Role:              role,
		Status:            StatusActive,
		Permissions:       PermissionsForRole(role),
		TOTPSecret:        key.Secret(),
		PasswordChangedAt: now,
		Preferences:       DefaultPreferences(),
		CreatedAt:         now,
		UpdatedAt:         now,
		CreatedBy:         createdBy,
	}

	if err := s.repo.Insert(ctx, u); err != nil {
		return "", err
	}
	logger.Infof("user created: %s", username)
	s.record(ctx, audit.Entry{
		Action:    audit.ActionUserCreated,
		UserID:    createdBy,
		SubjectID: u.ID,
		Details:   map[string]any{"username": username, "role": string(role)},
	})
	return u.ID, nil
}

// AuthResult is returned on successful authentication.
type AuthResult struct {
	SessionToken string    `json:"sessionToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         *Summary  `json:"user"`
}

// Authenticate verifies credentials and mints a session. Not-found and
// wrong-password both yield "invalid credentials" so usernames are not
// disclosed; status-based refusals are distinct because the account is known
// once the username matched.
func (s *Service) Authenticate(ctx context.Context, usernameOrEmail, password, sourceIP string) (*AuthResult, error) {
	login := strings.ToLower(strings.TrimSpace(usernameOrEmail))
	u, err := s.repo.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if u == nil {
		logger.Warnf("authentication failed: user not found: %s", login)
		metrics.LoginFailures.Inc()
		return nil, apperr.Authentication("invalid credentials")
	}

	switch u.Status {
	case StatusLocked:
		return nil, apperr.Authentication("account is locked")
	case StatusSuspended:
		return nil, apperr.Authentication("account is suspended")
	case StatusInactive:
		return nil, apperr.Authentication("account is inactive")
	}

	if !VerifyPassword(password, u.PasswordHash, u.PasswordSalt) {
		metrics.LoginFailures.Inc()
		count, ferr := s.repo.RecordLoginFailure(ctx, u.ID, time.Now().UTC())
		if ferr != nil {
			return nil, ferr
		}
		s.record(ctx, audit.Entry{
			Action:   audit.ActionLoginFailed,
			UserID:   u.ID,
			Details:  map[string]any{"failedLogins": count},
			SourceIP: sourceIP,
		})
		if count >= s.cfg.LockoutThreshold {
			if lerr := s.repo.SetStatus(ctx, u.ID, StatusLocked); lerr != nil {
				return nil, lerr
			}
			metrics.AccountLockouts.Inc()
			logger.Warnf("account locked after %d failed attempts: %s", count, u.Username)
			s.record(ctx, audit.Entry{Action: audit.ActionAccountLocked, UserID: u.ID, SourceIP: sourceIP})
			return nil, apperr.Authentication("account locked due to multiple failed attempts")
		}
		return nil, apperr.Authentication("invalid credentials")
	}

	token, err := NewSessionToken()
	if err != nil {
		return nil, apperr.Storage("mint session token", err)
	}
	now := time.Now().UTC()
	sess := Session{
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
		SourceIP:  sourceIP,
	}
	if err := s.repo.RecordLoginSuccess(ctx, u.ID, sess, s.cfg.MaxSessionsPerUser); err != nil {
		return nil, err
	}

	metrics.Logins.Inc()
	logger.Infof("user authenticated: %s", u.Username)
	s.record(ctx, audit.Entry{Action: audit.ActionUserLogin, UserID: u.ID, SourceIP: sourceIP})

	return &AuthResult{SessionToken: token, ExpiresAt: sess.ExpiresAt, User: Summarize(u)}, nil
}

// VerifySession returns the user's summary when the token exists on the user
// and has not expired. An absent or expired token yields nil, nil: an expected
// outcome, not an error. Expiry is checked lazily here; there is no sweeper.
func (s *Service) VerifySession(ctx context.Context, userID, token string) (*Summary, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	now := time.Now().UTC()
	for _, sess := range u.Sessions {
		if sess.Token == token && sess.ExpiresAt.After(now) {
			return Summarize(u), nil
		}
	}
	return nil, nil
}

// Logout removes the session token. Idempotent: an unknown token is not an error.
func (s *Service) Logout(ctx context.Context, userID, token string) error {
	if err := s.repo.RemoveSession(ctx, userID, token); err != nil {
		return err
	}
	s.record(ctx, audit.Entry{Action: audit.ActionUserLogout, UserID: userID})
	return nil
}

// ChangePassword requires the current password and invalidates every session
// for the user, forcing re-login everywhere.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.NotFound("user not found")
	}
	if !VerifyPassword(oldPassword, u.PasswordHash, u.PasswordSalt) {
		return apperr.Authentication("current password is incorrect")
	}
	if errs := s.policy().Validate(newPassword); len(errs) > 0 {
		return apperr.Validation("password validation failed: " + strings.Join(errs, ", "))
	}
	hash, salt, err := HashPassword(newPassword)
	if err != nil {
		return apperr.Storage("hash password", err)
	}
	if err := s.repo.SetPassword(ctx, userID, hash, salt, false); err != nil {
		return err
	}
	logger.Infof("password changed for user: %s", userID)
	s.record(ctx, audit.Entry{Action: audit.ActionPasswordChanged, UserID: userID})
	return nil
}

// ResetPassword is the administrative path: no old password needed, and the
// user must change the password on next login.
func (s *Service) ResetPassword(ctx context.Context, actorID, userID, newPassword string) error {
	if errs := s.policy().Validate(newPassword); len(errs) > 0 {
		return apperr.Validation("password validation failed: " + strings.Join(errs, ", "))
	}
	hash, salt, err := HashPassword(newPassword)
	if err != nil {
		return apperr.Storage("hash password", err)
	}
	if err := s.repo.SetPassword(ctx, userID, hash, salt, true); err != nil {
		return err
	}
	logger.Infof("password reset for user: %s", userID)
	s.record(ctx, audit.Entry{Action: audit.ActionPasswordReset, UserID: actorID, SubjectID: userID})
	return nil
}

// EnableTOTP activates the second factor and returns the provisioning URI for
// authenticator apps.
func (s *Service) EnableTOTP(ctx context.Context, userID string) (string, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", apperr.NotFound("user not found")
	}
	if err := s.repo.SetTOTPEnabled(ctx, userID, true); err != nil {
		return "", err
	}
	s.record(ctx, audit.Entry{Action: audit.ActionTOTPEnabled, UserID: userID})
	return provisioningURI(s.cfg.TOTPIssuer, u.Email, u.TOTPSecret), nil
}

// VerifyTOTP checks a time-based code with a one-period skew tolerance.
// Returns false, not an error, on mismatch or when the factor is disabled.
func (s *Service) VerifyTOTP(ctx context.Context, userID, code string) (bool, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if u == nil || !u.TOTPEnabled {
		return false, nil
	}
	return totp.Validate(code, u.TOTPSecret), nil
}

// HasPermission is a membership check against the stored permission set.
func (s *Service) HasPermission(ctx context.Context, userID string, p Permission) (bool, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if u == nil {
		return false, nil
	}
	return u.HasPermission(p), nil
}

// ChangeRole reassigns the role and replaces the stored permission set with
// the new role's table entry. Individual grants made earlier do not survive;
// use GrantPermission afterwards to re-apply exceptions.
func (s *Service) ChangeRole(ctx context.Context, actorID, userID string, role Role) error {
	if !ValidRole(role) {
		return apperr.Validation("unknown role")
	}
	if err := s.repo.SetRole(ctx, userID, role, PermissionsForRole(role)); err != nil {
		return err
	}
	s.record(ctx, audit.Entry{
		Action:    audit.ActionRoleChanged,
		UserID:    actorID,
		SubjectID: userID,
		Details:   map[string]any{"role": string(role)},
	})
	return nil
}

// GrantPermission adds a single permission on top of the role-derived set.
func (s *Service) GrantPermission(ctx context.Context, actorID, userID string, p Permission) error {
	if err := s.repo.GrantPermission(ctx, userID, p); err != nil {
		return err
	}
	s.record(ctx, audit.Entry{
		Action:    audit.ActionRoleChanged,
		UserID:    actorID,
		SubjectID: userID,
		Details:   map[string]any{"granted": string(p)},
	})
	return nil
}

// GetUser returns a sanitized view of the account.
func (s *Service) GetUser(ctx context.Context, userID string) (*Summary, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return Summarize(u), nil
}

// ListUsers returns sanitized accounts, newest first.
func (s *Service) ListUsers(ctx context.Context, skip, limit int64) ([]*Summary, error) {
	users, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*Summary, 0, len(users))
	for _, u := range users {
		out = append(out, Summarize(u))
	}
	return out, nil
}

// UpdatePreferences stores the caller's UI settings.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, prefs Preferences) error {
	return s.repo.SetPreferences(ctx, userID, prefs)
}

func provisioningURI(issuer, account, secret string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	return fmt.Sprintf("otpauth://totp/%s:%s?%s", url.PathEscape(issuer), url.PathEscape(account), v.Encode())
}
