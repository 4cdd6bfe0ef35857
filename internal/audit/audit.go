package audit

import (
	"context"
	"time"
)

// Action kinds recorded in the audit trail.
const (
	ActionUserCreated     = "user_created"
	ActionUserLogin       = "user_login"
	ActionLoginFailed     = "login_failed"
	ActionAccountLocked   = "account_locked"
	ActionUserLogout      = "user_logout"
	ActionPasswordChanged = "password_changed"
	ActionPasswordReset   = "password_reset"
	ActionTOTPEnabled     = "totp_enabled"
	ActionRoleChanged     = "role_changed"
	ActionDocCreated      = "document_created"
	ActionDocUpdated      = "document_updated"
	ActionDocDeleted      = "document_deleted"
	ActionBackupCreated   = "backup_created"
	ActionBackupRestored  = "backup_restored"
)

// Entry is a single append-only audit record. Entries are never updated or
// deleted once written.
type Entry struct {
	ID        string         `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
	Action    string         `bson:"action" json:"action"`
	UserID    string         `bson:"userId" json:"userId"`
	SubjectID string         `bson:"subjectId,omitempty" json:"subjectId,omitempty"`
	Details   map[string]any `bson:"details,omitempty" json:"details,omitempty"`
	SourceIP  string         `bson:"sourceIp,omitempty" json:"sourceIp,omitempty"`
}

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	Action    string
	UserID    string
	SubjectID string
}

// Recorder is the append-only sink. Record errors are reported to the caller
// but services must not roll back the mutation the entry describes.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	List(ctx context.Context, f Filter, skip, limit int64) ([]Entry, error)
}
