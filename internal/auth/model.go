package auth

import "time"

// Role is the closed set of user roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleStandard Role = "standard"
	RoleViewer   Role = "viewer"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStandard, RoleViewer:
		return true
	}
	return false
}

// Status is the account lifecycle state. Accounts are never physically
// removed; status transitions model removal.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusLocked    Status = "locked"
	StatusSuspended Status = "suspended"
)

// Permission is a grantable capability.
type Permission string

const (
	PermDocumentCreate  Permission = "document.create"
	PermDocumentRead    Permission = "document.read"
	PermDocumentUpdate  Permission = "document.update"
	PermDocumentDelete  Permission = "document.delete"
	PermDocumentApprove Permission = "document.approve"
	PermDocumentExport  Permission = "document.export"

	PermUserCreate Permission = "user.create"
	PermUserRead   Permission = "user.read"
	PermUserUpdate Permission = "user.update"
	PermUserDelete Permission = "user.delete"

	PermSystemConfig  Permission = "system.config"
	PermSystemBackup  Permission = "system.backup"
	PermSystemRestore Permission = "system.restore"
	PermSystemAudit   Permission = "system.audit"

	PermReportView   Permission = "report.view"
	PermReportCreate Permission = "report.create"
	PermReportExport Permission = "report.export"
)

// AllPermissions lists every known permission.
var AllPermissions = []Permission{
	PermDocumentCreate, PermDocumentRead, PermDocumentUpdate, PermDocumentDelete,
	PermDocumentApprove, PermDocumentExport,
	PermUserCreate, PermUserRead, PermUserUpdate, PermUserDelete,
	PermSystemConfig, PermSystemBackup, PermSystemRestore, PermSystemAudit,
	PermReportView, PermReportCreate, PermReportExport,
}

// rolePermissions is the single source of truth for what a role grants at
// user-creation time. The set is denormalized onto the user record, so a later
// change here does not silently alter already-granted rights.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: AllPermissions,
	RoleManager: {
		PermDocumentCreate, PermDocumentRead, PermDocumentUpdate, PermDocumentDelete,
		PermDocumentApprove, PermDocumentExport,
		PermUserRead,
		PermReportView, PermReportCreate, PermReportExport,
	},
	RoleStandard: {
		PermDocumentCreate, PermDocumentRead, PermDocumentUpdate, PermDocumentExport,
		PermReportView,
	},
	RoleViewer: {
		PermDocumentRead, PermReportView,
	},
}

// PermissionsForRole returns a copy of the role's granted set.
func PermissionsForRole(r Role) []Permission {
	src := rolePermissions[r]
	out := make([]Permission, len(src))
	copy(out, src)
	return out
}

// Session is a bearer credential embedded in its owning user's session list.
type Session struct {
	Token     string    `bson:"token" json:"token"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	SourceIP  string    `bson:"sourceIp,omitempty" json:"sourceIp,omitempty"`
}

// Preferences holds per-user UI settings carried for external callers.
type Preferences struct {
	Theme        string `bson:"theme" json:"theme"`
	Language     string `bson:"language" json:"language"`
	ItemsPerPage int    `bson:"itemsPerPage" json:"itemsPerPage"`
}

func DefaultPreferences() Preferences {
	return Preferences{Theme: "dark", Language: "id", ItemsPerPage: 50}
}

// User is the persistent account record.
type User struct {
	ID           string       `bson:"_id" json:"id"`
	Username     string       `bson:"username" json:"username"`
	Email        string       `bson:"email" json:"email"`
	FullName     string       `bson:"fullName" json:"fullName"`
	Department   string       `bson:"department,omitempty" json:"department,omitempty"`
	PasswordHash string       `bson:"passwordHash" json:"-"`
	PasswordSalt string       `bson:"passwordSalt" json:"-"`
	Role         Role         `bson:"role" json:"role"`
	Status       Status       `bson:"status" json:"status"`
	Permissions  []Permission `bson:"permissions" json:"permissions"`

	TOTPSecret  string `bson:"totpSecret" json:"-"`
	TOTPEnabled bool   `bson:"totpEnabled" json:"totpEnabled"`

	FailedLogins    int        `bson:"failedLogins" json:"-"`
	LastFailedLogin *time.Time `bson:"lastFailedLogin,omitempty" json:"-"`

	Sessions []Session `bson:"sessions" json:"-"`

	PasswordChangedAt  time.Time `bson:"passwordChangedAt" json:"-"`
	MustChangePassword bool      `bson:"mustChangePassword" json:"mustChangePassword"`

	LastLogin   *time.Time  `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	LastLoginIP string      `bson:"lastLoginIp,omitempty" json:"-"`
	Preferences Preferences `bson:"preferences" json:"preferences"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
	CreatedBy string    `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
}

// HasPermission is a pure membership check against the stored set.
func (u *User) HasPermission(p Permission) bool {
	for _, got := range u.Permissions {
		if got == p {
			return true
		}
	}
	return false
}

// Summary is the sanitized user view returned to callers. It never carries
// the password hash, salt, or second-factor secret.
type Summary struct {
	ID                 string       `json:"id"`
	Username           string       `json:"username"`
	Email              string       `json:"email"`
	FullName           string       `json:"fullName"`
	Department         string       `json:"department,omitempty"`
	Role               Role         `json:"role"`
	Status             Status       `json:"status"`
	Permissions        []Permission `json:"permissions"`
	TOTPEnabled        bool         `json:"totpEnabled"`
	MustChangePassword bool         `json:"mustChangePassword"`
	LastLogin          *time.Time   `json:"lastLogin,omitempty"`
	Preferences        Preferences  `json:"preferences"`
}

// HasPermission mirrors User.HasPermission for sanitized views.
func (s *Summary) HasPermission(p Permission) bool {
	for _, got := range s.Permissions {
		if got == p {
			return true
		}
	}
	return false
}

// Summarize strips credentials and session state from a user record.
func Summarize(u *User) *Summary {
	perms := make([]Permission, len(u.Permissions))
	copy(perms, u.Permissions)
	return &Summary{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		FullName:           u.FullName,
		Department:         u.Department,
		Role:               u.Role,
		Status:             u.Status,
		Permissions:        perms,
		TOTPEnabled:        u.TOTPEnabled,
		MustChangePassword: u.MustChangePassword,
		LastLogin:          u.LastLogin,
		Preferences:        u.Preferences,
	}
}
