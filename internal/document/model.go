package document

import "time"

// Document statuses.
const (
	StatusDraft      = "draft"
	StatusRegistered = "registered"
	StatusInProgress = "in_progress"
	StatusApproved   = "approved"
	StatusArchived   = "archived"
)

// Document types.
const (
	TypeIncoming = "Incoming"
	TypeOutgoing = "Outgoing"
	TypeMemo     = "Memo"
)

// Fields carries the business payload of a correspondence record. The letter
// number is the external reference printed on the letter itself; the
// document number is assigned internally from the counter.
type Fields struct {
	DocType        string    `bson:"docType" json:"docType"`
	LetterNumber   string    `bson:"letterNumber,omitempty" json:"letterNumber,omitempty"`
	LetterDate     time.Time `bson:"letterDate,omitempty" json:"letterDate,omitempty"`
	Subject        string    `bson:"subject" json:"subject"`
	Origin         string    `bson:"origin,omitempty" json:"origin,omitempty"`
	Destination    string    `bson:"destination,omitempty" json:"destination,omitempty"`
	Urgency        string    `bson:"urgency,omitempty" json:"urgency,omitempty"`
	Classification string    `bson:"classification,omitempty" json:"classification,omitempty"`
	Notes          string    `bson:"notes,omitempty" json:"notes,omitempty"`
	AttachmentKey  string    `bson:"attachmentKey,omitempty" json:"attachmentKey,omitempty"`
	Status         string    `bson:"status,omitempty" json:"status,omitempty"`
}

// Document is the persistent record. Version starts at 1 and increases by
// exactly 1 per successful update; the update path conditions its write on
// the version it observed, so concurrent writers cannot clobber each other.
type Document struct {
	ID             string `bson:"_id" json:"id"`
	DocumentNumber int64  `bson:"documentNumber" json:"documentNumber"`
	Fields         `bson:",inline"`

	Version int64 `bson:"version" json:"version"`

	Deleted   bool       `bson:"deleted" json:"deleted"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	DeletedBy string     `bson:"deletedBy,omitempty" json:"deletedBy,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
	CreatedBy string    `bson:"createdBy" json:"createdBy"`
	UpdatedBy string    `bson:"updatedBy" json:"updatedBy"`
}

// Version snapshots are taken immediately before an update is applied and are
// never mutated afterwards.
type VersionSnapshot struct {
	ID          string    `bson:"_id" json:"id"`
	OriginalID  string    `bson:"originalId" json:"originalId"`
	VersionedAt time.Time `bson:"versionedAt" json:"versionedAt"`
	Document    Document  `bson:"document" json:"document"`
}

// Filter narrows search results. Zero values mean "any".
type Filter struct {
	DocType        string
	Status         string
	Classification string
	// IncludeDeleted includes soft-deleted records; by default they are hidden.
	IncludeDeleted bool
}

// SearchResult carries one page plus the total match count independent of the
// page window.
type SearchResult struct {
	Items []*Document `json:"items"`
	Total int64       `json:"total"`
	Skip  int64       `json:"skip"`
	Limit int64       `json:"limit"`
}

// Bucket is one aggregation row: a field value and how many records carry it.
type Bucket struct {
	Value string `bson:"_id" json:"value"`
	Count int64  `bson:"count" json:"count"`
}

// Stats summarizes the whole collection, soft-deleted records included.
type Stats struct {
	Total    int64    `json:"totalDocuments"`
	Deleted  int64    `json:"deletedDocuments"`
	ByType   []Bucket `json:"byType"`
	ByStatus []Bucket `json:"byStatus"`
}
