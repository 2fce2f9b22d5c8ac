package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultUserLimit is the user limit of a company created without one.
const DefaultUserLimit = 5

// Company defines the domain model for a tenant company.
type Company struct {
	ID        uuid.UUID
	Name      string
	Address   string
	SubDomain string
	UserLimit int
	// Country is an ISO 3166 alpha-2 code.
	Country string
}

// Team groups users that documents can be shared with.
type Team struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedBy   *uuid.UUID
	CreatedOn   time.Time
}

// DocumentStatus represents the lifecycle status of a document.
type DocumentStatus string

const (
	DocumentActive   DocumentStatus = "active"
	DocumentInactive DocumentStatus = "inactive"
)

// Document defines the domain model for an uploaded document.
type Document struct {
	ID uuid.UUID
	// Title is unique across all documents.
	Title string
	// DocumentFile is the stored file reference.
	DocumentFile string
	Status       DocumentStatus
	CreatedBy    *uuid.UUID
	CreatedOn    time.Time
	// SharedTo lists the users the document is shared with.
	SharedTo []User
	Teams    []Team
}

// DocumentChanges represents the writable fields of a Document.
type DocumentChanges struct {
	Title        *string
	DocumentFile *string
	Status       *DocumentStatus
}

// DocumentShares names the users and teams a document is shared with.
// A nil slice leaves the existing association untouched.
type DocumentShares struct {
	SharedTo []uuid.UUID
	Teams    []uuid.UUID
}

// Address is a postal address.
type Address struct {
	ID          uuid.UUID
	AddressLine string
	Street      string
	City        string
	State       string
	Postcode    string
	Country     string
}

// Attachment is a file attached by a user.
type Attachment struct {
	ID        uuid.UUID
	CreatedBy *uuid.UUID
	FileName  string
	CreatedOn time.Time
	// Attachment is the stored file reference; empty when nothing was uploaded.
	Attachment string
}

// Comment is a note left by a user on another user's profile.
type Comment struct {
	ID          uuid.UUID
	Comment     string
	CommentedOn time.Time
	CommentedBy *uuid.UUID
	// UserID is the user the comment is about.
	UserID *uuid.UUID
}
