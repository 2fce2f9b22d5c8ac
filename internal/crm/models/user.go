// Package models defines the core domain models of the CRM: users,
// companies, teams, documents, addresses, attachments and comments.
// They carry no storage or transport tags.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents the role a user holds inside the CRM.
type Role string

const (
	// RoleAdmin can manage other users and their capability flags.
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Roles lists every valid Role.
var Roles = []Role{RoleAdmin, RoleUser}

// App names derived from capability flags.
const (
	AppSales     = "sales"
	AppMarketing = "marketing"
)

// User defines the domain model for a CRM account.
type User struct {
	// ID is the unique identifier for the user.
	ID uuid.UUID
	// Username is an optional display handle.
	Username  string
	FirstName string
	LastName  string
	// Email is unique across all users.
	Email string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string
	Role         Role
	// ProfilePic is the stored file reference of the profile picture.
	ProfilePic string
	IsActive   bool
	IsAdmin    bool
	IsStaff    bool
	// IsSuperuser grants the ADMIN policy regardless of Role.
	IsSuperuser bool
	// HasSalesAccess and HasMarketingAccess are the capability flags.
	HasSalesAccess     bool
	HasMarketingAccess bool
	// CompanyID is the company the user belongs to, if any.
	CompanyID  *uuid.UUID
	DateJoined time.Time
	LastLogin  *time.Time
}

// AppName returns the application the user lands on, derived from the
// capability flags. Sales access wins over marketing access.
func (u *User) AppName() string {
	switch {
	case u.HasSalesAccess:
		return AppSales
	case u.HasMarketingAccess:
		return AppMarketing
	default:
		return ""
	}
}

// ActsAsAdmin reports whether u is granted admin powers, either through
// the ADMIN role or as a superuser.
func (u *User) ActsAsAdmin() bool {
	return u.IsSuperuser || u.Role == RoleAdmin
}

// UserChanges represents the fields that can be written for a User.
// Pointer types are used to allow partial updates.
type UserChanges struct {
	Email              *string
	FirstName          *string
	LastName           *string
	Username           *string
	Role               *Role
	ProfilePic         *string
	HasSalesAccess     *bool
	HasMarketingAccess *bool
	// PasswordHash replaces the stored hash when set.
	PasswordHash *string
	// Password is the plain password; empty means unchanged.
	Password string
}
