// Package models contains the storage records of the CRM, configured to
// work using GORM as the ORM, and their conversions to domain models.
package models

import (
	"time"

	domain "github.com/gartstein/crm/internal/crm/models"
	"github.com/google/uuid"
)

// User is the users table. Boolean columns carry no database default so
// that false is always written on insert.
type User struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username           string    `gorm:"size:100"`
	FirstName          string    `gorm:"size:150"`
	LastName           string    `gorm:"size:150"`
	Email              string    `gorm:"size:255;uniqueIndex"`
	PasswordHash       string    `gorm:"size:255"`
	Role               string    `gorm:"size:50"`
	ProfilePic         string    `gorm:"size:1000"`
	IsActive           bool
	IsAdmin            bool
	IsStaff            bool
	IsSuperuser        bool
	HasSalesAccess     bool
	HasMarketingAccess bool
	CompanyID          *uuid.UUID `gorm:"type:uuid;index"`
	DateJoined         time.Time  `gorm:"index"`
	LastLogin          *time.Time
}

// Company is the companies table.
type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:100"`
	Address   string    `gorm:"size:2000"`
	SubDomain string    `gorm:"size:30"`
	UserLimit int       `gorm:"check:user_limit >= 0"`
	Country   string    `gorm:"size:3"`
}

// Team is the teams table.
type Team struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"size:100"`
	Description string
	CreatedBy   *uuid.UUID `gorm:"type:uuid"`
	CreatedOn   time.Time
}

// Document is the documents table joined to users and teams.
type Document struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Title        string     `gorm:"size:1000;uniqueIndex"`
	DocumentFile string     `gorm:"size:5000"`
	Status       string     `gorm:"size:64"`
	CreatedBy    *uuid.UUID `gorm:"type:uuid;index"`
	CreatedOn    time.Time
	SharedTo     []User `gorm:"many2many:document_shared_to"`
	Teams        []Team `gorm:"many2many:document_teams"`
}

// Address is the addresses table.
type Address struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	AddressLine string    `gorm:"size:255"`
	Street      string    `gorm:"size:55"`
	City        string    `gorm:"size:255"`
	State       string    `gorm:"size:255"`
	Postcode    string    `gorm:"size:64"`
	Country     string    `gorm:"size:3"`
}

// Attachment is the attachments table.
type Attachment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CreatedBy  *uuid.UUID `gorm:"type:uuid;index"`
	FileName   string     `gorm:"size:60"`
	CreatedOn  time.Time
	Attachment string `gorm:"size:1000"`
}

// Comment is the comments table.
type Comment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Comment     string    `gorm:"size:255"`
	CommentedOn time.Time
	CommentedBy *uuid.UUID `gorm:"type:uuid"`
	UserID      *uuid.UUID `gorm:"type:uuid;index"`
}

// All lists every record for migration.
func All() []any {
	return []any{&User{}, &Company{}, &Team{}, &Document{}, &Address{}, &Attachment{}, &Comment{}}
}

func NewUser(u *domain.User) *User {
	return &User{
		ID:                 u.ID,
		Username:           u.Username,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		Role:               string(u.Role),
		ProfilePic:         u.ProfilePic,
		IsActive:           u.IsActive,
		IsAdmin:            u.IsAdmin,
		IsStaff:            u.IsStaff,
		IsSuperuser:        u.IsSuperuser,
		HasSalesAccess:     u.HasSalesAccess,
		HasMarketingAccess: u.HasMarketingAccess,
		CompanyID:          u.CompanyID,
		DateJoined:         u.DateJoined,
		LastLogin:          u.LastLogin,
	}
}

func (u *User) Domain() *domain.User {
	return &domain.User{
		ID:                 u.ID,
		Username:           u.Username,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		Role:               domain.Role(u.Role),
		ProfilePic:         u.ProfilePic,
		IsActive:           u.IsActive,
		IsAdmin:            u.IsAdmin,
		IsStaff:            u.IsStaff,
		IsSuperuser:        u.IsSuperuser,
		HasSalesAccess:     u.HasSalesAccess,
		HasMarketingAccess: u.HasMarketingAccess,
		CompanyID:          u.CompanyID,
		DateJoined:         u.DateJoined,
		LastLogin:          u.LastLogin,
	}
}

// UserColumns maps the set fields of c to their column names. The plain
// password is not a column and is ignored.
func UserColumns(c *domain.UserChanges) map[string]any {
	cols := map[string]any{}
	if c.Email != nil {
		cols["email"] = *c.Email
	}
	if c.FirstName != nil {
		cols["first_name"] = *c.FirstName
	}
	if c.LastName != nil {
		cols["last_name"] = *c.LastName
	}
	if c.Username != nil {
		cols["username"] = *c.Username
	}
	if c.Role != nil {
		cols["role"] = string(*c.Role)
	}
	if c.ProfilePic != nil {
		cols["profile_pic"] = *c.ProfilePic
	}
	if c.HasSalesAccess != nil {
		cols["has_sales_access"] = *c.HasSalesAccess
	}
	if c.HasMarketingAccess != nil {
		cols["has_marketing_access"] = *c.HasMarketingAccess
	}
	if c.PasswordHash != nil {
		cols["password_hash"] = *c.PasswordHash
	}
	return cols
}

func NewCompany(c *domain.Company) *Company {
	return &Company{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address,
		SubDomain: c.SubDomain,
		UserLimit: c.UserLimit,
		Country:   c.Country,
	}
}

func (c *Company) Domain() *domain.Company {
	return &domain.Company{
		ID:        c.ID,
		Name:      c.Name,
		Address:   c.Address,
		SubDomain: c.SubDomain,
		UserLimit: c.UserLimit,
		Country:   c.Country,
	}
}

func NewTeam(t *domain.Team) *Team {
	return &Team{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		CreatedOn:   t.CreatedOn,
	}
}

func (t *Team) Domain() domain.Team {
	return domain.Team{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		CreatedOn:   t.CreatedOn,
	}
}

// NewDocument converts d without its associations.
func NewDocument(d *domain.Document) *Document {
	return &Document{
		ID:           d.ID,
		Title:        d.Title,
		DocumentFile: d.DocumentFile,
		Status:       string(d.Status),
		CreatedBy:    d.CreatedBy,
		CreatedOn:    d.CreatedOn,
	}
}

func (d *Document) Domain() *domain.Document {
	doc := &domain.Document{
		ID:           d.ID,
		Title:        d.Title,
		DocumentFile: d.DocumentFile,
		Status:       domain.DocumentStatus(d.Status),
		CreatedBy:    d.CreatedBy,
		CreatedOn:    d.CreatedOn,
		SharedTo:     make([]domain.User, 0, len(d.SharedTo)),
		Teams:        make([]domain.Team, 0, len(d.Teams)),
	}
	for i := range d.SharedTo {
		doc.SharedTo = append(doc.SharedTo, *d.SharedTo[i].Domain())
	}
	for i := range d.Teams {
		doc.Teams = append(doc.Teams, d.Teams[i].Domain())
	}
	return doc
}

// DocumentColumns maps the set fields of c to their column names.
func DocumentColumns(c *domain.DocumentChanges) map[string]any {
	cols := map[string]any{}
	if c.Title != nil {
		cols["title"] = *c.Title
	}
	if c.DocumentFile != nil {
		cols["document_file"] = *c.DocumentFile
	}
	if c.Status != nil {
		cols["status"] = string(*c.Status)
	}
	return cols
}

func NewAddress(a *domain.Address) *Address {
	return &Address{
		ID:          a.ID,
		AddressLine: a.AddressLine,
		Street:      a.Street,
		City:        a.City,
		State:       a.State,
		Postcode:    a.Postcode,
		Country:     a.Country,
	}
}

func (a *Address) Domain() *domain.Address {
	return &domain.Address{
		ID:          a.ID,
		AddressLine: a.AddressLine,
		Street:      a.Street,
		City:        a.City,
		State:       a.State,
		Postcode:    a.Postcode,
		Country:     a.Country,
	}
}

func NewAttachment(a *domain.Attachment) *Attachment {
	return &Attachment{
		ID:         a.ID,
		CreatedBy:  a.CreatedBy,
		FileName:   a.FileName,
		CreatedOn:  a.CreatedOn,
		Attachment: a.Attachment,
	}
}

func (a *Attachment) Domain() *domain.Attachment {
	return &domain.Attachment{
		ID:         a.ID,
		CreatedBy:  a.CreatedBy,
		FileName:   a.FileName,
		CreatedOn:  a.CreatedOn,
		Attachment: a.Attachment,
	}
}

func NewComment(c *domain.Comment) *Comment {
	return &Comment{
		ID:          c.ID,
		Comment:     c.Comment,
		CommentedOn: c.CommentedOn,
		CommentedBy: c.CommentedBy,
		UserID:      c.UserID,
	}
}

func (c *Comment) Domain() *domain.Comment {
	return &domain.Comment{
		ID:          c.ID,
		Comment:     c.Comment,
		CommentedOn: c.CommentedOn,
		CommentedBy: c.CommentedBy,
		UserID:      c.UserID,
	}
}
