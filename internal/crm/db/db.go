package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	records "github.com/gartstein/crm/internal/crm/db/models"
	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"name" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
}

// DSN returns the postgres connection string of cfg.
func (cfg *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

func NewRepository(cfg *Config) (*Repository, error) {
	return Open(postgres.Open(cfg.DSN()))
}

// Open connects through dialector and migrates every table.
func Open(dialector gorm.Dialector) (*Repository, error) {
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(records.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// translate maps gorm errors onto the CRM sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return e.ErrDuplicate
	case errors.Is(err, gorm.ErrRecordNotFound):
		return e.ErrNotFound
	default:
		return err
	}
}

func now() time.Time {
	return time.Now().UTC()
}

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = now()
	}
	return translate(r.db.WithContext(ctx).Create(records.NewUser(user)).Error)
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user records.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return user.Domain(), nil
}

// UpdateUser writes the set fields of changes, a new password hash
// included, in one statement and returns the stored user.
func (r *Repository) UpdateUser(ctx context.Context, id uuid.UUID, changes *models.UserChanges) (*models.User, error) {
	cols := records.UserColumns(changes)
	if len(cols) > 0 {
		result := r.db.WithContext(ctx).Model(&records.User{}).
			Where("id = ?", id).
			Updates(cols)
		if result.Error != nil {
			return nil, translate(result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, e.ErrNotFound
		}
	}
	return r.GetUser(ctx, id)
}

// SetPassword stores a new password hash for the user.
func (r *Repository) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	result := r.db.WithContext(ctx).Model(&records.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.ErrNotFound
	}
	return nil
}

// UserExistsByEmail reports whether a user other than exclude has email.
// uuid.Nil excludes nobody.
func (r *Repository) UserExistsByEmail(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&records.User{}).Where("email = ?", email)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	result := query.Limit(1).Count(&count)
	return count > 0, result.Error
}

// FindUserByEmailFold returns the most recently joined user whose email
// matches case-insensitively.
func (r *Repository) FindUserByEmailFold(ctx context.Context, email string) (*models.User, error) {
	var user records.User
	result := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		Order("date_joined DESC").
		First(&user)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return user.Domain(), nil
}

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(records.NewCompany(company)).Error)
}

func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company records.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return company.Domain(), nil
}

func (r *Repository) CreateTeam(ctx context.Context, team *models.Team) error {
	if team.ID == uuid.Nil {
		team.ID = uuid.New()
	}
	if team.CreatedOn.IsZero() {
		team.CreatedOn = now()
	}
	return translate(r.db.WithContext(ctx).Create(records.NewTeam(team)).Error)
}

// CreateDocument stores doc together with the users and teams it is
// shared with and returns the stored document.
func (r *Repository) CreateDocument(ctx context.Context, doc *models.Document, shares models.DocumentShares) (*models.Document, error) {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.CreatedOn.IsZero() {
		doc.CreatedOn = now()
	}

	err := r.WithTransaction(ctx, func(tx *Repository) error {
		rec := records.NewDocument(doc)
		if err := tx.db.WithContext(ctx).Omit("SharedTo", "Teams").Create(rec).Error; err != nil {
			return translate(err)
		}
		return tx.replaceShares(ctx, rec, shares)
	})
	if err != nil {
		return nil, err
	}
	return r.GetDocument(ctx, doc.ID)
}

// GetDocument returns the document with its users and teams loaded.
func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var doc records.Document
	result := r.db.WithContext(ctx).
		Preload("SharedTo").
		Preload("Teams").
		First(&doc, "id = ?", id)
	if result.Error != nil {
		return nil, translate(result.Error)
	}
	return doc.Domain(), nil
}

// UpdateDocument writes the set fields of changes, replaces the
// associations named in shares and returns the stored document.
func (r *Repository) UpdateDocument(ctx context.Context, id uuid.UUID, changes *models.DocumentChanges, shares models.DocumentShares) (*models.Document, error) {
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		var rec records.Document
		if err := tx.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if cols := records.DocumentColumns(changes); len(cols) > 0 {
			if err := tx.db.WithContext(ctx).Model(&rec).Updates(cols).Error; err != nil {
				return translate(err)
			}
		}
		return tx.replaceShares(ctx, &rec, shares)
	})
	if err != nil {
		return nil, err
	}
	return r.GetDocument(ctx, id)
}

// DeleteDocument removes the document and its share rows.
func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		var rec records.Document
		if err := tx.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if err := tx.db.WithContext(ctx).Model(&rec).Association("SharedTo").Clear(); err != nil {
			return fmt.Errorf("failed to clear shared users: %w", err)
		}
		if err := tx.db.WithContext(ctx).Model(&rec).Association("Teams").Clear(); err != nil {
			return fmt.Errorf("failed to clear teams: %w", err)
		}
		return tx.db.WithContext(ctx).Delete(&rec).Error
	})
}

// DocumentTitleExists reports whether a document other than exclude has
// title. uuid.Nil excludes nobody.
func (r *Repository) DocumentTitleExists(ctx context.Context, title string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&records.Document{}).Where("title = ?", title)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	result := query.Limit(1).Count(&count)
	return count > 0, result.Error
}

// replaceShares sets the associations of rec named in shares. Unknown ids
// are reported as a validation failure on the matching field.
func (r *Repository) replaceShares(ctx context.Context, rec *records.Document, shares models.DocumentShares) error {
	if shares.SharedTo != nil {
		var users []records.User
		if len(shares.SharedTo) > 0 {
			if err := r.db.WithContext(ctx).Find(&users, "id IN ?", shares.SharedTo).Error; err != nil {
				return err
			}
		}
		if id, ok := missing(shares.SharedTo, users, func(u records.User) uuid.UUID { return u.ID }); !ok {
			return e.NewValidationError("shared_to", invalidPK(id))
		}
		if err := replace(r.db.WithContext(ctx).Model(rec).Association("SharedTo"), users, len(users)); err != nil {
			return fmt.Errorf("failed to share document: %w", err)
		}
	}

	if shares.Teams != nil {
		var teams []records.Team
		if len(shares.Teams) > 0 {
			if err := r.db.WithContext(ctx).Find(&teams, "id IN ?", shares.Teams).Error; err != nil {
				return err
			}
		}
		if id, ok := missing(shares.Teams, teams, func(t records.Team) uuid.UUID { return t.ID }); !ok {
			return e.NewValidationError("teams", invalidPK(id))
		}
		if err := replace(r.db.WithContext(ctx).Model(rec).Association("Teams"), teams, len(teams)); err != nil {
			return fmt.Errorf("failed to attach teams: %w", err)
		}
	}
	return nil
}

func replace(assoc *gorm.Association, values any, n int) error {
	if n == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(values)
}

// missing returns the first requested id absent from found.
func missing[T any](requested []uuid.UUID, found []T, id func(T) uuid.UUID) (uuid.UUID, bool) {
	seen := make(map[uuid.UUID]struct{}, len(found))
	for _, f := range found {
		seen[id(f)] = struct{}{}
	}
	for _, want := range requested {
		if _, ok := seen[want]; !ok {
			return want, false
		}
	}
	return uuid.Nil, true
}

func invalidPK(id uuid.UUID) string {
	return fmt.Sprintf("Invalid pk \"%s\" - object does not exist.", id)
}

func (r *Repository) CreateAddress(ctx context.Context, addr *models.Address) error {
	if addr.ID == uuid.Nil {
		addr.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(records.NewAddress(addr)).Error)
}

func (r *Repository) CreateAttachment(ctx context.Context, a *models.Attachment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedOn.IsZero() {
		a.CreatedOn = now()
	}
	return translate(r.db.WithContext(ctx).Create(records.NewAttachment(a)).Error)
}

// ListAttachmentsByCreator returns the attachments created by userID,
// newest first.
func (r *Repository) ListAttachmentsByCreator(ctx context.Context, userID uuid.UUID) ([]*models.Attachment, error) {
	var rows []records.Attachment
	result := r.db.WithContext(ctx).
		Where("created_by = ?", userID).
		Order("created_on DESC").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	out := make([]*models.Attachment, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Domain())
	}
	return out, nil
}

func (r *Repository) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CommentedOn.IsZero() {
		c.CommentedOn = now()
	}
	return translate(r.db.WithContext(ctx).Create(records.NewComment(c)).Error)
}

// ListCommentsOnUser returns the comments left on userID, newest first.
func (r *Repository) ListCommentsOnUser(ctx context.Context, userID uuid.UUID) ([]*models.Comment, error) {
	var rows []records.Comment
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("commented_on DESC").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	out := make([]*models.Comment, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Domain())
	}
	return out, nil
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
