package controller

import (
	"context"
	"time"

	"github.com/gartstein/crm/internal/crm/models"
	"github.com/gartstein/crm/internal/crm/serializers"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordRepository defines the storage interface for companies,
// addresses, comments and attachments.
type RecordRepository interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	CreateAddress(ctx context.Context, addr *models.Address) error
	CreateComment(ctx context.Context, c *models.Comment) error
	ListCommentsOnUser(ctx context.Context, userID uuid.UUID) ([]*models.Comment, error)
	ListAttachmentsByCreator(ctx context.Context, userID uuid.UUID) ([]*models.Attachment, error)
}

// RecordService manages the records hanging off users and companies.
type RecordService struct {
	repo   RecordRepository
	logger *zap.Logger
}

// NewRecordService constructs a RecordService.
func NewRecordService(repo RecordRepository, logger *zap.Logger) *RecordService {
	return &RecordService{
		repo:   repo,
		logger: logger.Named("record_service"),
	}
}

func (s *RecordService) CreateCompany(ctx context.Context, in serializers.CompanyInput) (*models.Company, error) {
	company, err := serializers.ValidateCompany(in)
	if err != nil {
		return nil, err
	}
	company.ID = uuid.New()
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, wrap(err, "create company")
	}
	return company, nil
}

func (s *RecordService) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return nil, wrap(err, "get company")
	}
	return company, nil
}

// CreateBillingAddress stores an address. In account mode every postal
// field is required.
func (s *RecordService) CreateBillingAddress(ctx context.Context, in serializers.AddressInput, account bool) (*models.Address, error) {
	addr, err := serializers.BillingAddress{Account: account}.Validate(in)
	if err != nil {
		return nil, err
	}
	addr.ID = uuid.New()
	if err := s.repo.CreateAddress(ctx, addr); err != nil {
		return nil, wrap(err, "create address")
	}
	return addr, nil
}

// CreateComment stores a comment by actor on the profile of userID.
func (s *RecordService) CreateComment(ctx context.Context, actor *models.User, userID uuid.UUID, in serializers.CommentInput) (*models.Comment, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, wrap(err, "get user")
	}
	text, err := serializers.ValidateComment(in)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:          uuid.New(),
		Comment:     text,
		CommentedOn: time.Now().UTC(),
		UserID:      &userID,
	}
	if actor != nil {
		comment.CommentedBy = &actor.ID
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, wrap(err, "create comment")
	}
	return comment, nil
}

// ListComments returns the comments left on userID, newest first.
func (s *RecordService) ListComments(ctx context.Context, userID uuid.UUID) ([]*models.Comment, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, wrap(err, "get user")
	}
	comments, err := s.repo.ListCommentsOnUser(ctx, userID)
	if err != nil {
		return nil, wrap(err, "list comments")
	}
	return comments, nil
}

// ListAttachments returns the attachments uploaded by userID, newest first.
func (s *RecordService) ListAttachments(ctx context.Context, userID uuid.UUID) ([]*models.Attachment, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, wrap(err, "get user")
	}
	attachments, err := s.repo.ListAttachmentsByCreator(ctx, userID)
	if err != nil {
		return nil, wrap(err, "list attachments")
	}
	return attachments, nil
}
