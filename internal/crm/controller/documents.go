package controller

import (
	"context"

	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/events"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/gartstein/crm/internal/crm/serializers"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentRepository defines the storage interface for documents.
type DocumentRepository interface {
	CreateDocument(ctx context.Context, doc *models.Document, shares models.DocumentShares) (*models.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	UpdateDocument(ctx context.Context, id uuid.UUID, changes *models.DocumentChanges, shares models.DocumentShares) (*models.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	DocumentTitleExists(ctx context.Context, title string, exclude uuid.UUID) (bool, error)
}

// DocumentWrite is the body of a document create or update request. A
// missing shared_to or teams list leaves that association untouched.
type DocumentWrite struct {
	serializers.DocumentInput
	SharedTo []uuid.UUID `json:"shared_to"`
	Teams    []uuid.UUID `json:"teams"`
}

func (w DocumentWrite) shares() models.DocumentShares {
	return models.DocumentShares{SharedTo: w.SharedTo, Teams: w.Teams}
}

// DocumentService manages documents and who they are shared with.
type DocumentService struct {
	repo     DocumentRepository
	producer EventProducer
	logger   *zap.Logger
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(repo DocumentRepository, producer EventProducer, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("document_service"),
	}
}

// CreateDocument stores a document created by actor.
func (s *DocumentService) CreateDocument(ctx context.Context, actor *models.User, in DocumentWrite) (*models.Document, error) {
	v := &serializers.DocumentCreate{Documents: s.repo}
	changes, err := v.Validate(ctx, in.DocumentInput)
	if err != nil {
		return nil, wrap(err, "validate document")
	}

	doc := &models.Document{
		ID:     uuid.New(),
		Title:  *changes.Title,
		Status: *changes.Status,
	}
	if changes.DocumentFile != nil {
		doc.DocumentFile = *changes.DocumentFile
	}
	if actor != nil {
		doc.CreatedBy = &actor.ID
	}

	created, err := s.repo.CreateDocument(ctx, doc, in.shares())
	if err != nil {
		return nil, wrap(err, "create document")
	}

	go func() {
		s.producer.Produce(events.DocumentCreated, created.ID, map[string]string{"title": created.Title})
	}()
	return created, nil
}

// GetDocument retrieves a document with its shares.
func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, wrap(err, "get document")
	}
	return doc, nil
}

// UpdateDocument applies in to document id. Only its creator or an admin
// may update it.
func (s *DocumentService) UpdateDocument(ctx context.Context, actor *models.User, id uuid.UUID, in DocumentWrite) (*models.Document, error) {
	instance, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, wrap(err, "get document")
	}
	if !canManage(actor, instance.CreatedBy) {
		return nil, e.ErrForbidden
	}

	v := &serializers.DocumentCreate{Instance: instance, Documents: s.repo}
	changes, err := v.Validate(ctx, in.DocumentInput)
	if err != nil {
		return nil, wrap(err, "validate document")
	}

	updated, err := s.repo.UpdateDocument(ctx, id, changes, in.shares())
	if err != nil {
		return nil, wrap(err, "update document")
	}

	go func() {
		s.producer.Produce(events.DocumentUpdated, updated.ID, map[string]string{"title": updated.Title})
	}()
	return updated, nil
}

// DeleteDocument removes document id. Only its creator or an admin may
// delete it.
func (s *DocumentService) DeleteDocument(ctx context.Context, actor *models.User, id uuid.UUID) error {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return wrap(err, "get document for deletion")
	}
	if !canManage(actor, doc.CreatedBy) {
		return e.ErrForbidden
	}

	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		return wrap(err, "delete document")
	}

	go func() {
		s.producer.Produce(events.DocumentDeleted, doc.ID, map[string]string{"title": doc.Title})
	}()
	return nil
}
