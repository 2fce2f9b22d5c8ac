package serializers

import (
	"context"
	"fmt"
	"time"

	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/google/uuid"
)

const msgDuplicateTitle = "Document with this Title already exists"

// DocumentView is the API representation of a document with its
// shared-to users nested and its teams as raw records.
type DocumentView struct {
	ID           uuid.UUID             `json:"id"`
	Title        string                `json:"title"`
	DocumentFile *string               `json:"document_file"`
	Status       models.DocumentStatus `json:"status"`
	CreatedBy    *uuid.UUID            `json:"created_by"`
	CreatedOn    time.Time             `json:"created_on"`
	SharedTo     []UserView            `json:"shared_to"`
	Teams        []map[string]any      `json:"teams"`
}

// DocumentRepresentation maps d to its API field set.
func DocumentRepresentation(d *models.Document, media Media) DocumentView {
	shared := make([]UserView, 0, len(d.SharedTo))
	for i := range d.SharedTo {
		shared = append(shared, UserRepresentation(&d.SharedTo[i], media))
	}
	teams := make([]map[string]any, 0, len(d.Teams))
	for _, t := range d.Teams {
		teams = append(teams, TeamValues(t))
	}
	return DocumentView{
		ID:           d.ID,
		Title:        d.Title,
		DocumentFile: media.URL(d.DocumentFile),
		Status:       d.Status,
		CreatedBy:    d.CreatedBy,
		CreatedOn:    d.CreatedOn,
		SharedTo:     shared,
		Teams:        teams,
	}
}

// TeamValues returns the stored columns of t keyed by column name.
func TeamValues(t models.Team) map[string]any {
	return map[string]any{
		"id":            t.ID,
		"name":          t.Name,
		"description":   t.Description,
		"created_on":    t.CreatedOn,
		"created_by_id": t.CreatedBy,
	}
}

// DocumentStore answers title uniqueness questions.
type DocumentStore interface {
	// DocumentTitleExists reports whether a document other than exclude
	// has title. uuid.Nil excludes nobody.
	DocumentTitleExists(ctx context.Context, title string, exclude uuid.UUID) (bool, error)
}

// DocumentInput is the body of a document create or update request.
type DocumentInput struct {
	Title        *string                `json:"title" validate:"omitempty,max=1000"`
	DocumentFile *string                `json:"document_file" validate:"omitempty,max=5000"`
	Status       *models.DocumentStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

// DocumentCreate validates document writes. Instance is nil on create.
type DocumentCreate struct {
	Instance  *models.Document
	Documents DocumentStore
}

// Validate checks in and returns the changes to persist.
func (s *DocumentCreate) Validate(ctx context.Context, in DocumentInput) (*models.DocumentChanges, error) {
	in.Title = clone(in.Title)
	trim(in.Title)

	verr := &e.ValidationError{}
	requireString(verr, "title", in.Title)
	checkStruct(verr, in)

	if !verr.Has("title") {
		exclude := uuid.Nil
		if s.Instance != nil {
			exclude = s.Instance.ID
		}
		exists, err := s.Documents.DocumentTitleExists(ctx, *in.Title, exclude)
		if err != nil {
			return nil, fmt.Errorf("failed to check title existence: %w", err)
		}
		if exists {
			verr.Add("title", msgDuplicateTitle)
		}
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	changes := &models.DocumentChanges{
		Title:        in.Title,
		DocumentFile: in.DocumentFile,
		Status:       in.Status,
	}
	if s.Instance == nil && changes.Status == nil {
		status := models.DocumentActive
		changes.Status = &status
	}
	return changes, nil
}
