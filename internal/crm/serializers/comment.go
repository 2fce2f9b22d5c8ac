package serializers

import (
	"time"

	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/google/uuid"
)

// CommentView is the API representation of a comment.
type CommentView struct {
	ID          uuid.UUID  `json:"id"`
	Comment     string     `json:"comment"`
	CommentedOn time.Time  `json:"commented_on"`
	CommentedBy *uuid.UUID `json:"commented_by"`
	User        *uuid.UUID `json:"user"`
}

// CommentRepresentation maps c to its API field set.
func CommentRepresentation(c *models.Comment) CommentView {
	return CommentView{
		ID:          c.ID,
		Comment:     c.Comment,
		CommentedOn: c.CommentedOn,
		CommentedBy: c.CommentedBy,
		User:        c.UserID,
	}
}

// CommentInput is the body of a comment create request.
type CommentInput struct {
	Comment *string `json:"comment" validate:"omitempty,max=255"`
}

// ValidateComment checks in and returns the comment text.
func ValidateComment(in CommentInput) (string, error) {
	in.Comment = clone(in.Comment)
	trim(in.Comment)

	verr := &e.ValidationError{}
	requireString(verr, "comment", in.Comment)
	checkStruct(verr, in)
	if err := verr.Err(); err != nil {
		return "", err
	}
	return *in.Comment, nil
}
