package serializers

import (
	"time"

	"github.com/gartstein/crm/internal/crm/models"
	"github.com/google/uuid"
)

// AttachmentView is the API representation of an attachment.
type AttachmentView struct {
	CreatedBy *uuid.UUID `json:"created_by"`
	FileName  string     `json:"file_name"`
	CreatedOn time.Time  `json:"created_on"`
	// FilePath is null when nothing was uploaded.
	FilePath *string `json:"file_path"`
}

// AttachmentRepresentation maps a to its API field set.
func AttachmentRepresentation(a *models.Attachment, media Media) AttachmentView {
	return AttachmentView{
		CreatedBy: a.CreatedBy,
		FileName:  a.FileName,
		CreatedOn: a.CreatedOn,
		FilePath:  media.URL(a.Attachment),
	}
}
