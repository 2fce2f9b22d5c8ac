// Package controller implements the core business logic (service layer)
// of the CRM. Services validate requests through the serializers,
// orchestrate repository operations and send the matching events.
package controller

import (
	"errors"
	"fmt"

	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/events"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type EventProducer interface {
	Produce(eventType events.EventType, subject uuid.UUID, data map[string]string)
}

// hashPassword returns the bcrypt hash of password. Passwords bcrypt
// cannot hash are reported as a validation failure on field.
func hashPassword(password string, cost int, field string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", e.NewValidationError(field, "Ensure this field has no more than 72 bytes.")
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// canManage reports whether actor may modify a record owned by owner.
func canManage(actor *models.User, owner *uuid.UUID) bool {
	if actor == nil {
		return false
	}
	if actor.ActsAsAdmin() {
		return true
	}
	return owner != nil && *owner == actor.ID
}

// wrap adds context to err unless it is one of the sentinels callers
// inspect directly.
func wrap(err error, action string) error {
	var verr *e.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, e.ErrNotFound),
		errors.Is(err, e.ErrDuplicate),
		errors.Is(err, e.ErrForbidden):
		return err
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}
