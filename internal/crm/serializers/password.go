package serializers

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/gartstein/crm/internal/crm/tokens"
	"github.com/google/uuid"
)

const (
	msgNoAccount     = "You don't have an account. Please create one."
	msgInvalidToken  = "Invalid password reset token"
	msgPasswordMatch = "The two password fields didn't match."
)

// UserFinder resolves users for the password reset flow. Both methods
// return errors.ErrNotFound when no user matches.
type UserFinder interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	// FindUserByEmailFold returns the most recently joined user whose
	// email matches case-insensitively.
	FindUserByEmailFold(ctx context.Context, email string) (*models.User, error)
}

// TokenChecker verifies reset tokens issued for a user.
type TokenChecker interface {
	CheckToken(user *models.User, token string) bool
}

// ForgotPasswordInput is the body of a forgot-password request.
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,max=200"`
}

// ForgotPassword checks that an account exists for an email address.
type ForgotPassword struct {
	Users UserFinder
}

// Validate returns the account that owns in.Email.
func (s *ForgotPassword) Validate(ctx context.Context, in ForgotPasswordInput) (*models.User, error) {
	verr := &e.ValidationError{}
	checkStruct(verr, in)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	user, err := s.Users.FindUserByEmailFold(ctx, in.Email)
	if errors.Is(err, e.ErrNotFound) {
		return nil, e.NewValidationError(e.NonFieldErrors, msgNoAccount)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return user, nil
}

// CheckTokenInput identifies a reset link: the encoded user id and token.
type CheckTokenInput struct {
	UIDB64 string `json:"uidb64" validate:"required,uidb64"`
	Token  string `json:"token" validate:"required,resettoken"`
}

// CheckToken verifies a reset link.
type CheckToken struct {
	Users  UserFinder
	Tokens TokenChecker
}

// Validate returns the user the link was issued for. Every failure past
// the format rules reports the same invalid-token message.
func (s *CheckToken) Validate(ctx context.Context, in CheckTokenInput) (*models.User, error) {
	verr := &e.ValidationError{}
	checkStruct(verr, in)
	if err := verr.Err(); err != nil {
		return nil, err
	}
	return s.verify(ctx, in)
}

func (s *CheckToken) verify(ctx context.Context, in CheckTokenInput) (*models.User, error) {
	user, err := s.user(ctx, in.UIDB64)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.Tokens.CheckToken(user, in.Token) {
		return nil, e.NewValidationError(e.NonFieldErrors, msgInvalidToken)
	}
	return user, nil
}

// user decodes uidb64 and loads the user. Undecodable ids and unknown
// users yield a nil user.
func (s *CheckToken) user(ctx context.Context, uidb64 string) (*models.User, error) {
	id, err := tokens.DecodeUID(uidb64)
	if err != nil {
		return nil, nil
	}
	user, err := s.Users.GetUser(ctx, id)
	if errors.Is(err, e.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ResetPasswordInput is a reset link plus the new password typed twice.
type ResetPasswordInput struct {
	CheckTokenInput
	NewPassword1 string `json:"new_password1" validate:"required"`
	NewPassword2 string `json:"new_password2" validate:"required"`
}

// ResetPasswordResult is a validated reset: who and the new password.
type ResetPasswordResult struct {
	User        *models.User
	NewPassword string
}

// ResetPassword verifies a reset link and the confirmation of the new password.
type ResetPassword struct {
	CheckToken
}

// Validate checks the link first, then that both passwords are equal.
func (s *ResetPassword) Validate(ctx context.Context, in ResetPasswordInput) (*ResetPasswordResult, error) {
	verr := &e.ValidationError{}
	checkStruct(verr, in)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	user, err := s.verify(ctx, in.CheckTokenInput)
	if err != nil {
		return nil, err
	}
	if in.NewPassword1 != in.NewPassword2 {
		return nil, e.NewValidationError(e.NonFieldErrors, msgPasswordMatch)
	}
	return &ResetPasswordResult{User: user, NewPassword: in.NewPassword2}, nil
}
