package controller

import (
	"context"
	"time"

	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/events"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/gartstein/crm/internal/crm/serializers"
	"github.com/gartstein/crm/internal/crm/tokens"
	"github.com/gartstein/crm/internal/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AccountRepository defines the storage interface for users.
type AccountRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, changes *models.UserChanges) (*models.User, error)
	SetPassword(ctx context.Context, id uuid.UUID, hash string) error
	UserExistsByEmail(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
	FindUserByEmailFold(ctx context.Context, email string) (*models.User, error)
}

// TokenGenerator makes and checks password reset tokens.
type TokenGenerator interface {
	MakeToken(user *models.User) string
	CheckToken(user *models.User, token string) bool
}

// ResetLink identifies a password reset: the encoded user id and token.
type ResetLink struct {
	UID   string
	Token string
}

// AccountService manages users and the password reset flow.
type AccountService struct {
	repo     AccountRepository
	tokens   TokenGenerator
	producer EventProducer
	logger   *zap.Logger
	hashCost int
}

// NewAccountService constructs an AccountService.
func NewAccountService(repo AccountRepository, tokens TokenGenerator, producer EventProducer, logger *zap.Logger) *AccountService {
	return &AccountService{
		repo:     repo,
		tokens:   tokens,
		producer: producer,
		logger:   logger.Named("account_service"),
		hashCost: bcrypt.DefaultCost,
	}
}

// CreateUser validates in on behalf of actor and stores a new active user.
func (s *AccountService) CreateUser(ctx context.Context, actor *models.User, in serializers.CreateUserInput) (*models.User, error) {
	v := &serializers.CreateUser{Actor: actor, Users: s.repo}
	changes, err := v.Validate(ctx, in)
	if err != nil {
		return nil, wrap(err, "validate user")
	}

	hash, err := hashPassword(changes.Password, s.hashCost, "password")
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:                 uuid.New(),
		Email:              *changes.Email,
		FirstName:          *changes.FirstName,
		LastName:           utils.Deref(changes.LastName, ""),
		Username:           utils.Deref(changes.Username, ""),
		Role:               *changes.Role,
		ProfilePic:         utils.Deref(changes.ProfilePic, ""),
		PasswordHash:       hash,
		IsActive:           true,
		HasSalesAccess:     *changes.HasSalesAccess,
		HasMarketingAccess: *changes.HasMarketingAccess,
		DateJoined:         time.Now().UTC(),
	}
	if actor != nil {
		user.CompanyID = actor.CompanyID
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, wrap(err, "create user")
	}

	s.logger.Info("Created user", zap.String("user_id", user.ID.String()))
	go func() {
		s.producer.Produce(events.UserCreated, user.ID, map[string]string{"email": user.Email})
	}()
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AccountService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, wrap(err, "get user")
	}
	return user, nil
}

// UpdateUser applies in to the user id. Users without admin powers may
// only update themselves. An empty password leaves it unchanged.
func (s *AccountService) UpdateUser(ctx context.Context, actor *models.User, id uuid.UUID, in serializers.CreateUserInput) (*models.User, error) {
	instance, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, wrap(err, "get user")
	}
	if !canManage(actor, &instance.ID) {
		return nil, e.ErrForbidden
	}

	v := &serializers.CreateUser{Actor: actor, Instance: instance, Users: s.repo}
	changes, err := v.Validate(ctx, in)
	if err != nil {
		return nil, wrap(err, "validate user")
	}

	if changes.Password != "" {
		hash, err := hashPassword(changes.Password, s.hashCost, "password")
		if err != nil {
			return nil, err
		}
		changes.PasswordHash = &hash
	}

	updated, err := s.repo.UpdateUser(ctx, id, changes)
	if err != nil {
		return nil, wrap(err, "update user")
	}

	go func() {
		s.producer.Produce(events.UserUpdated, updated.ID, nil)
	}()
	return updated, nil
}

// ForgotPassword issues a reset link for the account owning in.Email and
// emits it as a password_reset_requested event.
func (s *AccountService) ForgotPassword(ctx context.Context, in serializers.ForgotPasswordInput) (*ResetLink, error) {
	v := &serializers.ForgotPassword{Users: s.repo}
	user, err := v.Validate(ctx, in)
	if err != nil {
		return nil, wrap(err, "validate forgot password")
	}

	link := &ResetLink{UID: tokens.EncodeUID(user.ID), Token: s.tokens.MakeToken(user)}
	s.logger.Info("Issued password reset link", zap.String("user_id", user.ID.String()))
	go func() {
		s.producer.Produce(events.PasswordResetRequested, user.ID, map[string]string{
			"email": user.Email,
			"uid":   link.UID,
			"token": link.Token,
		})
	}()
	return link, nil
}

// CheckResetToken returns the user a reset link was issued for.
func (s *AccountService) CheckResetToken(ctx context.Context, in serializers.CheckTokenInput) (*models.User, error) {
	v := &serializers.CheckToken{Users: s.repo, Tokens: s.tokens}
	user, err := v.Validate(ctx, in)
	if err != nil {
		return nil, wrap(err, "validate reset token")
	}
	return user, nil
}

// ResetPassword stores the new password of a verified reset link. The
// changed hash invalidates every outstanding token of the user.
func (s *AccountService) ResetPassword(ctx context.Context, in serializers.ResetPasswordInput) error {
	v := &serializers.ResetPassword{CheckToken: serializers.CheckToken{Users: s.repo, Tokens: s.tokens}}
	result, err := v.Validate(ctx, in)
	if err != nil {
		return wrap(err, "validate password reset")
	}

	hash, err := hashPassword(result.NewPassword, s.hashCost, "new_password2")
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, result.User.ID, hash); err != nil {
		return wrap(err, "set password")
	}

	s.logger.Info("Reset password", zap.String("user_id", result.User.ID.String()))
	go func() {
		s.producer.Produce(events.PasswordReset, result.User.ID, nil)
	}()
	return nil
}
