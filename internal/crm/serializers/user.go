package serializers

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/google/uuid"
)

// ProfilePicPrefix is the storage folder profile pictures are uploaded to.
const ProfilePicPrefix = "users/profile_pics"

const minPasswordLength = 4

// UserView is the API representation of a user.
type UserView struct {
	ID                 uuid.UUID   `json:"id"`
	FilePrepend        string      `json:"file_prepend"`
	Username           string      `json:"username"`
	FirstName          string      `json:"first_name"`
	LastName           string      `json:"last_name"`
	Email              string      `json:"email"`
	IsActive           bool        `json:"is_active"`
	IsAdmin            bool        `json:"is_admin"`
	IsStaff            bool        `json:"is_staff"`
	DateJoined         time.Time   `json:"date_joined"`
	Role               models.Role `json:"role"`
	ProfilePic         *string     `json:"profile_pic"`
	HasSalesAccess     bool        `json:"has_sales_access"`
	HasMarketingAccess bool        `json:"has_marketing_access"`
	Company            *uuid.UUID  `json:"company"`
	AppName            string      `json:"get_app_name"`
}

// UserRepresentation maps u to its API field set.
func UserRepresentation(u *models.User, media Media) UserView {
	return UserView{
		ID:                 u.ID,
		FilePrepend:        ProfilePicPrefix,
		Username:           u.Username,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Email:              u.Email,
		IsActive:           u.IsActive,
		IsAdmin:            u.IsAdmin,
		IsStaff:            u.IsStaff,
		DateJoined:         u.DateJoined,
		Role:               u.Role,
		ProfilePic:         media.URL(u.ProfilePic),
		HasSalesAccess:     u.HasSalesAccess,
		HasMarketingAccess: u.HasMarketingAccess,
		Company:            u.CompanyID,
		AppName:            u.AppName(),
	}
}

// UserStore answers the uniqueness questions asked while validating users.
type UserStore interface {
	// UserExistsByEmail reports whether a user other than exclude has email.
	// uuid.Nil excludes nobody.
	UserExistsByEmail(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
}

// CreateUserInput is the body of a user create or update request.
type CreateUserInput struct {
	Email              *string      `json:"email" validate:"omitempty,email,max=255"`
	FirstName          *string      `json:"first_name" validate:"omitempty,max=150"`
	LastName           *string      `json:"last_name" validate:"omitempty,max=150"`
	Username           *string      `json:"username" validate:"omitempty,max=100"`
	Role               *models.Role `json:"role" validate:"omitempty,oneof=ADMIN USER"`
	ProfilePic         *string      `json:"profile_pic" validate:"omitempty,max=1000"`
	HasSalesAccess     *bool        `json:"has_sales_access"`
	HasMarketingAccess *bool        `json:"has_marketing_access"`
	Password           *string      `json:"password"`
}

func (in CreateUserInput) normalized() CreateUserInput {
	out := in
	out.Email = clone(in.Email)
	out.FirstName = clone(in.FirstName)
	out.LastName = clone(in.LastName)
	out.Username = clone(in.Username)
	out.ProfilePic = clone(in.ProfilePic)
	out.Password = clone(in.Password)
	trim(out.Email, out.FirstName, out.LastName, out.Username, out.ProfilePic, out.Password)
	return out
}

// accessPolicy decides how an acting role may set capability flags.
type accessPolicy struct {
	// requireAccess demands at least one flag for non-admin targets.
	requireAccess bool
	// lockAccess pins the flags to the instance's current values.
	lockAccess bool
}

var accessPolicies = map[models.Role]accessPolicy{
	models.RoleAdmin: {requireAccess: true},
	models.RoleUser:  {lockAccess: true},
}

// policyFor resolves the actor's policy from its role. Admin powers add
// the access requirement without lifting a USER lock, and a missing actor
// gets the most restrictive policy.
func policyFor(actor *models.User) accessPolicy {
	if actor == nil {
		return accessPolicies[models.RoleUser]
	}
	policy := accessPolicies[actor.Role]
	if actor.ActsAsAdmin() {
		policy.requireAccess = true
	}
	return policy
}

// CreateUser validates user writes on behalf of Actor. Instance is nil on
// create and the stored user on update.
type CreateUser struct {
	Actor    *models.User
	Instance *models.User
	Users    UserStore
}

// Validate checks in and returns the changes to persist. Field failures
// are reported together as a *errors.ValidationError.
func (s *CreateUser) Validate(ctx context.Context, in CreateUserInput) (*models.UserChanges, error) {
	in = in.normalized()
	creating := s.Instance == nil
	verr := &e.ValidationError{}

	if creating {
		requireString(verr, "email", in.Email)
	} else {
		rejectBlank(verr, "email", in.Email)
	}
	requireString(verr, "first_name", in.FirstName)
	if creating {
		requireString(verr, "password", in.Password)
	}
	checkStruct(verr, in)

	policy := policyFor(s.Actor)
	if policy.lockAccess && in.Role != nil {
		role := s.lockedRole()
		in.Role = &role
	}

	if in.Password != nil && *in.Password != "" && !verr.Has("password") {
		if utf8.RuneCountInString(*in.Password) < minPasswordLength {
			verr.Add("password", fmt.Sprintf("Password must be at least %d characters long!", minPasswordLength))
		}
	}

	if in.Email != nil && !verr.Has("email") {
		msg, err := s.checkEmail(ctx, *in.Email)
		if err != nil {
			return nil, err
		}
		if msg != "" {
			verr.Add("email", msg)
		}
	}

	sales, marketing := s.accessFlags(in, policy, verr)

	if err := verr.Err(); err != nil {
		return nil, err
	}

	changes := &models.UserChanges{
		Email:              in.Email,
		FirstName:          in.FirstName,
		LastName:           in.LastName,
		Username:           in.Username,
		Role:               in.Role,
		ProfilePic:         in.ProfilePic,
		HasSalesAccess:     &sales,
		HasMarketingAccess: &marketing,
	}
	if in.Password != nil {
		changes.Password = *in.Password
	}
	if creating && changes.Role == nil {
		role := models.RoleUser
		changes.Role = &role
	}
	return changes, nil
}

// checkEmail returns the failure message for email, if any.
func (s *CreateUser) checkEmail(ctx context.Context, email string) (string, error) {
	if s.Instance == nil {
		exists, err := s.Users.UserExistsByEmail(ctx, email, uuid.Nil)
		if err != nil {
			return "", fmt.Errorf("failed to check email existence: %w", err)
		}
		if exists {
			return "User already exists with this email", nil
		}
		return "", nil
	}

	if s.Instance.Email == email {
		return "", nil
	}
	exists, err := s.Users.UserExistsByEmail(ctx, email, s.Instance.ID)
	if err != nil {
		return "", fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return "Email already exists", nil
	}
	return "", nil
}

// accessFlags applies the actor's policy to the submitted flags. A flag
// left out of the request keeps the instance's value (false on create).
func (s *CreateUser) accessFlags(in CreateUserInput, policy accessPolicy, verr *e.ValidationError) (sales, marketing bool) {
	if s.Instance != nil {
		sales, marketing = s.Instance.HasSalesAccess, s.Instance.HasMarketingAccess
	}
	if in.HasSalesAccess != nil {
		sales = *in.HasSalesAccess
	}
	if in.HasMarketingAccess != nil {
		marketing = *in.HasMarketingAccess
	}

	if policy.requireAccess && s.targetRole(in) != models.RoleAdmin && !sales && !marketing {
		verr.Add("has_sales_access", "Select atleast one option.")
	}
	if policy.lockAccess {
		sales, marketing = false, false
		if s.Instance != nil {
			sales, marketing = s.Instance.HasSalesAccess, s.Instance.HasMarketingAccess
		}
	}
	return sales, marketing
}

// lockedRole is the only role a locked actor may write: the instance's
// current role, or USER on create.
func (s *CreateUser) lockedRole() models.Role {
	if s.Instance != nil {
		return s.Instance.Role
	}
	return models.RoleUser
}

func (s *CreateUser) targetRole(in CreateUserInput) models.Role {
	switch {
	case in.Role != nil:
		return *in.Role
	case s.Instance != nil:
		return s.Instance.Role
	default:
		return models.RoleUser
	}
}
