package serializers

import (
	"context"
	"errors"
	"strings"
	"testing"

	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/gartstein/crm/internal/crm/tokens"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockUserFinder implements UserFinder over a fixed user list.
type mockUserFinder struct {
	users []*models.User
	err   error
}

func (m *mockUserFinder) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, e.ErrNotFound
}

func (m *mockUserFinder) FindUserByEmailFold(_ context.Context, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, e.ErrNotFound
}

// staticTokens accepts exactly one token.
type staticTokens struct {
	valid string
}

func (s staticTokens) CheckToken(_ *models.User, token string) bool {
	return token == s.valid
}

const validToken = "abc123-0123456789abcdef0123"

func nonFieldMessages(t *testing.T, err error) []string {
	t.Helper()
	return fieldMessages(t, err)[e.NonFieldErrors]
}

func TestForgotPassword(t *testing.T) {
	jane := &models.User{ID: uuid.New(), Email: "Jane@Example.com"}
	finder := &mockUserFinder{users: []*models.User{jane}}

	t.Run("matches case-insensitively", func(t *testing.T) {
		s := &ForgotPassword{Users: finder}
		user, err := s.Validate(context.Background(), ForgotPasswordInput{Email: "jane@example.COM"})
		require.NoError(t, err)
		assert.Equal(t, jane.ID, user.ID)
	})

	t.Run("unknown email", func(t *testing.T) {
		s := &ForgotPassword{Users: finder}
		_, err := s.Validate(context.Background(), ForgotPasswordInput{Email: "nobody@example.com"})
		assert.Equal(t, []string{msgNoAccount}, nonFieldMessages(t, err))
	})

	t.Run("missing email", func(t *testing.T) {
		s := &ForgotPassword{Users: finder}
		_, err := s.Validate(context.Background(), ForgotPasswordInput{})
		assert.Equal(t, []string{msgRequired}, fieldMessages(t, err)["email"])
	})

	t.Run("email too long", func(t *testing.T) {
		s := &ForgotPassword{Users: finder}
		_, err := s.Validate(context.Background(), ForgotPasswordInput{Email: strings.Repeat("a", 201)})
		assert.Equal(t, []string{"Ensure this field has no more than 200 characters."}, fieldMessages(t, err)["email"])
	})

	t.Run("lookup failure", func(t *testing.T) {
		s := &ForgotPassword{Users: &mockUserFinder{err: errors.New("boom")}}
		_, err := s.Validate(context.Background(), ForgotPasswordInput{Email: "jane@example.com"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, e.ErrInvalidInput)
	})
}

func TestCheckToken(t *testing.T) {
	jane := &models.User{ID: uuid.New(), Email: "jane@example.com"}
	s := &CheckToken{
		Users:  &mockUserFinder{users: []*models.User{jane}},
		Tokens: staticTokens{valid: validToken},
	}

	tests := []struct {
		name      string
		input     CheckTokenInput
		wantField string
		wantMsg   string
	}{
		{
			name:  "valid link",
			input: CheckTokenInput{UIDB64: tokens.EncodeUID(jane.ID), Token: validToken},
		},
		{
			name:      "wrong token",
			input:     CheckTokenInput{UIDB64: tokens.EncodeUID(jane.ID), Token: "abc123-ffffffffffffffffffff"},
			wantField: e.NonFieldErrors,
			wantMsg:   msgInvalidToken,
		},
		{
			name:      "unknown user",
			input:     CheckTokenInput{UIDB64: tokens.EncodeUID(uuid.New()), Token: validToken},
			wantField: e.NonFieldErrors,
			wantMsg:   msgInvalidToken,
		},
		{
			name:      "undecodable uid",
			input:     CheckTokenInput{UIDB64: "bm90LWEtdXVpZA", Token: validToken},
			wantField: e.NonFieldErrors,
			wantMsg:   msgInvalidToken,
		},
		{
			name:      "uid pattern",
			input:     CheckTokenInput{UIDB64: "not base64!", Token: validToken},
			wantField: "uidb64",
			wantMsg:   msgPattern,
		},
		{
			name:      "token pattern",
			input:     CheckTokenInput{UIDB64: tokens.EncodeUID(jane.ID), Token: "no-separator-allowed-here"},
			wantField: "token",
			wantMsg:   msgPattern,
		},
		{
			name:      "missing token",
			input:     CheckTokenInput{UIDB64: tokens.EncodeUID(jane.ID)},
			wantField: "token",
			wantMsg:   msgRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := s.Validate(context.Background(), tt.input)
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, jane.ID, user.ID)
				return
			}
			assert.Equal(t, []string{tt.wantMsg}, fieldMessages(t, err)[tt.wantField])
		})
	}
}

func TestResetPassword(t *testing.T) {
	jane := &models.User{ID: uuid.New(), Email: "jane@example.com"}
	s := &ResetPassword{CheckToken: CheckToken{
		Users:  &mockUserFinder{users: []*models.User{jane}},
		Tokens: staticTokens{valid: validToken},
	}}
	link := CheckTokenInput{UIDB64: tokens.EncodeUID(jane.ID), Token: validToken}

	t.Run("matching passwords", func(t *testing.T) {
		result, err := s.Validate(context.Background(), ResetPasswordInput{
			CheckTokenInput: link,
			NewPassword1:    "new-secret",
			NewPassword2:    "new-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, jane.ID, result.User.ID)
		assert.Equal(t, "new-secret", result.NewPassword)
	})

	t.Run("mismatched passwords", func(t *testing.T) {
		_, err := s.Validate(context.Background(), ResetPasswordInput{
			CheckTokenInput: link,
			NewPassword1:    "new-secret",
			NewPassword2:    "other-secret",
		})
		assert.Equal(t, []string{msgPasswordMatch}, nonFieldMessages(t, err))
	})

	t.Run("invalid token wins over mismatch", func(t *testing.T) {
		_, err := s.Validate(context.Background(), ResetPasswordInput{
			CheckTokenInput: CheckTokenInput{UIDB64: link.UIDB64, Token: "abc123-ffffffffffffffffffff"},
			NewPassword1:    "a",
			NewPassword2:    "b",
		})
		assert.Equal(t, []string{msgInvalidToken}, nonFieldMessages(t, err))
	})

	t.Run("missing confirmation", func(t *testing.T) {
		_, err := s.Validate(context.Background(), ResetPasswordInput{
			CheckTokenInput: link,
			NewPassword1:    "new-secret",
		})
		assert.Equal(t, []string{msgRequired}, fieldMessages(t, err)["new_password2"])
	})
}
