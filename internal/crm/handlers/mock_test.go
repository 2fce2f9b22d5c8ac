package handlers

import (
	"context"

	"github.com/gartstein/crm/internal/crm/auth"
	"github.com/gartstein/crm/internal/crm/controller"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/gartstein/crm/internal/crm/serializers"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var media = serializers.Media{BaseURL: "/media/"}

var testActor = &models.User{ID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin, IsActive: true}

// allowAll authenticates every request as testActor.
func allowAll(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.SetRequest(c.Request().WithContext(auth.WithActor(c.Request().Context(), testActor)))
		return next(c)
	}
}

type mockAccounts struct {
	CreateUserFunc      func(ctx context.Context, actor *models.User, in serializers.CreateUserInput) (*models.User, error)
	GetUserFunc         func(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUserFunc      func(ctx context.Context, actor *models.User, id uuid.UUID, in serializers.CreateUserInput) (*models.User, error)
	ForgotPasswordFunc  func(ctx context.Context, in serializers.ForgotPasswordInput) (*controller.ResetLink, error)
	CheckResetTokenFunc func(ctx context.Context, in serializers.CheckTokenInput) (*models.User, error)
	ResetPasswordFunc   func(ctx context.Context, in serializers.ResetPasswordInput) error
}

func (m *mockAccounts) CreateUser(ctx context.Context, actor *models.User, in serializers.CreateUserInput) (*models.User, error) {
	return m.CreateUserFunc(ctx, actor, in)
}

func (m *mockAccounts) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.GetUserFunc(ctx, id)
}

func (m *mockAccounts) UpdateUser(ctx context.Context, actor *models.User, id uuid.UUID, in serializers.CreateUserInput) (*models.User, error) {
	return m.UpdateUserFunc(ctx, actor, id, in)
}

func (m *mockAccounts) ForgotPassword(ctx context.Context, in serializers.ForgotPasswordInput) (*controller.ResetLink, error) {
	return m.ForgotPasswordFunc(ctx, in)
}

func (m *mockAccounts) CheckResetToken(ctx context.Context, in serializers.CheckTokenInput) (*models.User, error) {
	return m.CheckResetTokenFunc(ctx, in)
}

func (m *mockAccounts) ResetPassword(ctx context.Context, in serializers.ResetPasswordInput) error {
	return m.ResetPasswordFunc(ctx, in)
}

type mockDocuments struct {
	CreateDocumentFunc func(ctx context.Context, actor *models.User, in controller.DocumentWrite) (*models.Document, error)
	GetDocumentFunc    func(ctx context.Context, id uuid.UUID) (*models.Document, error)
	UpdateDocumentFunc func(ctx context.Context, actor *models.User, id uuid.UUID, in controller.DocumentWrite) (*models.Document, error)
	DeleteDocumentFunc func(ctx context.Context, actor *models.User, id uuid.UUID) error
}

func (m *mockDocuments) CreateDocument(ctx context.Context, actor *models.User, in controller.DocumentWrite) (*models.Document, error) {
	return m.CreateDocumentFunc(ctx, actor, in)
}

func (m *mockDocuments) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	return m.GetDocumentFunc(ctx, id)
}

func (m *mockDocuments) UpdateDocument(ctx context.Context, actor *models.User, id uuid.UUID, in controller.DocumentWrite) (*models.Document, error) {
	return m.UpdateDocumentFunc(ctx, actor, id, in)
}

func (m *mockDocuments) DeleteDocument(ctx context.Context, actor *models.User, id uuid.UUID) error {
	return m.DeleteDocumentFunc(ctx, actor, id)
}

type mockRecords struct {
	CreateCompanyFunc        func(ctx context.Context, in serializers.CompanyInput) (*models.Company, error)
	GetCompanyFunc           func(ctx context.Context, id uuid.UUID) (*models.Company, error)
	CreateBillingAddressFunc func(ctx context.Context, in serializers.AddressInput, account bool) (*models.Address, error)
	CreateCommentFunc        func(ctx context.Context, actor *models.User, userID uuid.UUID, in serializers.CommentInput) (*models.Comment, error)
	ListCommentsFunc         func(ctx context.Context, userID uuid.UUID) ([]*models.Comment, error)
	ListAttachmentsFunc      func(ctx context.Context, userID uuid.UUID) ([]*models.Attachment, error)
}

func (m *mockRecords) CreateCompany(ctx context.Context, in serializers.CompanyInput) (*models.Company, error) {
	return m.CreateCompanyFunc(ctx, in)
}

func (m *mockRecords) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return m.GetCompanyFunc(ctx, id)
}

func (m *mockRecords) CreateBillingAddress(ctx context.Context, in serializers.AddressInput, account bool) (*models.Address, error) {
	return m.CreateBillingAddressFunc(ctx, in, account)
}

func (m *mockRecords) CreateComment(ctx context.Context, actor *models.User, userID uuid.UUID, in serializers.CommentInput) (*models.Comment, error) {
	return m.CreateCommentFunc(ctx, actor, userID, in)
}

func (m *mockRecords) ListComments(ctx context.Context, userID uuid.UUID) ([]*models.Comment, error) {
	return m.ListCommentsFunc(ctx, userID)
}

func (m *mockRecords) ListAttachments(ctx context.Context, userID uuid.UUID) ([]*models.Attachment, error) {
	return m.ListAttachmentsFunc(ctx, userID)
}
