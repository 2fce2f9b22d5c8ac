package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gartstein/crm/internal/crm/auth"
	"github.com/gartstein/crm/internal/crm/controller"
	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/gartstein/crm/internal/crm/serializers"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const msgResetSent = "We have sent you an email. please reset password"

// Accounts is the user and password reset surface of the API.
type Accounts interface {
	CreateUser(ctx context.Context, actor *models.User, in serializers.CreateUserInput) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, actor *models.User, id uuid.UUID, in serializers.CreateUserInput) (*models.User, error)
	ForgotPassword(ctx context.Context, in serializers.ForgotPasswordInput) (*controller.ResetLink, error)
	CheckResetToken(ctx context.Context, in serializers.CheckTokenInput) (*models.User, error)
	ResetPassword(ctx context.Context, in serializers.ResetPasswordInput) error
}

// Documents is the document surface of the API.
type Documents interface {
	CreateDocument(ctx context.Context, actor *models.User, in controller.DocumentWrite) (*models.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	UpdateDocument(ctx context.Context, actor *models.User, id uuid.UUID, in controller.DocumentWrite) (*models.Document, error)
	DeleteDocument(ctx context.Context, actor *models.User, id uuid.UUID) error
}

// Records covers companies, addresses, comments and attachments.
type Records interface {
	CreateCompany(ctx context.Context, in serializers.CompanyInput) (*models.Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	CreateBillingAddress(ctx context.Context, in serializers.AddressInput, account bool) (*models.Address, error)
	CreateComment(ctx context.Context, actor *models.User, userID uuid.UUID, in serializers.CommentInput) (*models.Comment, error)
	ListComments(ctx context.Context, userID uuid.UUID) ([]*models.Comment, error)
	ListAttachments(ctx context.Context, userID uuid.UUID) ([]*models.Attachment, error)
}

// Handler maps HTTP requests onto the CRM services.
type Handler struct {
	accounts  Accounts
	documents Documents
	records   Records
	media     serializers.Media
	logger    *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(accounts Accounts, documents Documents, records Records, media serializers.Media, logger *zap.Logger) *Handler {
	return &Handler{
		accounts:  accounts,
		documents: documents,
		records:   records,
		media:     media,
		logger:    logger.Named("http"),
	}
}

// Echo builds the router. Routes other than /healthz and /api/auth require
// the authenticate middleware.
func (h *Handler) Echo(authenticate echo.MiddlewareFunc) *echo.Echo {
	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.HTTPErrorHandler = errorHandler(h.logger)
	app.Use(middleware.Recover())
	app.Use(h.requestLogger())

	app.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := app.Group("/api")

	public := api.Group("/auth")
	public.POST("/forgot-password", h.forgotPassword)
	public.GET("/reset-password/:uidb64/:token", h.checkResetToken)
	public.POST("/reset-password/:uidb64/:token", h.resetPassword)

	private := api.Group("", authenticate)
	private.POST("/users", h.createUser)
	private.GET("/users/:id", h.getUser)
	private.PUT("/users/:id", h.updateUser)
	private.GET("/users/:id/comments", h.listComments)
	private.POST("/users/:id/comments", h.createComment)
	private.GET("/users/:id/attachments", h.listAttachments)
	private.POST("/companies", h.createCompany)
	private.GET("/companies/:id", h.getCompany)
	private.POST("/addresses", h.createAddress)
	private.POST("/documents", h.createDocument)
	private.GET("/documents/:id", h.getDocument)
	private.PUT("/documents/:id", h.updateDocument)
	private.DELETE("/documents/:id", h.deleteDocument)

	return app
}

func (h *Handler) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			status := v.Status
			if v.Error != nil {
				status, _ = mapServiceError(v.Error)
			}
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", status),
				zap.Duration("latency", v.Latency),
			}
			if actor := auth.ActorFrom(c.Request().Context()); actor != nil {
				fields = append(fields, zap.String("user_id", actor.ID.String()))
			}
			switch {
			case status >= http.StatusInternalServerError:
				h.logger.Error("Request", append(fields, zap.Error(v.Error))...)
			case status >= http.StatusBadRequest:
				h.logger.Warn("Request", fields...)
			default:
				h.logger.Info("Request", fields...)
			}
			return nil
		},
	})
}

// pathID parses the :id parameter. An id that is not a uuid names no record.
func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, e.ErrNotFound
	}
	return id, nil
}

func bind(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		var herr *echo.HTTPError
		if errors.As(err, &herr) {
			return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body.")
		}
		return err
	}
	return nil
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"message": msg})
}

func (h *Handler) createUser(c echo.Context) error {
	var in serializers.CreateUserInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx := c.Request().Context()
	user, err := h.accounts.CreateUser(ctx, auth.ActorFrom(ctx), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, serializers.UserRepresentation(user, h.media))
}

func (h *Handler) getUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.accounts.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializers.UserRepresentation(user, h.media))
}

func (h *Handler) updateUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in serializers.CreateUserInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx := c.Request().Context()
	user, err := h.accounts.UpdateUser(ctx, auth.ActorFrom(ctx), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializers.UserRepresentation(user, h.media))
}

func (h *Handler) listComments(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	comments, err := h.records.ListComments(c.Request().Context(), id)
	if err != nil {
		return err
	}
	views := make([]serializers.CommentView, 0, len(comments))
	for _, cm := range comments {
		views = append(views, serializers.CommentRepresentation(cm))
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) createComment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in serializers.CommentInput
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx := c.Request().Context()
	comment, err := h.records.CreateComment(ctx, auth.ActorFrom(ctx), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, serializers.CommentRepresentation(comment))
}

func (h *Handler) listAttachments(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	attachments, err := h.records.ListAttachments(c.Request().Context(), id)
	if err != nil {
		return err
	}
	views := make([]serializers.AttachmentView, 0, len(attachments))
	for _, a := range attachments {
		views = append(views, serializers.AttachmentRepresentation(a, h.media))
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) createCompany(c echo.Context) error {
	var in serializers.CompanyInput
	if err := bind(c, &in); err != nil {
		return err
	}
	company, err := h.records.CreateCompany(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, serializers.CompanyRepresentation(company))
}

func (h *Handler) getCompany(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	company, err := h.records.GetCompany(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializers.CompanyRepresentation(company))
}

func (h *Handler) createAddress(c echo.Context) error {
	var in serializers.AddressInput
	if err := bind(c, &in); err != nil {
		return err
	}
	account, _ := strconv.ParseBool(c.QueryParam("account"))
	addr, err := h.records.CreateBillingAddress(c.Request().Context(), in, account)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, serializers.AddressRepresentation(addr))
}

func (h *Handler) createDocument(c echo.Context) error {
	var in controller.DocumentWrite
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx := c.Request().Context()
	doc, err := h.documents.CreateDocument(ctx, auth.ActorFrom(ctx), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, serializers.DocumentRepresentation(doc, h.media))
}

func (h *Handler) getDocument(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	doc, err := h.documents.GetDocument(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializers.DocumentRepresentation(doc, h.media))
}

func (h *Handler) updateDocument(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in controller.DocumentWrite
	if err := bind(c, &in); err != nil {
		return err
	}
	ctx := c.Request().Context()
	doc, err := h.documents.UpdateDocument(ctx, auth.ActorFrom(ctx), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serializers.DocumentRepresentation(doc, h.media))
}

func (h *Handler) deleteDocument(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.documents.DeleteDocument(ctx, auth.ActorFrom(ctx), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) forgotPassword(c echo.Context) error {
	var in serializers.ForgotPasswordInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if _, err := h.accounts.ForgotPassword(c.Request().Context(), in); err != nil {
		return err
	}
	return message(c, http.StatusOK, msgResetSent)
}

func resetLink(c echo.Context) serializers.CheckTokenInput {
	return serializers.CheckTokenInput{UIDB64: c.Param("uidb64"), Token: c.Param("token")}
}

func (h *Handler) checkResetToken(c echo.Context) error {
	if _, err := h.accounts.CheckResetToken(c.Request().Context(), resetLink(c)); err != nil {
		return err
	}
	return message(c, http.StatusOK, "Token is valid.")
}

func (h *Handler) resetPassword(c echo.Context) error {
	var in serializers.ResetPasswordInput
	if err := bind(c, &in); err != nil {
		return err
	}
	in.CheckTokenInput = resetLink(c)
	if err := h.accounts.ResetPassword(c.Request().Context(), in); err != nil {
		return err
	}
	return message(c, http.StatusOK, "Password has been reset.")
}
