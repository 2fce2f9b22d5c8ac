package controller

import (
	"context"
	"sync"

	"github.com/gartstein/crm/internal/crm/events"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/google/uuid"
)

// MockRepository implements every repository interface for testing
type MockRepository struct {
	createUser          func(context.Context, *models.User) error
	getUser             func(context.Context, uuid.UUID) (*models.User, error)
	updateUser          func(context.Context, uuid.UUID, *models.UserChanges) (*models.User, error)
	setPassword         func(context.Context, uuid.UUID, string) error
	userExistsByEmail   func(context.Context, string, uuid.UUID) (bool, error)
	findUserByEmailFold func(context.Context, string) (*models.User, error)
	createDocument      func(context.Context, *models.Document, models.DocumentShares) (*models.Document, error)
	getDocument         func(context.Context, uuid.UUID) (*models.Document, error)
	updateDocument      func(context.Context, uuid.UUID, *models.DocumentChanges, models.DocumentShares) (*models.Document, error)
	deleteDocument      func(context.Context, uuid.UUID) error
	documentTitleExists func(context.Context, string, uuid.UUID) (bool, error)
	createCompany       func(context.Context, *models.Company) error
	getCompany          func(context.Context, uuid.UUID) (*models.Company, error)
	createAddress       func(context.Context, *models.Address) error
	createComment       func(context.Context, *models.Comment) error
	listComments        func(context.Context, uuid.UUID) ([]*models.Comment, error)
	listAttachments     func(context.Context, uuid.UUID) ([]*models.Attachment, error)
}

func (m *MockRepository) CreateUser(ctx context.Context, u *models.User) error {
	return m.createUser(ctx, u)
}

func (m *MockRepository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.getUser(ctx, id)
}

func (m *MockRepository) UpdateUser(ctx context.Context, id uuid.UUID, c *models.UserChanges) (*models.User, error) {
	return m.updateUser(ctx, id, c)
}

func (m *MockRepository) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.setPassword(ctx, id, hash)
}

func (m *MockRepository) UserExistsByEmail(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	return m.userExistsByEmail(ctx, email, exclude)
}

func (m *MockRepository) FindUserByEmailFold(ctx context.Context, email string) (*models.User, error) {
	return m.findUserByEmailFold(ctx, email)
}

func (m *MockRepository) CreateDocument(ctx context.Context, d *models.Document, s models.DocumentShares) (*models.Document, error) {
	return m.createDocument(ctx, d, s)
}

func (m *MockRepository) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	return m.getDocument(ctx, id)
}

func (m *MockRepository) UpdateDocument(ctx context.Context, id uuid.UUID, c *models.DocumentChanges, s models.DocumentShares) (*models.Document, error) {
	return m.updateDocument(ctx, id, c, s)
}

func (m *MockRepository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	return m.deleteDocument(ctx, id)
}

func (m *MockRepository) DocumentTitleExists(ctx context.Context, title string, exclude uuid.UUID) (bool, error) {
	return m.documentTitleExists(ctx, title, exclude)
}

func (m *MockRepository) CreateCompany(ctx context.Context, c *models.Company) error {
	return m.createCompany(ctx, c)
}

func (m *MockRepository) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return m.getCompany(ctx, id)
}

func (m *MockRepository) CreateAddress(ctx context.Context, a *models.Address) error {
	return m.createAddress(ctx, a)
}

func (m *MockRepository) CreateComment(ctx context.Context, c *models.Comment) error {
	return m.createComment(ctx, c)
}

func (m *MockRepository) ListCommentsOnUser(ctx context.Context, id uuid.UUID) ([]*models.Comment, error) {
	return m.listComments(ctx, id)
}

func (m *MockRepository) ListAttachmentsByCreator(ctx context.Context, id uuid.UUID) ([]*models.Attachment, error) {
	return m.listAttachments(ctx, id)
}

type producedEvent struct {
	EventType events.EventType
	Subject   uuid.UUID
	Data      map[string]string
}

// MockProducer is a test double for the Kafka producer.
type MockProducer struct {
	mu             sync.Mutex
	producedEvents []producedEvent
	wg             *sync.WaitGroup
}

// Produce records the event and signals the wait group.
func (m *MockProducer) Produce(eventType events.EventType, subject uuid.UUID, data map[string]string) {
	m.mu.Lock()
	m.producedEvents = append(m.producedEvents, producedEvent{eventType, subject, data})
	m.mu.Unlock()
	if m.wg != nil {
		m.wg.Done()
	}
}

func (m *MockProducer) recorded() []producedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]producedEvent(nil), m.producedEvents...)
}

// fixedTokens issues one token for every user.
type fixedTokens struct {
	token string
}

func (f fixedTokens) MakeToken(*models.User) string { return f.token }

func (f fixedTokens) CheckToken(_ *models.User, token string) bool { return token == f.token }
