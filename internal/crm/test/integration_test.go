package test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/crm/internal/crm/controller"
	"github.com/gartstein/crm/internal/crm/db"
	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/gartstein/crm/internal/crm/events"
	"github.com/gartstein/crm/internal/crm/models"
	"github.com/gartstein/crm/internal/crm/serializers"
	"github.com/gartstein/crm/internal/crm/tokens"
	"github.com/gartstein/crm/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const kafkaBroker = "localhost:9092"

type IntegrationTestSuite struct {
	suite.Suite
	dbRepo      *db.Repository
	producer    *events.Producer
	kafkaReader *kafka.Reader
	logger      *zap.Logger
	topic       string
	testTimeout time.Duration
}

func TestIntegrationSuite(t *testing.T) {
	if testing.Short() || os.Getenv("CRM_INTEGRATION") == "" {
		t.Skip("Skipping integration tests; set CRM_INTEGRATION to run them")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.logger = zap.NewNop()
	s.testTimeout = 20 * time.Second
	s.topic = "crm.events.test"

	repo, err := initializeDBWithRetry()
	s.Require().NoError(err, "database initialization failed")
	s.dbRepo = repo

	s.Require().NoError(initializeKafkaWithRetry(s.topic), "Kafka initialization failed")
	s.producer = events.NewProducer([]string{kafkaBroker}, s.topic, s.logger)
	s.kafkaReader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{kafkaBroker},
		Topic:       s.topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
}

func initializeDBWithRetry() (*db.Repository, error) {
	cfg := &db.Config{
		Host:     "localhost",
		Port:     5432,
		User:     "test",
		Password: "test",
		DBName:   "test",
		SSLMode:  "disable",
	}

	var repo *db.Repository
	err := backoff.Retry(func() error {
		var err error
		repo, err = db.NewRepository(cfg)
		return err
	}, backoff.NewExponentialBackOff())
	return repo, err
}

func initializeKafkaWithRetry(topic string) error {
	brokers := []string{kafkaBroker}
	return backoff.Retry(func() error {
		if err := events.EnsureTopic(brokers, topic, 1, zap.NewNop()); err != nil {
			return err
		}
		conn, err := kafka.Dial("tcp", brokers[0])
		if err != nil {
			return err
		}
		defer conn.Close()

		partitions, err := conn.ReadPartitions(topic)
		if err != nil || len(partitions) == 0 {
			return fmt.Errorf("topic %s not found", topic)
		}
		return nil
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))
}

func (s *IntegrationTestSuite) TearDownSuite() {
	if s.kafkaReader != nil {
		s.kafkaReader.Close()
	}
	if s.producer != nil {
		s.producer.Close()
	}
	if s.dbRepo != nil {
		s.dbRepo.Close()
	}
}

func (s *IntegrationTestSuite) SetupTest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	err := s.dbRepo.Exec(ctx, "TRUNCATE TABLE document_shared_to, document_teams, documents, teams, comments, attachments, addresses, users, companies CASCADE")
	s.Require().NoError(err, "failed to clean database")
}

func (s *IntegrationTestSuite) TestUserLifecycle() {
	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	gen := tokens.NewGenerator("reset-secret", time.Hour)
	accounts := controller.NewAccountService(s.dbRepo, gen, s.producer, s.logger)
	admin := &models.User{ID: uuid.New(), Email: "admin@example.com", Role: models.RoleAdmin, IsActive: true}
	s.Require().NoError(s.dbRepo.CreateUser(ctx, admin))

	created, err := accounts.CreateUser(ctx, admin, serializers.CreateUserInput{
		Email:     utils.Ptr("jane@example.com"),
		FirstName: utils.Ptr("Jane"),
		Password:  utils.Ptr("s3cret!pass"),
	})
	s.Require().NoError(err)
	s.Equal("jane@example.com", created.Email)
	s.verifyKafkaEvent(ctx, events.UserCreated, created.ID)

	_, err = accounts.CreateUser(ctx, admin, serializers.CreateUserInput{
		Email:     utils.Ptr("jane@example.com"),
		FirstName: utils.Ptr("Janet"),
		Password:  utils.Ptr("an0ther!pass"),
	})
	s.ErrorIs(err, e.ErrInvalidInput)

	link, err := accounts.ForgotPassword(ctx, serializers.ForgotPasswordInput{Email: "JANE@example.com"})
	s.Require().NoError(err)
	event := s.verifyKafkaEvent(ctx, events.PasswordResetRequested, created.ID)
	s.Equal(link.Token, event.Data["token"])

	err = accounts.ResetPassword(ctx, serializers.ResetPasswordInput{
		CheckTokenInput: serializers.CheckTokenInput{UIDB64: link.UID, Token: link.Token},
		NewPassword1:    "n3w!password",
		NewPassword2:    "n3w!password",
	})
	s.Require().NoError(err)

	// The password change invalidates the link.
	_, err = accounts.CheckResetToken(ctx, serializers.CheckTokenInput{UIDB64: link.UID, Token: link.Token})
	s.ErrorIs(err, e.ErrInvalidInput)
}

func (s *IntegrationTestSuite) TestDocumentSharing() {
	ctx, cancel := context.WithTimeout(context.Background(), s.testTimeout)
	defer cancel()

	owner := &models.User{ID: uuid.New(), Email: "owner@example.com", Role: models.RoleUser, IsActive: true}
	reader := &models.User{ID: uuid.New(), Email: "reader@example.com", Role: models.RoleUser, IsActive: true}
	s.Require().NoError(s.dbRepo.CreateUser(ctx, owner))
	s.Require().NoError(s.dbRepo.CreateUser(ctx, reader))

	documents := controller.NewDocumentService(s.dbRepo, s.producer, s.logger)
	doc, err := documents.CreateDocument(ctx, owner, controller.DocumentWrite{
		DocumentInput: serializers.DocumentInput{Title: utils.Ptr("Contract")},
		SharedTo:      []uuid.UUID{reader.ID},
	})
	s.Require().NoError(err)
	s.Require().Len(doc.SharedTo, 1)
	s.verifyKafkaEvent(ctx, events.DocumentCreated, doc.ID)

	_, err = documents.CreateDocument(ctx, owner, controller.DocumentWrite{
		DocumentInput: serializers.DocumentInput{Title: utils.Ptr("Other")},
		SharedTo:      []uuid.UUID{uuid.New()},
	})
	s.ErrorIs(err, e.ErrInvalidInput)

	err = documents.DeleteDocument(ctx, reader, doc.ID)
	s.ErrorIs(err, e.ErrForbidden)

	s.Require().NoError(documents.DeleteDocument(ctx, owner, doc.ID))
	_, err = s.dbRepo.GetDocument(ctx, doc.ID)
	s.ErrorIs(err, e.ErrNotFound)
	s.verifyKafkaEvent(ctx, events.DocumentDeleted, doc.ID)
}

func (s *IntegrationTestSuite) verifyKafkaEvent(ctx context.Context, eventType events.EventType, subject uuid.UUID) events.Event {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	for {
		msg, err := s.kafkaReader.ReadMessage(ctx)
		if err != nil {
			s.T().Fatalf("no %s event for %s: %v", eventType, subject, err)
		}
		if string(msg.Key) != subject.String() {
			continue
		}
		var event events.Event
		s.Require().NoError(json.Unmarshal(msg.Value, &event))
		if event.Type != eventType {
			continue
		}
		return event
	}
}
