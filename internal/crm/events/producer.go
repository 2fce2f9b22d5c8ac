// Package events publishes CRM domain events to Kafka and consumes them.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	UserCreated            EventType = "user_created"
	UserUpdated            EventType = "user_updated"
	PasswordResetRequested EventType = "password_reset_requested"
	PasswordReset          EventType = "password_reset"
	DocumentCreated        EventType = "document_created"
	DocumentUpdated        EventType = "document_updated"
	DocumentDeleted        EventType = "document_deleted"
)

// Event is the message value written to the topic. Subject is the id of
// the user or document the event is about.
type Event struct {
	Type    EventType         `json:"type"`
	Subject uuid.UUID         `json:"subject"`
	Data    map[string]string `json:"data,omitempty"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DefaultQueueSize is the number of events buffered before Produce drops.
const DefaultQueueSize = 1000

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
	done      chan struct{}
}

// NewProducer returns a producer writing to topic. It does not contact the
// brokers; see EnsureTopic.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
		Topic:    topic,
	}, DefaultQueueSize, logger)
}

func newProducer(w KafkaWriter, queueSize int, logger *zap.Logger) *Producer {
	p := &Producer{
		writer:    w,
		events:    make(chan Event, queueSize),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}
	go p.eventLoop()
	return p
}

// EnsureTopic creates topic on the first broker. An existing topic is not
// an error.
func EnsureTopic(brokers []string, topic string, partitions int, logger *zap.Logger) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)",
			zap.String("topic", topic),
			zap.Error(err),
		)
	}
	return nil
}

// Produce queues an event without blocking. Events are dropped with a
// warning when the queue is full.
func (p *Producer) Produce(eventType EventType, subject uuid.UUID, data map[string]string) {
	select {
	case p.events <- Event{Type: eventType, Subject: subject, Data: data}:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("subject", subject.String()),
		)
	}
}

func (p *Producer) eventLoop() {
	defer close(p.done)
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			p.drain()
			return
		}
	}
}

// drain sends whatever is still queued.
func (p *Producer) drain() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		default:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("subject", event.Subject.String()),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Subject.String()),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("subject", event.Subject.String()),
		)
		return
	}
	p.logger.Debug("Produced event",
		zap.String("event_type", string(event.Type)),
		zap.String("subject", event.Subject.String()),
	)
}

// Close flushes queued events and closes the writer.
func (p *Producer) Close() {
	close(p.closeChan)
	<-p.done
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
