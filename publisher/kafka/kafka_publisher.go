package kafka

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arunvm123/eventease/config"
	"github.com/arunvm123/eventease/model"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// messageWriter is the subset of *kafka.Writer used here
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type BookingPublisher struct {
	writer messageWriter
}

func NewBookingPublisher(cfg *config.Kafka) (*BookingPublisher, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.EventTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	if transport != nil {
		writer.Transport = transport
	}

	return &BookingPublisher{writer: writer}, nil
}

// newTransport returns nil when neither TLS nor SASL is configured, leaving
// the writer on kafka.DefaultTransport.
func newTransport(cfg *config.Kafka) (*kafka.Transport, error) {
	mechanism, err := saslMechanism(cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.TLS && mechanism == nil {
		return nil, nil
	}

	transport := &kafka.Transport{SASL: mechanism}
	if cfg.TLS {
		transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return transport, nil
}

func saslMechanism(cfg *config.Kafka) (sasl.Mechanism, error) {
	switch strings.ToLower(cfg.SASLMechanism) {
	case "":
		return nil, nil
	case "plain":
		return plain.Mechanism{Username: cfg.Username, Password: cfg.Password}, nil
	case "scram-sha-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "scram-sha-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported kafka SASL mechanism %q", cfg.SASLMechanism)
	}
}

// PublishBookingEvent writes the message keyed by booking id so every change
// to one booking lands on the same partition.
func (p *BookingPublisher) PublishBookingEvent(ctx context.Context, event model.BookingEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	err = p.writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(strconv.FormatUint(uint64(event.BookingID), 10)),
			Value: msgBytes,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s for booking %d: %w", event.Type, event.BookingID, err)
	}
	return nil
}

func (p *BookingPublisher) Close() error {
	return p.writer.Close()
}
