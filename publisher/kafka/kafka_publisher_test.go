package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/arunvm123/eventease/config"
	"github.com/arunvm123/eventease/model"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	return nil
}

func TestPublishBookingEvent(t *testing.T) {
	writer := &recordingWriter{}
	p := &BookingPublisher{writer: writer}

	event := model.BookingEvent{
		Type:        model.BookingCreated,
		BookingID:   17,
		EventID:     3,
		VenueID:     5,
		BookingDate: "2025-07-04",
		Timestamp:   time.Now().UTC(),
	}
	require.NoError(t, p.PublishBookingEvent(context.Background(), event))

	require.Len(t, writer.messages, 1)
	assert.Equal(t, "17", string(writer.messages[0].Key))

	var decoded model.BookingEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &decoded))
	assert.Equal(t, model.BookingCreated, decoded.Type)
	assert.Equal(t, "2025-07-04", decoded.BookingDate)
}

func TestPublishBookingEventWrapsWriterError(t *testing.T) {
	cause := errors.New("broker down")
	p := &BookingPublisher{writer: &recordingWriter{err: cause}}

	err := p.PublishBookingEvent(context.Background(), model.BookingEvent{Type: model.BookingDeleted, BookingID: 1})
	assert.ErrorIs(t, err, cause)
}

func TestNewTransport(t *testing.T) {
	transport, err := newTransport(&config.Kafka{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.Nil(t, transport)

	transport, err = newTransport(&config.Kafka{
		TLS:           true,
		SASLMechanism: "SCRAM-SHA-256",
		Username:      "doadmin",
		Password:      "secret",
	})
	require.NoError(t, err)
	require.NotNil(t, transport)
	require.NotNil(t, transport.TLS)
	require.NotNil(t, transport.SASL)
	assert.Equal(t, "SCRAM-SHA-256", transport.SASL.Name())

	transport, err = newTransport(&config.Kafka{SASLMechanism: "plain", Username: "u", Password: "p"})
	require.NoError(t, err)
	require.NotNil(t, transport)
	assert.Nil(t, transport.TLS)
	assert.Equal(t, "PLAIN", transport.SASL.Name())

	_, err = newTransport(&config.Kafka{SASLMechanism: "gssapi"})
	assert.Error(t, err)
}

func TestNewBookingPublisherRejectsUnknownMechanism(t *testing.T) {
	_, err := NewBookingPublisher(&config.Kafka{Brokers: []string{"localhost:9092"}, SASLMechanism: "oauth"})
	assert.Error(t, err)
}
