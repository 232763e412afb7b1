package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/rs/zerolog"
	skafka "github.com/segmentio/kafka-go"
)

var _ ledger.EventPublisher = (*Publisher)(nil)

// Writer subconjunto de kafka.Writer que usa el publicador (sustituible en tests).
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Publisher publica eventos de documento. La clave del mensaje es tenant/documento para
// que los eventos de un mismo documento caigan en la misma partición.
type Publisher struct {
	writer Writer
	log    zerolog.Logger
}

// NewPublisher crea un writer real contra los brokers y el tópico indicados.
func NewPublisher(brokers []string, topic string, log zerolog.Logger) *Publisher {
	w := &skafka.Writer{
		Addr:         skafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &skafka.Hash{},
		RequiredAcks: skafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Publisher{writer: w, log: log}
}

// NewPublisherWithWriter permite inyectar un writer de prueba.
func NewPublisherWithWriter(w Writer, log zerolog.Logger) *Publisher {
	return &Publisher{writer: w, log: log}
}

// Publish serializa el evento a JSON y lo escribe.
func (p *Publisher) Publish(ctx context.Context, evt entity.DocumentEvent) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := skafka.Message{
		Key:   []byte(evt.TenantID + "/" + evt.DocumentID),
		Value: b,
		Headers: []skafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	p.log.Debug().Str("event", evt.Type).Str("document_id", evt.DocumentID).Msg("evento publicado")
	return nil
}

// Close cierra el writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
