package producer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/segmentio/kafka-go"
)

const (
	EventTypeHeader      = "event_type"
	EventTypeOrderPlaced = "order_placed"
)

var ErrInvalidateParameter = errors.New("invalidate parameter")

// Writer kafka.Writer 的最小介面，方便替換成 mock
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type IOrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, evt model.OrderPlacedEvent) error
	Close() error
}

// KafkaOrderPublisher 以客戶 email 當 key，同一客戶的訂單落在同一分區
type KafkaOrderPublisher struct {
	writer Writer
}

func NewKafkaOrderPublisher(brokers []string, topic string) (*KafkaOrderPublisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, ErrInvalidateParameter
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return NewOrderPublisherWithWriter(w), nil
}

func NewOrderPublisherWithWriter(w Writer) *KafkaOrderPublisher {
	if w == nil {
		panic("order publisher writer is nil")
	}
	return &KafkaOrderPublisher{writer: w}
}

func (p *KafkaOrderPublisher) PublishOrderPlaced(ctx context.Context, evt model.OrderPlacedEvent) error {
	msg, err := p.convertToMessage(evt.CustomerEmail, EventTypeOrderPlaced, &evt)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaOrderPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaOrderPublisher) convertToMessage(key, eventType string, evt any) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{
				Key:   EventTypeHeader,
				Value: []byte(eventType),
			},
		},
	}, nil
}

// NoopPublisher 沒有設定 broker 時使用
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPlaced(context.Context, model.OrderPlacedEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
