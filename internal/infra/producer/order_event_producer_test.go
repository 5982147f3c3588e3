package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	mock_producer "github.com/RoyceAzure/lab/empanada/internal/infra/producer/mock"
	"github.com/golang/mock/gomock"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestPublishOrderPlaced(t *testing.T) {
	placedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	evt := model.OrderPlacedEvent{
		OrderID:       "abc-123",
		CustomerEmail: "ana@x.cl",
		Items:         []model.OrderItem{{ProductID: 1, Name: "Pino", Price: 2500, Quantity: 2}},
		Total:         5000,
		Net:           4202,
		Tax:           798,
		PlacedAt:      placedAt,
	}

	testCases := []struct {
		name     string
		writeErr error
		check    func(t *testing.T, err error)
	}{
		{
			name: "success",
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name:     "writer failed",
			writeErr: errors.New("broker down"),
			check: func(t *testing.T, err error) {
				require.EqualError(t, err, "broker down")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			writer := mock_producer.NewMockWriter(ctrl)
			writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).DoAndReturn(
				func(ctx context.Context, msgs ...kafka.Message) error {
					require.Len(t, msgs, 1)
					msg := msgs[0]
					require.Equal(t, "ana@x.cl", string(msg.Key))
					require.Len(t, msg.Headers, 1)
					require.Equal(t, EventTypeHeader, msg.Headers[0].Key)
					require.Equal(t, EventTypeOrderPlaced, string(msg.Headers[0].Value))

					var got model.OrderPlacedEvent
					require.NoError(t, json.Unmarshal(msg.Value, &got))
					require.Equal(t, evt.OrderID, got.OrderID)
					require.Equal(t, evt.Net, got.Net)
					require.True(t, placedAt.Equal(got.PlacedAt))
					return tc.writeErr
				}).Times(1)

			p := NewOrderPublisherWithWriter(writer)
			tc.check(t, p.PublishOrderPlaced(context.Background(), evt))
		})
	}
}

func TestCloseDelegatesToWriter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	writer := mock_producer.NewMockWriter(ctrl)
	writer.EXPECT().Close().Return(nil).Times(1)

	require.NoError(t, NewOrderPublisherWithWriter(writer).Close())
}

func TestNewKafkaOrderPublisherValidation(t *testing.T) {
	_, err := NewKafkaOrderPublisher(nil, "orders")
	require.ErrorIs(t, err, ErrInvalidateParameter)

	_, err = NewKafkaOrderPublisher([]string{"localhost:9092"}, "")
	require.ErrorIs(t, err, ErrInvalidateParameter)

	p, err := NewKafkaOrderPublisher([]string{"localhost:9092"}, "orders")
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestNoopPublisher(t *testing.T) {
	var p IOrderEventPublisher = NoopPublisher{}
	require.NoError(t, p.PublishOrderPlaced(context.Background(), model.OrderPlacedEvent{}))
	require.NoError(t, p.Close())
}
