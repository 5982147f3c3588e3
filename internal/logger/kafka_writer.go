package logger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrInvalidateParameter = errors.New("invalidate parameter")

// Writer 抽出 kafka.Writer 方便測試
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaLogWriter 實作 io.Writer，把每一行 log 寫入 kafka
type KafkaLogWriter struct {
	w      Writer
	logId  atomic.Int64
	closed atomic.Bool
}

func NewKafkaLogWriter(brokers []string, topic string) (*KafkaLogWriter, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, ErrInvalidateParameter
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		// 設置較短的超時時間以快速發現問題
		WriteTimeout: 5 * time.Second,
		MaxAttempts:  3,
		Async:        true,
	}
	return newKafkaLogWriter(w), nil
}

func newKafkaLogWriter(w Writer) *KafkaLogWriter {
	return &KafkaLogWriter{w: w}
}

func (kw *KafkaLogWriter) Write(p []byte) (n int, err error) {
	if kw == nil || kw.closed.Load() {
		return 0, fmt.Errorf("kafka log writer is not init")
	}

	id := kw.logId.Add(1)
	// key 使用遞增序號，平均分配到各分區
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))

	// zerolog 會重用 p，需複製
	value := make([]byte, len(p))
	copy(value, p)

	err = kw.w.WriteMessages(context.Background(), kafka.Message{
		Key:   key,
		Value: value,
	})
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (kw *KafkaLogWriter) Close() error {
	if !kw.closed.CompareAndSwap(false, true) {
		return nil
	}
	return kw.w.Close()
}
