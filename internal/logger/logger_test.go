package logger

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewJSONLevel(t *testing.T) {
	var buf bytes.Buffer
	l, closer, err := New(Config{Level: "warn", Format: "json", Module: "shop"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "shown", line["message"])
	require.Equal(t, "shop", line["module"])
	require.Equal(t, "warn", line["level"])
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, _, err := New(Config{Level: "loud", Format: "json"}, &buf)
	require.NoError(t, err)
	l.Debug().Msg("hidden")
	require.Zero(t, buf.Len())
	l.Info().Msg("shown")
	require.NotZero(t, buf.Len())
}

func TestKafkaLogWriter(t *testing.T) {
	fw := &fakeWriter{}
	kw := newKafkaLogWriter(fw)

	n, err := kw.Write([]byte(`{"message":"a"}`))
	require.NoError(t, err)
	require.Equal(t, 15, n)
	_, err = kw.Write([]byte(`{"message":"b"}`))
	require.NoError(t, err)

	require.Len(t, fw.msgs, 2)
	require.Equal(t, uint64(1), binary.BigEndian.Uint64(fw.msgs[0].Key))
	require.Equal(t, uint64(2), binary.BigEndian.Uint64(fw.msgs[1].Key))
	require.Equal(t, `{"message":"b"}`, string(fw.msgs[1].Value))

	require.NoError(t, kw.Close())
	require.True(t, fw.closed)
	_, err = kw.Write([]byte("late"))
	require.Error(t, err)
}

func TestNewKafkaLogWriterRequiresBrokers(t *testing.T) {
	_, err := NewKafkaLogWriter(nil, "logs")
	require.ErrorIs(t, err, ErrInvalidateParameter)
}
