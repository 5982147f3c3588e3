package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level  string
	Format string // console | json
	// 不為空時同時寫入 kafka
	KafkaBrokers []string
	KafkaTopic   string
	Module       string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New 建立 zerolog logger，回傳的 Closer 需在程式結束時呼叫
func New(cfg Config, out io.Writer) (*zerolog.Logger, io.Closer, error) {
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var w io.Writer = out
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic != "" {
		kw, err := NewKafkaLogWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		w = zerolog.MultiLevelWriter(w, kw)
		closer = kw
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.Module != "" {
		ctx = ctx.Str("module", cfg.Module)
	}
	l := ctx.Logger()
	return &l, closer, nil
}

// Nop 測試用
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
