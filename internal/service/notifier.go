package service

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification 短暫顯示給使用者的訊息
type Notification struct {
	Level   Level
	Message string
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogNotifier 沒有畫面時把通知寫進 log
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	if logger == nil {
		panic("log notifier logger is nil")
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(msg Notification) {
	var evt *zerolog.Event
	switch msg.Level {
	case LevelError:
		evt = n.logger.Warn()
	default:
		evt = n.logger.Info()
	}
	evt.Str("level_hint", string(msg.Level)).Msg(msg.Message)
}

// WriterNotifier CLI 使用，一則通知一行
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

var levelIcons = map[Level]string{
	LevelInfo:    "ℹ",
	LevelSuccess: "✔",
	LevelError:   "✖",
}

func (n *WriterNotifier) Notify(msg Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s %s\n", levelIcons[msg.Level], msg.Message)
}

func notify(n Notifier, level Level, msg string) {
	if n == nil {
		return
	}
	n.Notify(Notification{Level: level, Message: msg})
}
