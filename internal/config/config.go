package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

/*
讀取 .env 設定檔，環境變數可覆蓋
init 與 read 分開: init 設置 viper watch 與 OnConfigChange，read 使用讀寫鎖
*/
type Config struct {
	ApiUrl      string        `mapstructure:"API_URL"`
	HttpTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`

	StateDriver  string `mapstructure:"STATE_DRIVER"`
	StateDir     string `mapstructure:"STATE_DIR"`
	StateProfile string `mapstructure:"STATE_PROFILE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	KafkaBrokers    []string `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic string   `mapstructure:"KAFKA_ORDER_TOPIC"`
	KafkaLogTopic   string   `mapstructure:"KAFKA_LOG_TOPIC"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	CarouselInterval time.Duration `mapstructure:"CAROUSEL_INTERVAL"`

	MockApiPort      string        `mapstructure:"MOCKAPI_PORT"`
	MockApiDbDsn     string        `mapstructure:"MOCKAPI_DB_DSN"`
	MockApiSeedFile  string        `mapstructure:"MOCKAPI_SEED_FILE"`
	MockApiUploadDir string        `mapstructure:"MOCKAPI_UPLOAD_DIR"`
	LoginRateLimit   int           `mapstructure:"LOGIN_RATE_LIMIT"`
	LoginRateWindow  time.Duration `mapstructure:"LOGIN_RATE_WINDOW"`
	RateLimitDriver  string        `mapstructure:"RATE_LIMIT_DRIVER"`
}

const (
	StateDriverFile   = "file"
	StateDriverRedis  = "redis"
	StateDriverMemory = "memory"

	RateLimitFixedWindow = "fixed_window"
	RateLimitSlideWindow = "slide_window"
	RateLimitRedisBucket = "redis_bucket"
)

var defaults = map[string]any{
	"API_URL":            "http://127.0.0.1:8000",
	"HTTP_TIMEOUT":       "30s",
	"STATE_DRIVER":       StateDriverFile,
	"STATE_DIR":          defaultStateDir(),
	"STATE_PROFILE":      "default",
	"REDIS_ADDR":         "",
	"REDIS_PASSWORD":     "",
	"REDIS_DB":           0,
	"KAFKA_BROKERS":      "",
	"KAFKA_ORDER_TOPIC":  "empanada.orders",
	"KAFKA_LOG_TOPIC":    "",
	"LOG_LEVEL":          "info",
	"LOG_FORMAT":         "console",
	"CAROUSEL_INTERVAL":  "4s",
	"MOCKAPI_PORT":       "8000",
	"MOCKAPI_DB_DSN":     "",
	"MOCKAPI_SEED_FILE":  "",
	"MOCKAPI_UPLOAD_DIR": "",
	"LOGIN_RATE_LIMIT":   5,
	"LOGIN_RATE_WINDOW":  "1m",
	"RATE_LIMIT_DRIVER":  RateLimitFixedWindow,
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".empanada"
	}
	return fmt.Sprintf("%s/empanada", dir)
}

func (c *Config) Validate() error {
	if c.ApiUrl == "" {
		return fmt.Errorf("API_URL is required")
	}
	switch c.StateDriver {
	case StateDriverFile, StateDriverMemory:
	case StateDriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when STATE_DRIVER=redis")
		}
	default:
		return fmt.Errorf("unknown STATE_DRIVER %q", c.StateDriver)
	}
	switch c.RateLimitDriver {
	case RateLimitFixedWindow, RateLimitSlideWindow:
	case RateLimitRedisBucket:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when RATE_LIMIT_DRIVER=redis_bucket")
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_DRIVER %q", c.RateLimitDriver)
	}
	if c.LoginRateLimit <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT must be positive")
	}
	return nil
}

// Manager 持有目前設定，設定檔變動時重新載入
type Manager struct {
	v        *viper.Viper
	mu       sync.RWMutex
	cf       *Config
	onChange []func(*Config)
}

// NewManager path 為空時只讀環境變數與預設值
func NewManager(path string) (*Manager, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
	}

	m := &Manager{v: v}
	cf, err := m.load(path != "")
	if err != nil {
		return nil, err
	}
	m.cf = cf
	return m, nil
}

/*
單純回傳錯誤  由外部決定要不要Fatal
*/
func (m *Manager) load(readFile bool) (*Config, error) {
	if readFile {
		if err := m.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cf := &Config{}
	if err := m.v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cf
}

// Watch 設定檔變動時重新載入，載入失敗保留舊設定
func (m *Manager) Watch(onChange func(*Config), onError func(error)) {
	m.mu.Lock()
	if onChange != nil {
		m.onChange = append(m.onChange, onChange)
	}
	m.mu.Unlock()

	m.v.OnConfigChange(func(e fsnotify.Event) {
		cf, err := m.load(true)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		m.mu.Lock()
		m.cf = cf
		listeners := append([]func(*Config){}, m.onChange...)
		m.mu.Unlock()

		for _, f := range listeners {
			f(cf)
		}
	})
	m.v.WatchConfig()
}

// Load 一次性讀取，不監聽變動
func Load(path string) (*Config, error) {
	m, err := NewManager(path)
	if err != nil {
		return nil, err
	}
	return m.Get(), nil
}
