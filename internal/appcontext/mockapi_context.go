package appcontext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/config"
	"github.com/RoyceAzure/lab/empanada/internal/logger"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/handler"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/ratelimit"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/store"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/token"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/upload"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const tokenDuration = 24 * time.Hour

// MockApiContext 本地測試用後端的所有元件
type MockApiContext struct {
	Cf        *config.Config
	Logger    *zerolog.Logger
	logCloser io.Closer

	Redis        *redis.Client
	Store        store.IShopStore
	LoginLimiter ratelimit.ILimiter
	TokenMaker   token.Maker
	Images       upload.IImageStore
	Server       *handler.Server
}

func NewMockApiContext(ctx context.Context, cf *config.Config, l *zerolog.Logger) (*MockApiContext, error) {
	if cf == nil {
		return nil, errors.New("config is nil")
	}
	app := MockApiContext{Cf: cf, Logger: l}
	if err := app.Init(ctx); err != nil {
		_ = app.Shutdown(context.Background())
		return nil, err
	}
	return &app, nil
}

func (app *MockApiContext) Init(ctx context.Context) error {
	if err := app.setUpLogger(); err != nil {
		return err
	}
	if err := app.setUpRedis(ctx); err != nil {
		return err
	}
	if err := app.setUpStore(ctx); err != nil {
		return err
	}
	if err := app.setUpLimiter(); err != nil {
		return err
	}
	if err := app.setUpImageStore(); err != nil {
		return err
	}
	app.setUpTokenMaker()
	app.Server = handler.NewServer(app.Store, app.TokenMaker, app.Images, app.Logger)
	return nil
}

func (app *MockApiContext) setUpLogger() error {
	if app.Logger != nil {
		return nil
	}
	l, closer, err := logger.New(logger.Config{
		Level:        app.Cf.LogLevel,
		Format:       app.Cf.LogFormat,
		KafkaBrokers: app.Cf.KafkaBrokers,
		KafkaTopic:   app.Cf.KafkaLogTopic,
		Module:       "mockapi",
	}, nil)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	app.Logger = l
	app.logCloser = closer
	return nil
}

// setUpRedis 只有 redis_bucket 限流需要
func (app *MockApiContext) setUpRedis(ctx context.Context) error {
	if app.Cf.RateLimitDriver != config.RateLimitRedisBucket {
		return nil
	}
	app.Logger.Info().Str("addr", app.Cf.RedisAddr).Msg("Start setup redis")
	client := redis.NewClient(&redis.Options{
		Addr:     app.Cf.RedisAddr,
		Password: app.Cf.RedisPassword,
		DB:       app.Cf.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("connect redis: %w", err)
	}
	app.Redis = client
	app.Logger.Info().Msg("Finish setup redis")
	return nil
}

func (app *MockApiContext) setUpStore(ctx context.Context) error {
	app.Logger.Info().Msg("Start setup shop store")
	seed, err := store.LoadSeed(app.Cf.MockApiSeedFile)
	if err != nil {
		return err
	}

	if app.Cf.MockApiDbDsn == "" {
		app.Store = store.NewMemoryStore(seed)
		app.Logger.Info().Int("products", len(seed)).Msg("Finish setup shop store (memory)")
		return nil
	}

	gs, err := store.OpenGormStore(app.Cf.MockApiDbDsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	app.Store = gs
	if err := gs.InitMigrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	if err := gs.Seed(ctx, seed); err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	app.Logger.Info().Msg("Finish setup shop store (postgres)")
	return nil
}

func (app *MockApiContext) setUpLimiter() error {
	app.Logger.Info().Str("driver", app.Cf.RateLimitDriver).Msg("Start setup login limiter")
	cfg := ratelimit.LimiterConfig{
		Prefix:   "login",
		Capacity: app.Cf.LoginRateLimit,
		Window:   app.Cf.LoginRateWindow,
	}
	var client ratelimit.RedisClient
	if app.Redis != nil {
		client = app.Redis
	}
	limiter, err := ratelimit.NewLimiter(ratelimit.LimitType(app.Cf.RateLimitDriver), cfg, client)
	if err != nil {
		return fmt.Errorf("setup login limiter: %w", err)
	}
	app.LoginLimiter = limiter
	app.Logger.Info().Msg("Finish setup login limiter")
	return nil
}

func (app *MockApiContext) setUpImageStore() error {
	app.Logger.Info().Msg("Start setup image store")
	if app.Cf.MockApiUploadDir == "" {
		app.Images = upload.NewMemoryImageStore()
	} else {
		ds, err := upload.NewDirImageStore(app.Cf.MockApiUploadDir)
		if err != nil {
			return fmt.Errorf("setup image store: %w", err)
		}
		app.Images = ds
	}
	app.Logger.Info().Msg("Finish setup image store")
	return nil
}

func (app *MockApiContext) setUpTokenMaker() {
	app.Logger.Info().Msg("Start setup token maker")
	app.TokenMaker = token.NewMemoryMaker(tokenDuration)
	app.Logger.Info().Msg("Finish setup token maker")
}

func (app *MockApiContext) Shutdown(ctx context.Context) error {
	if app.Logger != nil {
		app.Logger.Info().Msg("Start mockapi shutdown")
	}

	done := make(chan error)
	go func() {
		defer close(done)
		var errList []error
		if app.Store != nil {
			if err := app.Store.Close(); err != nil {
				errList = append(errList, fmt.Errorf("close store: %w", err))
			}
		}
		if app.Redis != nil {
			if err := app.Redis.Close(); err != nil {
				errList = append(errList, fmt.Errorf("close redis: %w", err))
			}
		}
		if app.logCloser != nil {
			if err := app.logCloser.Close(); err != nil {
				errList = append(errList, fmt.Errorf("close log writer: %w", err))
			}
		}
		done <- errors.Join(errList...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}
