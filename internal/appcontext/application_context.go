package appcontext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/config"
	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/infra/apiclient"
	"github.com/RoyceAzure/lab/empanada/internal/infra/producer"
	"github.com/RoyceAzure/lab/empanada/internal/infra/repository/state"
	"github.com/RoyceAzure/lab/empanada/internal/logger"
	"github.com/RoyceAzure/lab/empanada/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ApplicationContext 商店客戶端的所有元件
type ApplicationContext struct {
	Cf        *config.Config
	Logger    *zerolog.Logger
	logCloser io.Closer

	StateStore state.IStateStore
	ApiClient  *apiclient.Client
	Publisher  producer.IOrderEventPublisher
	Notifier   service.Notifier

	Catalog  *service.CatalogService
	Cart     *service.CartService
	Session  *service.SessionService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Admin    *service.AdminService
}

type Option func(*ApplicationContext)

// WithLogger 不使用設定檔建立 logger
func WithLogger(l *zerolog.Logger) Option {
	return func(app *ApplicationContext) { app.Logger = l }
}

// WithNotifier 預設寫入 log
func WithNotifier(n service.Notifier) Option {
	return func(app *ApplicationContext) { app.Notifier = n }
}

// WithStateStore 測試時注入
func WithStateStore(s state.IStateStore) Option {
	return func(app *ApplicationContext) { app.StateStore = s }
}

func NewApplicationContext(ctx context.Context, cf *config.Config, opts ...Option) (*ApplicationContext, error) {
	if cf == nil {
		return nil, errors.New("config is nil")
	}
	app := ApplicationContext{Cf: cf}
	for _, opt := range opts {
		opt(&app)
	}
	if err := app.Init(ctx); err != nil {
		// 已建立的資源要釋放
		_ = app.Shutdown(context.Background())
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init(ctx context.Context) error {
	if err := app.setUpLogger(); err != nil {
		return err
	}
	if err := app.setUpStateStore(ctx); err != nil {
		return err
	}
	if err := app.setUpApiClient(); err != nil {
		return err
	}
	if err := app.setUpPublisher(); err != nil {
		return err
	}
	if err := app.setUpServices(); err != nil {
		return err
	}
	return app.restoreState(ctx)
}

func (app *ApplicationContext) setUpLogger() error {
	if app.Logger == nil {
		l, closer, err := logger.New(logger.Config{
			Level:        app.Cf.LogLevel,
			Format:       app.Cf.LogFormat,
			KafkaBrokers: app.Cf.KafkaBrokers,
			KafkaTopic:   app.Cf.KafkaLogTopic,
			Module:       "shop",
		}, nil)
		if err != nil {
			return fmt.Errorf("setup logger: %w", err)
		}
		app.Logger = l
		app.logCloser = closer
	}
	if app.Notifier == nil {
		app.Notifier = service.NewLogNotifier(app.Logger)
	}
	return nil
}

func (app *ApplicationContext) setUpStateStore(ctx context.Context) error {
	if app.StateStore != nil {
		return nil
	}
	app.Logger.Info().Str("driver", app.Cf.StateDriver).Msg("Start setup state store")
	switch app.Cf.StateDriver {
	case config.StateDriverMemory:
		app.StateStore = state.NewMemoryStore()
	case config.StateDriverRedis:
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
		app.StateStore = state.NewRedisStore(client, app.Cf.StateProfile)
	default:
		fs, err := state.NewFileStore(app.Cf.StateDir, app.Cf.StateProfile)
		if err != nil {
			return fmt.Errorf("setup file store: %w", err)
		}
		app.StateStore = fs
	}
	app.Logger.Info().Msg("Finish setup state store")
	return nil
}

func (app *ApplicationContext) setUpApiClient() error {
	app.Logger.Info().Str("api_url", app.Cf.ApiUrl).Msg("Start setup api client")
	c, err := apiclient.NewClient(app.Cf.ApiUrl,
		apiclient.WithTimeout(app.Cf.HttpTimeout),
		apiclient.WithLogger(app.Logger),
	)
	if err != nil {
		return fmt.Errorf("setup api client: %w", err)
	}
	app.ApiClient = c
	app.Logger.Info().Msg("Finish setup api client")
	return nil
}

func (app *ApplicationContext) setUpPublisher() error {
	app.Logger.Info().Msg("Start setup order publisher")
	if len(app.Cf.KafkaBrokers) == 0 || app.Cf.KafkaOrderTopic == "" {
		app.Publisher = producer.NoopPublisher{}
	} else {
		p, err := producer.NewKafkaOrderPublisher(app.Cf.KafkaBrokers, app.Cf.KafkaOrderTopic)
		if err != nil {
			return fmt.Errorf("setup order publisher: %w", err)
		}
		app.Publisher = p
	}
	app.Logger.Info().Msg("Finish setup order publisher")
	return nil
}

func (app *ApplicationContext) setUpServices() error {
	app.Logger.Info().Msg("Start setup services")
	app.Catalog = service.NewCatalogService(app.ApiClient, app.Logger)
	app.Session = service.NewSessionService(app.StateStore, app.ApiClient, app.Notifier, app.Logger)
	// 每個請求都帶目前 session 的 token
	app.ApiClient.SetTokenSource(apiclient.TokenSourceFunc(app.Session.Token))
	app.Cart = service.NewCartService(app.StateStore, app.Catalog, app.Notifier, app.Logger)
	app.Checkout = service.NewCheckoutService(app.Cart, app.Session, app.Catalog, app.ApiClient, app.Publisher, app.Notifier, app.Logger)
	app.Orders = service.NewOrderService(app.ApiClient, app.Session, app.Notifier, app.Logger)
	app.Admin = service.NewAdminService(app.ApiClient, app.Session, app.Catalog, app.Notifier, app.Logger)
	app.Logger.Info().Msg("Finish setup services")
	return nil
}

// restoreState 讀回上次的 session 與購物車，毀損的記錄會被丟棄
func (app *ApplicationContext) restoreState(ctx context.Context) error {
	if err := app.Session.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if err := app.Cart.Restore(ctx); err != nil {
		return fmt.Errorf("restore cart: %w", err)
	}
	return nil
}

// NewCarousel 以目前目錄的精選商品建立輪播
func (app *ApplicationContext) NewCarousel(onChange func(index int, p model.Product)) *service.Carousel {
	return service.NewCarousel(app.Catalog.Featured(constants.FeaturedProductCount), app.Cf.CarouselInterval, onChange)
}

func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	if app.Logger != nil {
		app.Logger.Info().Msg("Start application shutdown")
	}

	done := make(chan error)
	go func() {
		defer close(done)
		var errList []error
		if app.Publisher != nil {
			if err := app.Publisher.Close(); err != nil {
				errList = append(errList, fmt.Errorf("close publisher: %w", err))
			}
		}
		if app.StateStore != nil {
			if err := app.StateStore.Close(); err != nil {
				errList = append(errList, fmt.Errorf("close state store: %w", err))
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
