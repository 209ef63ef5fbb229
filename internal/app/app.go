package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/iwtcode/linacService/internal/adapters/handlers"
	"github.com/iwtcode/linacService/internal/adapters/repositories/memory"
	"github.com/iwtcode/linacService/internal/adapters/repositories/postgres"
	"github.com/iwtcode/linacService/internal/config"
	"github.com/iwtcode/linacService/internal/interfaces"
	"github.com/iwtcode/linacService/internal/middleware/logging"
	"github.com/iwtcode/linacService/internal/middleware/swagger"
	"github.com/iwtcode/linacService/internal/services/broadcast"
	"github.com/iwtcode/linacService/internal/services/delivery"
	"github.com/iwtcode/linacService/internal/services/kafka"
	"github.com/iwtcode/linacService/internal/services/scenario"
	"github.com/iwtcode/linacService/internal/services/session"
	"github.com/iwtcode/linacService/internal/services/sharedstate"
	"github.com/iwtcode/linacService/internal/usecases"

	"go.uber.org/fx"
)

// New создает новый экземпляр fx.App
func New() *fx.App {
	return fx.New(
		ConfigModule,
		LoggingModule,
		RepositoryModule,
		BroadcastModule,
		ProducerModule,
		ServiceModule,
		UsecaseModule,
		HttpServerModule,
		// Invoke-функции для запуска фоновых задач и хуков жизненного цикла
		fx.Invoke(InvokeSharedState),
		fx.Invoke(InvokeSessions),
	)
}

// --- Модули FX ---

var ConfigModule = fx.Module("config_module",
	fx.Provide(config.LoadConfiguration),
)

func ProvideLogger(cfg *config.AppConfig) *logging.Logger {
	loggerCfg := &logging.Config{
		Enabled:    cfg.Logging.Enable,
		Level:      cfg.Logging.Level,
		LogsDir:    cfg.Logging.LogsDir,
		SavingDays: uint(cfg.Logging.SavingDays),
	}
	return logging.NewLogger(loggerCfg, "LinacStudyApp")
}

var LoggingModule = fx.Module("logging_module",
	fx.Provide(ProvideLogger),
)

// ProvideRepository выбирает хранилище общего состояния по STORE_DRIVER
func ProvideRepository(cfg *config.AppConfig, logger *logging.Logger) (interfaces.StateRepository, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		return postgres.NewRepository(cfg, logger)
	case config.StoreDriverMemory:
		logger.Warn("Shared state is kept in process memory only")
		return memory.NewRepository(), nil
	}
	return nil, fmt.Errorf("неизвестный STORE_DRIVER '%s'", cfg.StoreDriver)
}

var RepositoryModule = fx.Module("repository_module",
	fx.Provide(ProvideRepository),
)

// ProvideBroadcaster выбирает шину уведомлений по BROADCAST_DRIVER
func ProvideBroadcaster(lc fx.Lifecycle, cfg *config.AppConfig, logger *logging.Logger) (interfaces.Broadcaster, error) {
	var (
		bus interfaces.Broadcaster
		err error
	)
	switch cfg.BroadcastDriver {
	case config.BroadcastDriverKafka:
		bus, err = broadcast.NewKafkaBroadcaster(cfg, logger)
	case config.BroadcastDriverAMQP:
		bus, err = broadcast.NewAMQPBroadcaster(cfg, logger)
	case config.BroadcastDriverMemory:
		bus = broadcast.NewHub()
	case config.BroadcastDriverNone:
		bus = broadcast.Nop{}
	default:
		err = fmt.Errorf("неизвестный BROADCAST_DRIVER '%s'", cfg.BroadcastDriver)
	}
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing broadcast bus...", "driver", cfg.BroadcastDriver)
			return bus.Close()
		},
	})
	return bus, nil
}

var BroadcastModule = fx.Module("broadcast_module",
	fx.Provide(ProvideBroadcaster),
)

// ProvideStudySink создает продюсер событий исследования
func ProvideStudySink(lc fx.Lifecycle, cfg *config.AppConfig, logger *logging.Logger) (interfaces.StudySink, error) {
	producer, err := kafka.NewKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing study event producer...")
			return producer.Close()
		},
	})
	return producer, nil
}

var ProducerModule = fx.Module("producer_module",
	fx.Provide(ProvideStudySink),
)

func ProvideChannel(cfg *config.AppConfig, repo interfaces.StateRepository, bus interfaces.Broadcaster, logger *logging.Logger) *sharedstate.Channel {
	interval := time.Duration(cfg.StatePollIntervalMs) * time.Millisecond
	return sharedstate.NewChannel(repo, bus, logger, interval)
}

func ProvideLoader(cfg *config.AppConfig, logger *logging.Logger) *scenario.Loader {
	return scenario.NewLoader(cfg.ScenarioDir, logger)
}

func ProvideSessions(cfg *config.AppConfig, loader *scenario.Loader, channel *sharedstate.Channel,
	study interfaces.StudySink, logger *logging.Logger) *session.Manager {
	return session.NewManager(cfg, loader, channel, study, delivery.RealClock{}, logger)
}

var ServiceModule = fx.Module("service_module",
	fx.Provide(
		ProvideChannel,
		ProvideLoader,
		ProvideSessions,
	),
)

func ProvideUsecases(sessions *session.Manager, loader *scenario.Loader, channel *sharedstate.Channel, logger *logging.Logger) interfaces.Usecases {
	return usecases.NewUsecases(sessions, loader, channel, logger)
}

var UsecaseModule = fx.Module("usecases_module",
	fx.Provide(ProvideUsecases),
)

func NewSwaggerConfig(cfg *config.AppConfig) *swagger.Config {
	return &swagger.Config{
		Enabled:  cfg.GinMode != "release",
		Path:     "/swagger",
		Host:     "localhost:" + cfg.ServerPort,
		BasePath: "/api/v1",
	}
}

var HttpServerModule = fx.Module("http_server_module",
	fx.Provide(
		NewSwaggerConfig,
		handlers.NewHandler,
		handlers.ProvideRouter,
	),
	fx.Invoke(InvokeHttpServer),
)

// InvokeSharedState запускает слушателя шины и поллер общего состояния.
func InvokeSharedState(lc fx.Lifecycle, cfg *config.AppConfig, channel *sharedstate.Channel, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting shared state channel",
				"store", cfg.StoreDriver, "broadcast", cfg.BroadcastDriver, "poll_ms", cfg.StatePollIntervalMs)
			channel.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping shared state channel...")
			channel.Stop()
			return nil
		},
	})
}

// InvokeSessions закрывает открытые дисплеи при остановке: отпуск дозы прерывается.
func InvokeSessions(lc fx.Lifecycle, cfg *config.AppConfig, sessions *session.Manager, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Display sessions ready", "role", cfg.DisplayRole, "scenario_dir", cfg.ScenarioDir)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sessions.CloseAll()
			return nil
		},
	})
}

// InvokeHttpServer запускает HTTP-сервер.
func InvokeHttpServer(lc fx.Lifecycle, cfg *config.AppConfig, h http.Handler, logger *logging.Logger) {
	serverAddr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     h,
		ReadTimeout: 10 * time.Second,
		// WriteTimeout не задан: WebSocket-соединения живут дольше запроса
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("HTTP Server is starting", "address", serverAddr)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Failed to start server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}
