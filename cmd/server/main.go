package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/talentbridge-backend/internal/app"
	"github.com/ignatzorin/talentbridge-backend/internal/config"
	"github.com/ignatzorin/talentbridge-backend/internal/db"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/domain/valueobject"
	httpHandlers "github.com/ignatzorin/talentbridge-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/talentbridge-backend/internal/http/router"
	"github.com/ignatzorin/talentbridge-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/talentbridge-backend/internal/infrastructure/payment"
	"github.com/ignatzorin/talentbridge-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/talentbridge-backend/internal/logger"
	"github.com/ignatzorin/talentbridge-backend/internal/service"
	"github.com/ignatzorin/talentbridge-backend/internal/tracing"
	"github.com/ignatzorin/talentbridge-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}
	logr := logger.L()

	shutdownTracing, err := tracing.Init(ctx, cfg.OTLPEndpoint, logr)
	if err != nil {
		logr.WithError(err).Fatal("main: ошибка инициализации трассировки")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logr.WithError(err).Warn("main: ошибка остановки трассировки")
		}
	}()

	tokenManager := service.NewTokenManager(cfg.JWTSecret, time.Hour)

	var (
		storage app.Storage
		health  *httpHandlers.HealthHandler
	)
	switch cfg.Storage {
	case config.StorageMemory:
		logr.Warn("main: используется in-memory хранилище, данные не сохраняются между запусками")
		store := memory.NewStore()
		storage = app.Storage{
			Offers:      store.Offers(),
			Engagements: store.Engagements(),
			Escrows:     store.Escrows(),
			Disputes:    store.Disputes(),
			Directory:   store.Directory(),
			Tx:          store,
		}
		health = httpHandlers.NewHealthHandler(nil)
		seedDemoDirectory(ctx, store, tokenManager)
	default:
		// Подключение к базе и миграции.
		dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logr.WithError(err).Fatal("main: ошибка подключения к базе")
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
			logr.WithError(err).Fatal("main: ошибка миграций")
		}

		storage = app.Storage{
			Offers:      persistence.NewOfferRepositoryAdapter(dbConn),
			Engagements: persistence.NewEngagementRepositoryAdapter(dbConn),
			Escrows:     persistence.NewEscrowRepositoryAdapter(dbConn),
			Disputes:    persistence.NewDisputeRepositoryAdapter(dbConn),
			Directory:   persistence.NewDirectoryRepositoryAdapter(dbConn),
			Tx:          persistence.NewTxManager(dbConn),
		}
		health = httpHandlers.NewHealthHandler(dbConn)
	}

	processor := payment.NewResilientProcessor(newProcessor(cfg), payment.RetryPolicy{
		Timeout:     cfg.Processor.Timeout,
		MaxAttempts: cfg.Processor.MaxAttempts,
		BaseDelay:   cfg.Processor.RetryBaseDelay,
	})

	hub := ws.NewHub()
	go hub.Run(ctx)

	handlers := app.BuildHandlers(cfg, app.Deps{
		Storage:   storage,
		Processor: processor,
		Notifier:  hub,
		Cache:     service.NewCacheService(ctx, 5*time.Minute),
		Health:    health,
		WS:        httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
	})

	engine := httpRouter.SetupRouter(cfg, handlers, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	logr.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logr.WithError(err).Fatal("main: сервер завершился с ошибкой")
	}
}

func newProcessor(cfg *config.Config) repository.PaymentProcessor {
	if cfg.Processor.Kind == config.ProcessorStripe {
		return payment.NewStripeProcessor(cfg.Processor.StripeKey)
	}
	logger.L().Warn("main: используется sandbox-процессор, реальные платежи не проводятся")
	return payment.NewSandboxProcessor()
}

// seedDemoDirectory наполняет in-memory справочник и печатает токены демо-участников.
func seedDemoDirectory(ctx context.Context, store *memory.Store, tokens *service.TokenManager) {
	logr := logger.L()
	result, err := service.NewSeedService(store, time.Now().UnixNano()).SeedData(ctx, 3, 8)
	if err != nil {
		logr.WithError(err).Fatal("main: ошибка генерации демо-данных")
	}

	actors := append([]valueobject.Actor{result.Admin}, result.Seekers...)
	actors = append(actors, result.Providers...)
	for _, actor := range actors {
		token, err := tokens.IssueAccess(actor)
		if err != nil {
			logr.WithError(err).Warn("main: не удалось выпустить демо-токен")
			continue
		}
		logr.WithFields(logrus.Fields{
			"user_id":    actor.UserID,
			"role":       actor.Role,
			"company_id": actor.CompanyID,
			"token":      token,
		}).Info("main: демо-участник")
	}
	for _, req := range result.Requests {
		logr.WithFields(logrus.Fields{
			"request_id": req.ID,
			"company_id": req.SeekerCompanyID,
			"title":      req.Title,
		}).Info("main: демо-заявка")
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
