package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/mdmehedyhasanmiraz/wellmart-backend/internal/api/http"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/api/http/handlers"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/auth"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/config"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/events"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/observability"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/persistence"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/provider"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/provider/devauth"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/provider/oidc"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/repository"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	companyRepo := repository.NewCompanyRepository(pool)
	stateStore := repository.NewOAuthStateStore(redis.Client)

	providers, err := buildProviders(ctx, cfg.Provider)
	if err != nil {
		logger.Fatal("failed to init identity provider", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, logger).RegisterHandlers()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		StateStore: stateStore,
		Providers:  providers,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	smsService := service.NewSMSService(cfg.SMS)

	carrier := auth.NewSessionCarrier(cfg.Auth.SecureCookies)
	authMiddleware := auth.NewMiddleware(authService.TokenManager(), carrier, userRepo, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis),
		Auth:           handlers.NewAuthHandler(authService, carrier, userRepo, logger),
		Admin:          handlers.NewAdminHandler(companyRepo, smsService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func buildProviders(ctx context.Context, cfg config.ProviderConfig) (map[service.Flow]provider.IdentityProvider, error) {
	if cfg.Mode == config.ProviderModeMock {
		mock := devauth.New(domain.Identity{
			ID:    "dev-user",
			Name:  "Dev User",
			Email: "dev@example.com",
		})
		return map[service.Flow]provider.IdentityProvider{
			service.FlowGeneral: mock,
			service.FlowAdmin:   mock,
		}, nil
	}

	providers := make(map[service.Flow]provider.IdentityProvider, 2)
	for flow, redirectURL := range map[service.Flow]string{
		service.FlowGeneral: cfg.RedirectURL,
		service.FlowAdmin:   cfg.AdminRedirectURL,
	} {
		p, err := oidc.New(ctx, oidc.Config{
			IssuerURL:    cfg.IssuerURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       cfg.Scopes,
			Timeout:      cfg.Timeout(),
		})
		if err != nil {
			return nil, err
		}
		providers[flow] = p
	}
	return providers, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
