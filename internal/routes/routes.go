package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/agbado/agbado/internal/auth"
	"github.com/agbado/agbado/internal/bank"
	"github.com/agbado/agbado/internal/config"
	"github.com/agbado/agbado/internal/funding"
	"github.com/agbado/agbado/internal/gateway"
	"github.com/agbado/agbado/internal/identity"
	"github.com/agbado/agbado/internal/ledger"
	"github.com/agbado/agbado/internal/logging"
	"github.com/agbado/agbado/internal/middleware"
	"github.com/agbado/agbado/internal/notification"
	"github.com/agbado/agbado/internal/wallet"
	"github.com/agbado/agbado/internal/webhook"
	"github.com/agbado/agbado/internal/withdrawal"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Services exposes the long-lived services the server needs outside of
// request handling, such as the withdrawal reaper.
type Services struct {
	Withdrawals *withdrawal.Service
	Banks       *bank.Service
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) (Services, error) {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return Services{}, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return Services{}, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(logging.Component(d.Logger, "http")))

	// Stores
	var (
		store        ledger.Store
		walletRepo   wallet.Repository
		identityRepo identity.Repository
		wdRepo       withdrawal.Repository
		bankRepo     bank.Repository
	)
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
		walletRepo = wallet.NewPostgresRepository(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
		wdRepo = withdrawal.NewPostgresRepository(d.DB)
		bankRepo = bank.NewPostgresRepository(d.DB)
	} else {
		store = ledger.NewInMemory()
		walletRepo = wallet.NewMemoryRepository()
		identityRepo = identity.NewMemoryRepository()
		wdRepo = withdrawal.NewMemoryRepository()
		bankRepo = bank.NewMemoryRepository()
	}

	// Services
	gw := gateway.NewClient(d.Cfg.GatewayBaseURL, d.Cfg.GatewaySecretKey, d.Cfg.GatewayTimeout)
	verifier := gateway.NewVerifier(d.Cfg.GatewaySecretKey, d.Cfg.WebhookTolerance)
	notifier := notification.NewLoggerNotifier(logging.Component(d.Logger, "notification"))

	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(d.Cfg, identityRepo)
	walletSvc := wallet.NewService(walletRepo, store)
	reconciler := ledger.NewReconciler(store, logging.Component(d.Logger, "reconciler"))
	bankSvc := bank.NewService(bankRepo, d.Cache, gw, logging.Component(d.Logger, "bank"), d.Cfg.BankCacheTTL)
	fundingSvc := funding.NewService(store, walletSvc, identitySvc, gw, notifier, logging.Component(d.Logger, "funding"))
	withdrawalSvc := withdrawal.NewService(wdRepo, store, walletSvc, gw, bankSvc, notifier,
		logging.Component(d.Logger, "withdrawal"), d.Cfg.ConfirmWindow)

	// Handlers
	authHandler := auth.NewHandler(identitySvc, walletSvc, authSvc)
	walletHandler := wallet.NewHandler(walletSvc, reconciler)
	fundingHandler := funding.NewHandler(fundingSvc)
	withdrawalHandler := withdrawal.NewHandler(withdrawalSvc)
	bankHandler := bank.NewHandler(bankSvc)
	webhookHandler := webhook.NewHandler(verifier, fundingSvc, withdrawalSvc, logging.Component(d.Logger, "webhook"))

	RegisterHealthRoutes(app, d)

	api := app.Group("/api/v1")

	// Public routes. The webhook authenticates by signature, never by JWT,
	// and must not sit behind the idempotency middleware.
	jwtmw := middleware.JWTAuth(authSvc)
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter, jwtmw)
	RegisterWebhookRoutes(api, webhookHandler)

	// Protected client routes. Unsafe methods here require an
	// Idempotency-Key so client retries replay stored responses.
	protected := api.Group("", jwtmw)
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	RegisterWalletRoutes(protected, walletHandler)
	RegisterDepositRoutes(protected, fundingHandler)
	RegisterWithdrawalRoutes(protected, withdrawalHandler)
	RegisterBankRoutes(protected, bankHandler)

	return Services{Withdrawals: withdrawalSvc, Banks: bankSvc}, nil
}
