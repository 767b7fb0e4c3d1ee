package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/gestionpos/facturacion-api/internal/application/auth"
	"github.com/gestionpos/facturacion-api/internal/application/billing"
	"github.com/gestionpos/facturacion-api/internal/application/inventory"
	"github.com/gestionpos/facturacion-api/internal/application/usecase"
	infraafip "github.com/gestionpos/facturacion-api/internal/infrastructure/afip"
	"github.com/gestionpos/facturacion-api/internal/infrastructure/afip/signer"
	infrapdf "github.com/gestionpos/facturacion-api/internal/infrastructure/pdf"
	"github.com/gestionpos/facturacion-api/internal/infrastructure/postgres"
	httpRouter "github.com/gestionpos/facturacion-api/internal/interfaces/http"
	pkgafip "github.com/gestionpos/facturacion-api/pkg/afip"
	"github.com/gestionpos/facturacion-api/pkg/config"
	"github.com/gestionpos/facturacion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("afip_env", cfg.AFIP.Environment).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// ── Repositorios ──────────────────────────────────────────────────────────
	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	documentRepo := postgres.NewDocumentRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	levyRepo := postgres.NewLevyRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// ── Integración AFIP ──────────────────────────────────────────────────────
	traSigner, err := signer.NewFromFiles(cfg.AFIP.CertPath, cfg.AFIP.KeyPath, cfg.AFIP.KeyPassphrase)
	if err != nil {
		log.Fatal().Err(err).Msg("credencial AFIP")
	}

	// Cache de tickets: Redis si está configurado (varias instancias), si no archivos.
	var ticketCache infraafip.TicketCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ticketCache = infraafip.NewRedisTicketCache(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("cache de tickets en Redis")
	} else {
		fileCache, err := infraafip.NewFileTicketCache(cfg.AFIP.TicketCacheDir)
		if err != nil {
			log.Fatal().Err(err).Msg("cache de tickets")
		}
		ticketCache = fileCache
	}

	wsfeTickets := infraafip.NewWSAAClient(infraafip.WSAAConfig{
		Service:     pkgafip.ServiceWSFE,
		Environment: cfg.AFIP.Environment,
		TicketTTL:   cfg.AFIP.TicketTTLDuration(),
	}, traSigner, ticketCache, log)
	padronTickets := infraafip.NewWSAAClient(infraafip.WSAAConfig{
		Service:     pkgafip.ServicePadron,
		Environment: cfg.AFIP.Environment,
		TicketTTL:   cfg.AFIP.TicketTTLDuration(),
	}, traSigner, ticketCache, log)

	wsfeClient := infraafip.NewWSFEClient(infraafip.WSFEConfig{
		CUIT:        cfg.AFIP.CUIT,
		Environment: cfg.AFIP.Environment,
	}, wsfeTickets, log)
	padronClient := infraafip.NewPadronClient(infraafip.PadronConfig{
		CUIT:        cfg.AFIP.CUIT,
		Environment: cfg.AFIP.Environment,
	}, padronTickets, log)

	// ── Casos de uso ──────────────────────────────────────────────────────────
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	companyUC := usecase.NewCompanyUseCase(companyRepo)
	productUC := usecase.NewProductUseCase(productRepo)
	customerUC := usecase.NewCustomerUseCase(customerRepo, padronClient)
	documentUC := billing.NewDocumentUseCase(
		txRunner, documentRepo, productRepo, customerRepo, companyRepo, levyRepo,
		wsfeClient, cfg.AFIP.PuntoVenta, log,
	)
	pdfUC := billing.NewPDFUseCase(documentRepo, companyRepo, customerRepo, infrapdf.NewMarotoGenerator())
	stockUC := inventory.NewStockUseCase(txRunner, productRepo, movementRepo, documentRepo, log)

	// ── Servidor HTTP ─────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // la emisión fiscal espera a AFIP
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		CompanyUC:   companyUC,
		ProductUC:   productUC,
		CustomerUC:  customerUC,
		DocumentUC:  documentUC,
		PDFUC:       pdfUC,
		StockUC:     stockUC,
		JWTSecret:   cfg.JWT.Secret,
		SwaggerPath: "./docs/swagger.json",
		BreakerState: func() string {
			return wsfeClient.BreakerState().String()
		},
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
