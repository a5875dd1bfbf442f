package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/facturacion-api/internal/application/accounting"
	"github.com/jhoicas/facturacion-api/internal/application/billing"
	domaindian "github.com/jhoicas/facturacion-api/internal/domain/dian"
	infradian "github.com/jhoicas/facturacion-api/internal/infrastructure/dian"
	"github.com/jhoicas/facturacion-api/internal/infrastructure/dian/signer"
	"github.com/jhoicas/facturacion-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/facturacion-api/internal/interfaces/http"
	"github.com/jhoicas/facturacion-api/pkg/config"
	"github.com/jhoicas/facturacion-api/pkg/logger"
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
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repositorios
	companyRepo := postgres.NewCompanyRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	resolutionRepo := postgres.NewBillingResolutionRepository(pool)
	docRepo := postgres.NewFiscalDocumentRepository(pool)
	artifactRepo := postgres.NewDIANDocumentRepository(pool)
	eventRepo := postgres.NewDIANEventRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	mappingRepo := postgres.NewAccountMappingRepository(pool)
	journalRepo := postgres.NewJournalRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Canal DIAN: sin client_id el cliente envía sin token; sin URL base no hay
	// envío y los documentos quedan FIRMADA (modo desarrollo).
	var submitter infradian.DIANSubmitter
	if cfg.DIAN.APIBaseURL != "" {
		submitter = infradian.NewAPIClient(infradian.APIClientConfig{
			BaseURL:      cfg.DIAN.APIBaseURL,
			ClientID:     cfg.DIAN.ClientID,
			ClientSecret: cfg.DIAN.ClientSecret,
			Timeout:      cfg.DIAN.HTTPTimeout,
		})
	} else {
		log.Warn().Msg("DIAN_API_URL vacío: los documentos quedarán FIRMADA sin envío")
	}

	dianCfg := billing.DIANConfig{
		TechnicalKey: cfg.DIAN.TechnicalKey,
		SoftwareID:   cfg.DIAN.SoftwareID,
		Environment:  cfg.DIAN.Environment,
		CertBase64:   cfg.DIAN.CertBase64,
		CertPassword: cfg.DIAN.CertPassword,
	}

	interpreter := billing.NewResponseInterpreter(txRunner, log)
	orchestrator := billing.NewIssueOrchestrator(
		docRepo, artifactRepo, eventRepo,
		companyRepo, customerRepo, resolutionRepo,
		domaindian.NewCufeCalculatorService(),
		infradian.NewXMLBuilderService(),
		infradian.NewQRService(),
		signer.NewDigitalSignatureService(),
		submitter, interpreter, dianCfg, log,
	)
	tracker := billing.NewStatusTracker(docRepo, artifactRepo, eventRepo, submitter, interpreter, log)
	documentSvc := billing.NewDocumentService(docRepo, customerRepo, resolutionRepo, txRunner, log)
	companySvc := billing.NewCompanyService(companyRepo)
	customerSvc := billing.NewCustomerService(customerRepo)
	resolutionSvc := billing.NewResolutionService(resolutionRepo)

	// Módulo contable
	engine := accounting.NewEngine(accountRepo, mappingRepo, journalRepo, log)
	pucInit := accounting.NewPUCInitializer(accountRepo, mappingRepo, log)
	poster := accounting.NewPoster(docRepo, journalRepo, engine, log)
	reports := accounting.NewReportService(journalRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Documents:    documentSvc,
		Orchestrator: orchestrator,
		Tracker:      tracker,
		Companies:    companySvc,
		Customers:    customerSvc,
		Resolutions:  resolutionSvc,
		PUC:          pucInit,
		Poster:       poster,
		Reports:      reports,
		JWTSecret:    cfg.JWT.Secret,
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
