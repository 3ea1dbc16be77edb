package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/kmbaye/gestock-api/internal/application/auth"
	"github.com/kmbaye/gestock-api/internal/application/billing"
	"github.com/kmbaye/gestock-api/internal/application/stock"
	"github.com/kmbaye/gestock-api/internal/application/usecase"
	"github.com/kmbaye/gestock-api/internal/infrastructure/pdf"
	"github.com/kmbaye/gestock-api/internal/infrastructure/postgres"
	httpRouter "github.com/kmbaye/gestock-api/internal/interfaces/http"
	"github.com/kmbaye/gestock-api/internal/observability"
	"github.com/kmbaye/gestock-api/pkg/config"
	"github.com/kmbaye/gestock-api/pkg/logger"
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

	if err := runMigrations(cfg.DB.ConnectionString()); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repositorios atados al pool (lecturas y CRUD simple)
	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	movRepo := postgres.NewStockMovementRepository(pool)
	counterRepo := postgres.NewInvoiceCounterRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	txRunner := postgres.NewTxRunner(pool, cfg.DB.LockTimeoutMS)

	// Libro de stock y flujo de venta
	ledger := stock.NewLedger(txRunner, stockRepo, movRepo, productRepo, log)
	sequencer := billing.NewSequencer(counterRepo, cfg.Invoice.Prefix)
	saleWorkflow := billing.NewSaleWorkflow(
		txRunner, saleRepo, customerRepo, productRepo, warehouseRepo, sequencer, log,
	)

	// Catálogo
	companyUC := usecase.NewCompanyUseCase(companyRepo)
	warehouseUC := usecase.NewWarehouseUseCase(warehouseRepo)
	productUC := usecase.NewProductUseCase(productRepo)
	customerUC := billing.NewCustomerUseCase(customerRepo)
	userUC := usecase.NewUserUseCase(userRepo)

	// PDF de la factura
	pdfGenerator := pdf.NewMarotoPDFGenerator()
	pdfUC := billing.NewPDFUseCase(saleRepo, companyRepo, customerRepo, productRepo, pdfGenerator)

	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "GeStock API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		CompanyUC:    companyUC,
		WarehouseUC:  warehouseUC,
		ProductUC:    productUC,
		CustomerUC:   customerUC,
		SaleWorkflow: saleWorkflow,
		PDFUC:        pdfUC,
		Ledger:       ledger,
		UserUC:       userUC,
		AuthUC:       authUC,
		JWTSecret:    cfg.JWT.Secret,
	})

	// Sidecar de métricas Prometheus en puerto interno
	var metricsSrv *observability.Server
	if cfg.Metrics.Enabled {
		metricsSrv = observability.NewServer(cfg.Metrics.Addr)
		go func() {
			if err := metricsSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("servidor de métricas finalizado")
			}
		}()
	}

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
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("apagado del servidor de métricas")
		}
	}

	log.Info().Msg("aplicación detenida")
}

// runMigrations aplica las migraciones pendientes con goose sobre el driver
// estándar de pgx. Corre antes de abrir el pool de la aplicación.
func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	goose.SetTableName("goose_db_version")
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}
