package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bizdesk/bizdesk/internal/app"
	"github.com/bizdesk/bizdesk/internal/delivery/challans"
	"github.com/bizdesk/bizdesk/internal/documents"
	"github.com/bizdesk/bizdesk/internal/inventory"
	"github.com/bizdesk/bizdesk/internal/inventory/journals"
	"github.com/bizdesk/bizdesk/internal/masterdata/companies"
	"github.com/bizdesk/bizdesk/internal/masterdata/groups"
	"github.com/bizdesk/bizdesk/internal/masterdata/parties"
	"github.com/bizdesk/bizdesk/internal/masterdata/products"
	"github.com/bizdesk/bizdesk/internal/masterdata/warehouses"
	"github.com/bizdesk/bizdesk/internal/observability"
	"github.com/bizdesk/bizdesk/internal/payroll/attendance"
	"github.com/bizdesk/bizdesk/internal/payroll/designations"
	"github.com/bizdesk/bizdesk/internal/payroll/employees"
	"github.com/bizdesk/bizdesk/internal/platform/cache"
	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/procurement/orders"
	"github.com/bizdesk/bizdesk/internal/procurement/returns"
	"github.com/bizdesk/bizdesk/internal/shared"
	"github.com/bizdesk/bizdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	baseCalc := cfg.Calculator()
	calc := metrics.InstrumentCalculator(baseCalc)

	locker := cache.NewRedisLocker(redisClient)
	numbers := documents.NewNumberer(documents.NewPgSequenceStore(pool), locker)
	auditor := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)

	catalogCache := cache.NewVersioned(redisClient, "bizdesk", cfg.CacheTTL)
	go func() {
		err := catalogCache.Listen(ctx, func(scope string, version int64) {
			logger.Debug("cache scope bumped", slog.String("scope", scope), slog.Int64("version", version))
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("cache listen", slog.Any("error", err))
		}
	}()

	companyService := companies.NewService(companies.NewRepository(pool))
	customerService := parties.NewService(parties.NewRepository(pool, parties.KindCustomer), parties.KindCustomer, auditor)
	vendorService := parties.NewService(parties.NewRepository(pool, parties.KindVendor), parties.KindVendor, auditor)
	brandService := groups.NewService(groups.NewRepository(pool, groups.KindBrand), groups.KindBrand, catalogCache)
	categoryService := groups.NewService(groups.NewRepository(pool, groups.KindCategory), groups.KindCategory, catalogCache)
	productService := products.NewService(products.NewRepository(pool), catalogCache, baseCalc)
	warehouseService := warehouses.NewService(warehouses.NewRepository(pool))

	challanService := challans.NewService(challans.NewRepository(pool), calc, numbers, idempotency, auditor)
	orderService := orders.NewService(orders.NewRepository(pool), calc, numbers, auditor)
	returnService := returns.NewService(returns.NewRepository(pool), calc, numbers, auditor)
	stockService := inventory.NewService(inventory.NewStore(pool))
	journalService := journals.NewService(journals.NewRepository(pool), calc, numbers, inventory.NewLedger(cfg.AllowNegativeStock), auditor)

	designationService := designations.NewService(designations.NewRepository(pool))
	employeeService := employees.NewService(employees.NewRepository(pool))
	attendanceService := attendance.NewService(attendance.NewRepository(pool), auditor)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		Metrics:    metrics,
		Calculator: calc,

		Companies:  companies.NewHandler(logger, companyService),
		Customers:  parties.NewHandler(logger, customerService),
		Vendors:    parties.NewHandler(logger, vendorService),
		Brands:     groups.NewHandler(logger, brandService),
		Categories: groups.NewHandler(logger, categoryService),
		Products:   products.NewHandler(logger, productService),
		Warehouses: warehouses.NewHandler(logger, warehouseService),

		Challans:       challans.NewHandler(logger, challanService),
		PurchaseOrders: orders.NewHandler(logger, orderService),
		Returns:        returns.NewHandler(logger, returnService),
		Stock:          inventory.NewHandler(logger, stockService),
		Journals:       journals.NewHandler(logger, journalService),

		Designations: designations.NewHandler(logger, designationService),
		Employees:    employees.NewHandler(logger, employeeService),
		Attendance:   attendance.NewHandler(logger, attendanceService),

		Jobs: jobs.NewHandler(inspector, jobClient, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
