// Command scanner runs the triangular-arbitrage scanner end to end: it
// loads configuration, builds the relationship set from exchange metadata,
// starts the depth cache, runs the evaluate/execute loop, and serves the
// observability API. Adapted from the reference implementation's
// cmd/server/main.go wiring (SPEC_FULL §11).
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	_ "github.com/lib/pq"

	"arbitrage/internal/config"
	"arbitrage/internal/depthcache"
	"arbitrage/internal/evaluator"
	"arbitrage/internal/exchange"
	"arbitrage/internal/executor"
	"arbitrage/internal/httpapi"
	"arbitrage/internal/metrics"
	"arbitrage/internal/models"
	"arbitrage/internal/notify"
	"arbitrage/internal/relationship"
	"arbitrage/internal/repository"
	"arbitrage/internal/service"
	"arbitrage/internal/wsapi"
	"arbitrage/pkg/crypto"
	"arbitrage/pkg/utils"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s <config.json>\n", os.Args[0])
		os.Exit(1)
	}
	configPath := flag.Arg(0)

	encryptionKey := []byte(os.Getenv("ARBITRAGE_ENCRYPTION_KEY"))
	if err := crypto.ValidateKey(encryptionKey); err != nil {
		fmt.Fprintf(os.Stderr, "ARBITRAGE_ENCRYPTION_KEY: %v (must be exactly 32 bytes)\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(configPath, encryptionKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := utils.InitLogger(utils.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})
	utils.SetGlobalLogger(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("scanner exited with error", utils.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *utils.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiSecret, err := cfg.DecryptedAPISecret()
	if err != nil {
		return fmt.Errorf("decrypt api_secret: %w", err)
	}
	ex := exchange.NewBinance(cfg.APIKey, apiSecret)
	defer ex.Close()

	db, closeDB, err := openDatabase(cfg, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeDB()

	blacklistService, settingsService, notificationRepo, statsService, auditRecorder := wireServices(db)

	pairs, err := buildTradingPairs(ctx, ex, cfg.InvestmentBase, blacklistService, logger)
	if err != nil {
		return fmt.Errorf("build trading pairs: %w", err)
	}

	relSet := relationship.Build(cfg.InvestmentBase, pairs)
	if len(relSet.Relationships) == 0 {
		return fmt.Errorf("no triangular relationships found for base asset %s", cfg.InvestmentBase)
	}
	logger.Info("relationship set built", utils.String("summary", relSet.String()))

	if statsService != nil {
		statsService.SetTopology(len(relSet.Relationships), len(relSet.Symbols))
	}

	hub := wsapi.NewHub(logger)
	go hub.Run()
	if statsService != nil {
		statsService.SetBroadcaster(hub)
	}
	var notificationService *service.NotificationService
	if notificationRepo != nil {
		notificationService = service.NewNotificationService(notificationRepo, hub)
	}

	hooks := depthcache.Hooks{
		OnGap: func(symbol string) {
			metrics.RecordGap(symbol)
			if statsService != nil {
				statsService.RecordGap(symbol)
			}
		},
		OnResync: func(symbol string) {
			metrics.RecordResync(symbol)
			if statsService != nil {
				statsService.RecordResync(symbol)
			}
		},
	}

	cache, err := depthcache.New(ctx, ex, relSet.Symbols, cfg.NIngestWorkers, cfg.NReconcileWorkers, cfg.DepthSize, logger, hooks)
	if err != nil {
		return fmt.Errorf("start depth cache: %w", err)
	}
	logger.Info("depth cache bootstrapped", utils.Int("symbols", len(relSet.Symbols)))

	telegramNotifier := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramUserID, cfg.TelegramEnabled, &http.Client{Timeout: 10 * time.Second}, logger)
	go telegramNotifier.Run(ctx)

	combinedNotifier := &compositeNotifier{telegram: telegramNotifier, notifications: notificationService}

	execCfg := executor.Config{
		ProfitThreshold: decimal.NewFromFloat(cfg.TradingProfitThreshold / 100),
		AgeThresholdMS:  int64(cfg.TradingAgeThresholdMS),
		PollInterval:    500 * time.Millisecond,
	}
	exec := executor.New(ex, auditRecorder, combinedNotifier, logger, execCfg, cfg.TradingEnabled)

	var executionCount int64
	go evaluationLoop(ctx, logger, cache, relSet, cfg, exec, settingsService, &executionCount)

	server := buildHTTPServer(cfg, logger, &httpapi.Dependencies{
		BlacklistService:    blacklistService,
		SettingsService:     settingsService,
		NotificationService: notificationService,
		StatsService:        statsService,
		Hub:                 hub,
		Logger:              logger,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		AdminUsername:       cfg.AdminUsername,
		AdminPasswordHash:   cfg.AdminPasswordHash,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", utils.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("http server failed", utils.Err(err))
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server forced to shutdown", utils.Err(err))
	}

	logger.Info("scanner stopped", utils.Int64("executions", atomic.LoadInt64(&executionCount)))
	return nil
}

// buildTradingPairs filters exchange metadata down to actively-trading
// markets, excluding anything on the operator-maintained blacklist.
func buildTradingPairs(ctx context.Context, ex exchange.Exchange, base string, blacklistService *service.BlacklistService, logger *utils.Logger) ([]models.TradingPair, error) {
	symbols, err := ex.ExchangeInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch exchange info: %w", err)
	}

	blacklisted := make(map[string]bool)
	if blacklistService != nil {
		entries, err := blacklistService.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("load blacklist: %w", err)
		}
		for _, e := range entries {
			blacklisted[e.Symbol] = true
		}
	}

	var pairs []models.TradingPair
	for _, s := range symbols {
		if s.Status != exchange.TradingStatus {
			continue
		}
		if blacklisted[s.Symbol] {
			logger.Debug("skipping blacklisted symbol", utils.Symbol(s.Symbol))
			continue
		}
		pairs = append(pairs, models.NewTradingPair(s.Symbol, s.BaseAsset, s.QuoteAsset, s.StepSize))
	}
	return pairs, nil
}

// evaluationLoop mirrors the reference implementation's single-threaded
// calculation cluster: it repeatedly sweeps every relationship in order,
// considering each deal for execution, until trading_execution_cap
// executions have happened (original_source/src/calculation_cluster.rs:42-48
// gates the whole outer loop on this count, not just the execution step, so
// the scanner stops evaluating entirely once the cap is reached — a
// deliberate simplification operators opt into by setting a finite cap).
// cap == -1 runs forever.
func evaluationLoop(ctx context.Context, logger *utils.Logger, cache *depthcache.Cache, relSet relationship.Set, cfg *config.Config, exec *executor.Executor, settingsService *service.SettingsService, executionCount *int64) {
	sweepParams := evaluator.SweepParams{
		InvestmentMin:  decimal.NewFromFloat(cfg.InvestmentMin),
		InvestmentMax:  decimal.NewFromFloat(cfg.InvestmentMax),
		InvestmentStep: decimal.NewFromFloat(cfg.InvestmentStep),
		TakerFee:       decimal.NewFromFloat(cfg.TradingTakerFee),
	}

	select {
	case <-cache.BootstrapDone():
	case <-ctx.Done():
		return
	}
	logger.Info("evaluation loop starting", utils.Int("relationships", len(relSet.Relationships)))

	for {
		if ctx.Err() != nil {
			return
		}
		if execCap := cfg.TradingExecutionCap; execCap != -1 && atomic.LoadInt64(executionCount) >= int64(execCap) {
			logger.Info("trading_execution_cap reached, stopping evaluation", utils.Int64("executions", atomic.LoadInt64(executionCount)))
			return
		}

		applyRuntimeSettings(cfg, exec, settingsService, ctx)

		for _, rel := range relSet.Relationships {
			if ctx.Err() != nil {
				return
			}

			start := time.Now()
			deal, err := evaluator.Evaluate(ctx, cache, rel, sweepParams)
			metrics.SweepLatency.Observe(float64(time.Since(start).Milliseconds()))
			if err != nil {
				logger.Warn("evaluation failed", utils.Err(err), utils.String("relationship", rel.Key()))
				continue
			}
			metrics.RelationshipsEvaluated.Inc()
			profitF, _ := deal.Profit.Float64()
			metrics.DealProfit.Observe(profitF)

			executed, err := exec.Consider(ctx, deal)
			if err != nil {
				logger.Error("deal execution failed", utils.Err(err), utils.String("relationship", rel.Key()))
			}
			if executed || err != nil {
				metrics.RecordDealConsidered(executed)
			}
			if executed {
				atomic.AddInt64(executionCount, 1)
			}
		}
	}
}

// applyRuntimeSettings reads operator overrides made through the
// observability API and pushes them into the executor before the next
// sweep, so a settings change takes effect without a restart.
func applyRuntimeSettings(cfg *config.Config, exec *executor.Executor, settingsService *service.SettingsService, ctx context.Context) {
	if settingsService == nil {
		return
	}
	settings, err := settingsService.Get(ctx)
	if err != nil || settings == nil {
		return
	}

	tradingEnabled := cfg.TradingEnabled
	profitThreshold := cfg.TradingProfitThreshold
	ageThreshold := int64(cfg.TradingAgeThresholdMS)

	if settings.TradingEnabled != nil {
		tradingEnabled = *settings.TradingEnabled
	}
	if settings.TradingProfitThreshold != nil {
		profitThreshold = *settings.TradingProfitThreshold
	}
	if settings.TradingAgeThresholdMS != nil {
		ageThreshold = *settings.TradingAgeThresholdMS
	}
	if settings.TradingExecutionCap != nil {
		cfg.TradingExecutionCap = *settings.TradingExecutionCap
	}

	exec.UpdateConfig(executor.Config{
		ProfitThreshold: decimal.NewFromFloat(profitThreshold / 100),
		AgeThresholdMS:  ageThreshold,
		PollInterval:    500 * time.Millisecond,
	}, tradingEnabled)
}

// compositeNotifier satisfies executor.Notifier by both delivering the
// message to Telegram and persisting/broadcasting it as a models.Notification,
// matching the doc comment on models.Notification: "destined for the chat
// bot and the audit trail".
type compositeNotifier struct {
	telegram      *notify.TelegramNotifier
	notifications *service.NotificationService
}

func (n *compositeNotifier) Notify(ctx context.Context, message string) error {
	var telegramErr error
	if n.telegram != nil {
		telegramErr = n.telegram.Notify(ctx, message)
	}
	if n.notifications != nil {
		if _, err := n.notifications.Record(ctx, models.NotificationTypeDeal, models.SeverityInfo, message, nil, nil); err != nil {
			return err
		}
	}
	return telegramErr
}

// openDatabase connects to Postgres when database_url is configured. An
// empty URL disables the audit trail and every DB-backed observability
// service (SPEC_FULL's database Non-goal framing: "omitted disables
// persistence"); openDatabase then returns a nil *sql.DB and a no-op
// closer.
func openDatabase(cfg *config.Config, logger *utils.Logger) (*sql.DB, func(), error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Warn("database_url not configured, audit trail and DB-backed observability endpoints disabled")
		return nil, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	logger.Info("connected to database")
	return db, func() { db.Close() }, nil
}

// wireServices builds every repository-backed service when db is non-nil,
// plus a Recorder for the executor's audit trail (a no-op when db is nil).
// The notification repository is returned unwrapped since its service
// needs the WebSocket hub as a broadcaster, which isn't constructed yet.
func wireServices(db *sql.DB) (*service.BlacklistService, *service.SettingsService, *repository.NotificationRepository, *service.StatsService, executor.Recorder) {
	if db == nil {
		return nil, nil, nil, nil, noopRecorder{}
	}

	blacklistService := service.NewBlacklistService(repository.NewBlacklistRepository(db))
	settingsService := service.NewSettingsService(repository.NewSettingsRepository(db))
	notificationRepo := repository.NewNotificationRepository(db)
	statsService := service.NewStatsService(repository.NewStatsRepository(db))
	auditRecorder := repository.NewAuditRepository(repository.NewDealRepository(db), repository.NewOrderRepository(db))

	return blacklistService, settingsService, notificationRepo, statsService, auditRecorder
}

// noopRecorder discards the audit trail when no database is configured;
// the executor always needs a non-nil Recorder to call.
type noopRecorder struct{}

func (noopRecorder) RecordDeal(ctx context.Context, deal models.DealRecord) (int, error) {
	return 0, nil
}
func (noopRecorder) RecordOrder(ctx context.Context, order models.OrderRecord) (int, error) {
	return 0, nil
}
func (noopRecorder) AttachDealOrders(ctx context.Context, dealID int, orderIDs []int) error {
	return nil
}

func buildHTTPServer(cfg *config.Config, logger *utils.Logger, deps *httpapi.Dependencies) *http.Server {
	router := httpapi.SetupRoutes(deps)
	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
