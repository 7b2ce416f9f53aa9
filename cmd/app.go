package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"dlt-predictor/internal/api"
	"dlt-predictor/internal/cache"
	"dlt-predictor/internal/config"
	"dlt-predictor/internal/database"
	"dlt-predictor/internal/logger"
	"dlt-predictor/internal/metrics"
	"dlt-predictor/internal/predictor"
	"dlt-predictor/internal/telegram"
	"dlt-predictor/internal/tickets"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// initialSyncLimit 启动时从接口补齐的期数
const initialSyncLimit = 50

// appStore App 用到的数据库操作
type appStore interface {
	cache.Store
	predictor.VerificationStore
	SaveDrawRecord(record *database.DrawRecord) error
	GetDrawByIssue(issue string) (*database.DrawRecord, error)
	SavePredictionBatch(batch []database.PredictionRecord) error
	CleanupExpiredPredictions(latestIssue string) (int, error)
	Close() error
}

// drawSource 开奖数据来源
type drawSource interface {
	FetchLatestDraw(ctx context.Context) (*database.DrawRecord, error)
	GetHistoricalData(ctx context.Context, limit int) ([]database.DrawRecord, error)
	HealthCheck(ctx context.Context) error
}

// broadcaster 推送与机器人主循环
type broadcaster interface {
	Run(ctx context.Context)
	BroadcastPredictions(latest *database.DrawRecord, target string, mode predictor.Mode,
		results []predictor.PredictionResult, report *predictor.Report)
	BroadcastVerification(summary *predictor.VerificationSummary)
}

// App 应用程序主结构
type App struct {
	config   *config.Config
	store    appStore
	cache    *cache.Manager
	source   drawSource
	engine   *predictor.Engine
	verifier *predictor.Verifier
	metrics  *metrics.Recorder
	registry *prometheus.Registry
	bot      broadcaster

	wg sync.WaitGroup

	// 错误状态跟踪（避免重复日志）
	lastAPIError string
	lastDBError  string
}

// NewApp 创建应用程序实例
func NewApp(cfg *config.Config) (*App, error) {
	fmt.Println("🚀 启动大乐透预测服务...")

	mysql, err := database.NewMySQLDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	fmt.Println("✅ 数据库连接成功")

	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)

	client := api.NewClient(&cfg.API)
	client.SetRecorder(recorder)

	corpus, err := tickets.LoadCorpus(cfg.Prediction.Tickets.Single, cfg.Prediction.Tickets.Compound,
		cfg.Prediction.Tickets.NonWinning)
	if err != nil {
		logger.Warnf("Failed to load ticket corpus, continuing without it: %v", err)
	}

	app := newApp(cfg, mysql, client, registry, recorder, corpus)

	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(&cfg.Telegram, app.cache, app.engine, cfg.Prediction, cfg.App.HistoryLimit)
		if err != nil {
			mysql.Close()
			return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
		}
		bot.SetRecorder(recorder)
		app.bot = bot
		fmt.Println("✅ Telegram机器人连接成功")
	} else {
		logger.Warnf("Telegram token is empty, bot disabled")
	}

	fmt.Println("🎯 应用程序初始化完成")
	return app, nil
}

func newApp(cfg *config.Config, store appStore, source drawSource, registry *prometheus.Registry,
	recorder *metrics.Recorder, corpus *tickets.Corpus) *App {
	manager := cache.NewManager(store, cfg.Analysis)
	engine := predictor.NewEngine(predictor.NewTimeSource(),
		predictor.WithContextProvider(manager),
		predictor.WithObserver(recorder),
		predictor.WithCorpus(corpus),
		predictor.WithStepDelay(cfg.Prediction.StepDelay),
		predictor.WithLimits(predictor.Limits{
			MaxFrontAttempts: cfg.Prediction.MaxFrontAttempts,
			MaxBackAttempts:  cfg.Prediction.MaxBackAttempts,
		}),
	)

	return &App{
		config:   cfg,
		store:    store,
		cache:    manager,
		source:   source,
		engine:   engine,
		verifier: predictor.NewVerifier(store),
		metrics:  recorder,
		registry: registry,
	}
}

// Run 启动全部服务，ctx 结束后安全退出
func (a *App) Run(ctx context.Context) error {
	fmt.Println("🔄 启动所有服务...")

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.cache.Memory().Run(ctx, time.Minute)
	}()

	server := a.startMetricsServer()

	if a.bot != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.bot.Run(ctx)
		}()
	}

	if err := a.initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize historical data: %v", err)
	}

	fmt.Println("✅ 所有服务启动完成")
	fmt.Printf("⏰ 轮询间隔: %v\n", a.config.App.PollingInterval)
	fmt.Println("💡 按 Ctrl+C 停止程序")

	a.monitorLoop(ctx)

	fmt.Println("🛑 正在停止应用程序...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Failed to stop metrics server: %v", err)
	}

	a.wg.Wait()
	if err := a.store.Close(); err != nil {
		logger.Errorf("Failed to close database: %v", err)
	}
	fmt.Println("✅ 应用程序已安全停止")
	return nil
}

func (a *App) startMetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", a.handleHealth)

	server := &http.Server{
		Addr:              a.config.App.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Infof("Metrics server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Metrics server failed: %v", err)
		}
	}()
	return server
}

// monitorLoop 按轮询间隔同步开奖数据
func (a *App) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(a.config.App.PollingInterval)
	defer ticker.Stop()

	consecutiveErrors := 0
	for {
		select {
		case <-ticker.C:
			if err := a.syncOnce(ctx); err != nil {
				consecutiveErrors++
				// 只在第一次错误和每30次错误时显示（减少刷屏）
				if consecutiveErrors == 1 {
					fmt.Printf("⚠️  数据同步失败: %v\n", err)
				} else if consecutiveErrors%30 == 0 {
					fmt.Printf("❌ 连续失败 %d 次，仍在重试...\n", consecutiveErrors)
				}
				continue
			}
			if consecutiveErrors > 0 {
				fmt.Printf("✅ 数据连接已恢复（失败了 %d 次）\n", consecutiveErrors)
				consecutiveErrors = 0
			}
		case <-ctx.Done():
			return
		}
	}
}

// initialize 补齐最近的开奖数据，验证遗留预测并确保下一期已有预测
func (a *App) initialize(ctx context.Context) error {
	draws, err := a.source.GetHistoricalData(ctx, initialSyncLimit)
	if err != nil {
		return fmt.Errorf("failed to get historical data: %w", err)
	}
	if len(draws) == 0 {
		return a.ensureLatestBatch(ctx)
	}

	saved := 0
	for i := range draws {
		existing, err := a.store.GetDrawByIssue(draws[i].Issue)
		if err == nil && existing != nil {
			continue
		}
		if err := a.store.SaveDrawRecord(&draws[i]); err != nil {
			logger.Warnf("Failed to save historical draw %s: %v", draws[i].Issue, err)
			continue
		}
		saved++
	}

	latest := &draws[len(draws)-1]
	if saved > 0 {
		a.cache.OnNewDraw(latest)
		logger.Infof("Initialized %d historical draws", saved)
	}

	for i := range draws {
		a.verify(&draws[i])
	}
	a.cleanup(latest.Issue)

	return a.ensureLatestBatch(ctx)
}

// syncOnce 拉取最新一期，新开奖时入库、验证、生成下一期预测并推送
func (a *App) syncOnce(ctx context.Context) error {
	latest, err := a.source.FetchLatestDraw(ctx)
	if err != nil {
		if a.lastAPIError != err.Error() {
			logger.Errorf("API fetch failed: %v", err)
			a.lastAPIError = err.Error()
		}
		return fmt.Errorf("failed to fetch latest draw: %w", err)
	}
	a.lastAPIError = ""

	existing, err := a.store.GetDrawByIssue(latest.Issue)
	if err != nil {
		if a.lastDBError != err.Error() {
			logger.Errorf("Database check failed: %v", err)
			a.lastDBError = err.Error()
		}
		a.metrics.RecordError("database")
		return fmt.Errorf("failed to check issue %s: %w", latest.Issue, err)
	}
	a.lastDBError = ""
	if existing != nil {
		return nil
	}

	fmt.Printf("🎯 发现新开奖: %s - %s + %s\n", latest.Issue,
		database.FormatNumbers(latest.Front), database.FormatNumbers(latest.Back))

	if err := a.store.SaveDrawRecord(latest); err != nil {
		a.metrics.RecordError("database")
		return fmt.Errorf("failed to save draw: %w", err)
	}
	a.metrics.RecordDrawSynced(latest.Issue)
	a.cache.OnNewDraw(latest)

	a.verify(latest)
	a.cleanup(latest.Issue)

	if err := a.ensureLatestBatch(ctx); err != nil {
		logger.Errorf("Failed to generate new predictions: %v", err)
		return err
	}
	return nil
}

// verify 验证目标期号为 draw 的预测并推送结果
func (a *App) verify(draw *database.DrawRecord) {
	summary, err := a.verifier.VerifyDraw(draw)
	if err != nil {
		a.metrics.RecordError("verification")
		logger.Warnf("Failed to verify predictions for %s: %v", draw.Issue, err)
		return
	}
	if len(summary.Results) == 0 {
		return
	}

	for _, r := range summary.Results {
		a.metrics.RecordVerification(r.Prize.Level, r.Prize.Amount)
	}
	a.cache.OnPredictionsVerified(draw.Issue)
	if a.bot != nil {
		a.bot.BroadcastVerification(summary)
	}
}

func (a *App) cleanup(latestIssue string) {
	n, err := a.store.CleanupExpiredPredictions(latestIssue)
	if err != nil {
		logger.Warnf("Failed to cleanup expired predictions: %v", err)
		return
	}
	if n > 0 {
		logger.Infof("Cleaned up %d expired predictions", n)
	}
}

// ensureLatestBatch 下一期还没有预测时生成一批
func (a *App) ensureLatestBatch(ctx context.Context) error {
	history, err := a.cache.History(a.config.App.HistoryLimit)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return nil
	}

	target := predictor.NextTargetIssue(history)
	latest, err := a.cache.LatestPredictions(1)
	if err == nil && len(latest) > 0 && latest[0].TargetIssue == target {
		logger.Debugf("Predictions for %s are up to date", target)
		return nil
	}
	return a.generateBatch(ctx, history)
}

// generateBatch 生成、保存并推送下一期预测
func (a *App) generateBatch(ctx context.Context, history []database.DrawRecord) error {
	rc := predictor.RunConfigFrom(a.config.Prediction)
	rc.History = history
	if err := rc.Normalize(); err != nil {
		return err
	}

	results, report, err := a.engine.Run(ctx, rc)
	if err != nil {
		return fmt.Errorf("prediction generation failed: %w", err)
	}

	now := time.Now()
	export := predictor.NewExport(rc, results, report, now)
	if err := a.store.SavePredictionBatch(export.Records(now)); err != nil {
		a.metrics.RecordError("database")
		return fmt.Errorf("failed to save predictions: %w", err)
	}
	a.cache.OnPredictionsSaved(rc.TargetIssue)

	if a.bot != nil {
		a.bot.BroadcastPredictions(&history[len(history)-1], rc.TargetIssue, rc.Mode, results, report)
	}
	fmt.Printf("🔮 生成预测: %s (%d 注 %s)\n", rc.TargetIssue, len(results), rc.Mode)
	return nil
}

// HealthCheck 健康检查
func (a *App) HealthCheck(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"timestamp": time.Now(),
		"status":    "ok",
	}
	services := map[string]interface{}{}

	if err := a.source.HealthCheck(ctx); err != nil {
		services["api"] = map[string]interface{}{"status": "error", "error": err.Error()}
		health["status"] = "degraded"
	} else {
		services["api"] = map[string]interface{}{"status": "ok"}
	}

	services["cache"] = map[string]interface{}{
		"status": "ok",
		"stats":  a.cache.Memory().Stats(),
	}
	services["telegram"] = map[string]interface{}{"enabled": a.bot != nil}

	health["services"] = services
	return health
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := a.HealthCheck(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if health["status"] != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		logger.Warnf("Failed to write health response: %v", err)
	}
}
