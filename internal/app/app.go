package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz_extended_backend/internal/config"
	"quiz_extended_backend/internal/controller"
	"quiz_extended_backend/internal/repository"
	"quiz_extended_backend/internal/service"
	"quiz_extended_backend/pkg/database"
	"quiz_extended_backend/pkg/logger"
	"quiz_extended_backend/pkg/monitoring"
	"quiz_extended_backend/pkg/security"
	"quiz_extended_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	cron            *cron.Cron
	configCallbacks []func(*config.Config)
}

type repositories struct {
	content    *repository.ContentRepository
	attempt    *repository.AttemptRepository
	snapshot   *repository.SnapshotRepository
	completion *repository.CompletionRepository
	favorite   *repository.FavoriteRepository
	stats      *repository.StatsRepository
}

type services struct {
	attempt    *service.AttemptService
	completion *service.CompletionService
	ranking    *service.RankingService
	navigator  *service.NavigatorService
	stats      *service.StatsService
	favorite   *service.FavoriteService
	autosaver  *service.Autosaver
}

type controllers struct {
	attempt    *controller.AttemptController
	ranking    *controller.RankingController
	progress   *controller.ProgressController
	navigation *controller.NavigationController
	favorite   *controller.FavoriteController
	health     *controller.HealthController
}

// RegisterConfigCallback 注册配置热更新回调
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置文件变更时由 configwatcher 调用
func (a *App) ReloadConfig(cfg *config.Config) {
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	snapshotTTL := time.Duration(cfg.Autosave.SnapshotTTLHrs) * time.Hour
	return &repositories{
		content:    repository.NewContentRepository(db),
		attempt:    repository.NewAttemptRepository(db),
		snapshot:   repository.NewSnapshotRepository(rdb, snapshotTTL),
		completion: repository.NewCompletionRepository(db),
		favorite:   repository.NewFavoriteRepository(db),
		stats:      repository.NewStatsRepository(db, rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	notifier := service.NewRedisProgressNotifier(rdb)

	s.autosaver = service.NewAutosaver(
		repos.snapshot,
		time.Duration(cfg.Autosave.DebounceMs)*time.Millisecond,
		cfg.Autosave.MaxRetries,
		time.Duration(cfg.Autosave.RetryBackoffMs)*time.Millisecond,
	)

	s.completion = service.NewCompletionService(repos.completion, repos.content, notifier)
	s.attempt = service.NewAttemptService(repos.content, repos.attempt, s.completion, repos.snapshot, s.autosaver, notifier, cfg.Scoring)
	s.ranking = service.NewRankingService(repos.attempt, repos.stats, cfg.Ranking)
	s.navigator = service.NewNavigatorService(repos.content, repos.completion, repos.snapshot)
	s.stats = service.NewStatsService(repos.content, repos.attempt, repos.stats)
	s.favorite = service.NewFavoriteService(repos.favorite, repos.content)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		attempt:    controller.NewAttemptController(s.attempt),
		ranking:    controller.NewRankingController(s.ranking, s.stats),
		progress:   controller.NewProgressController(s.completion),
		navigation: controller.NewNavigationController(s.navigator),
		favorite:   controller.NewFavoriteController(s.favorite),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute, cfg.RateLimit.Burst))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 启动统计汇总定时任务
func (a *App) startBackgroundTasks(s *services, cfg *config.Config) {
	a.cron = cron.New()
	_, err := a.cron.AddFunc(cfg.Stats.CronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.stats.RecomputeAll(ctx); err != nil {
			logger.Log.Error("stats recompute error", zap.Error(err))
		}
	})
	if err != nil {
		logger.Log.Fatal("invalid stats cron spec", zap.String("spec", cfg.Stats.CronSpec), zap.Error(err))
	}
	a.cron.Start()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	// 计分参数热更新，仅影响之后的提交
	app.RegisterConfigCallback(func(next *config.Config) {
		if err := next.Scoring.Validate(); err != nil {
			logger.Log.Warn("ignoring invalid scoring config", zap.Error(err))
			return
		}
		services.attempt.SetScoringConfig(next.Scoring)
		logger.Log.Info("scoring config reloaded")
	})

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("quiz-extended", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, cfg)

	app.startBackgroundTasks(services, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 停止定时任务并落盘进行中的自动保存
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.services != nil && a.services.attempt != nil {
		a.services.attempt.Shutdown()
	}

	// 关闭服务
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
