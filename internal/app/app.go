package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/go-telegram/bot"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_timetable/internal/config"
	"github.com/Freeeeeet/school_timetable/internal/controller"
	"github.com/Freeeeeet/school_timetable/internal/controller/api"
	"github.com/Freeeeeet/school_timetable/internal/lock"
	"github.com/Freeeeeet/school_timetable/internal/repository"
	"github.com/Freeeeeet/school_timetable/internal/repository/memory"
	"github.com/Freeeeeet/school_timetable/internal/service"
)

const shutdownTimeout = 10 * time.Second

// stores - хранилище, выбранное по STORAGE_DRIVER
type stores struct {
	structures service.StructureStore
	classrooms service.ClassroomStore
	directory  service.Directory
	close      func()
}

// App держит собранные зависимости сервиса
type App struct {
	cfg         *config.Config
	logger      *zap.Logger
	stores      *stores
	locker      service.Locker
	redis       *redis.Client
	registry    *service.StructureRegistry
	coordinator *service.AssignmentCoordinator
	scheduler   *Scheduler
	server      *http.Server
	bot         *controller.BotController
}

// New подключает хранилище и блокировки, собирает сервисы и транспорты
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.stores = st

	if err := a.openLocker(ctx); err != nil {
		a.Close()
		return nil, err
	}

	store := service.NewScheduleStore(st.classrooms, st.structures)
	a.registry = service.NewStructureRegistry(st.structures, st.classrooms, logger)
	a.coordinator = service.NewAssignmentCoordinator(
		store,
		service.NewConflictDetector(store),
		st.structures,
		a.locker,
		st.directory,
		cfg.MaxWriteAttempts,
		logger,
	)
	a.scheduler = NewScheduler(a.coordinator, cfg.ReconcileInterval, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	a.server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(api.NewHandler(a.registry, a.coordinator, logger), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.TelegramToken != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create telegram bot: %w", err)
		}
		a.bot = controller.NewBotController(b, a.coordinator, cfg.SchoolID(), logger)
	}

	return a, nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		db := memory.Open()
		school := cfg.SchoolID()
		if school == uuid.Nil {
			school = uuid.New()
		}
		if memory.SeedIfEmpty(db, school) {
			logger.Info("🌱 Seeded in-memory school", zap.String("school_id", school.String()))
		}
		return &stores{
			structures: memory.NewStructureRepository(db),
			classrooms: memory.NewClassroomRepository(db),
			directory:  memory.NewDirectory(db),
			close:      func() {},
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("✅ Connected to database")

	migrator, err := NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &stores{
		structures: repository.NewStructureRepository(pool),
		classrooms: repository.NewClassroomRepository(pool),
		directory:  repository.NewDirectoryRepository(pool),
		close:      pool.Close,
	}, nil
}

// openLocker выбирает Redis, если он настроен, иначе локальные блокировки процесса
func (a *App) openLocker(ctx context.Context) error {
	if a.cfg.RedisAddr == "" {
		a.logger.Info("Using in-process slot locks")
		a.locker = lock.NewLocalLocker(a.cfg.LockWait)
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: a.cfg.RedisAddr,
		DB:   a.cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping redis at %s: %w", a.cfg.RedisAddr, err)
	}
	a.logger.Info("✅ Connected to Redis, using distributed slot locks", zap.String("addr", a.cfg.RedisAddr))
	a.redis = client
	a.locker = lock.NewRedisLocker(client, a.cfg.LockTTL, a.cfg.LockWait, a.logger)
	return nil
}

// Run работает, пока не отменён ctx или не упал HTTP сервер
func (a *App) Run(ctx context.Context) error {
	// отмена останавливает бота и планировщик и при падении HTTP сервера
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()

	botDone := make(chan struct{})
	if a.bot != nil {
		if err := a.bot.RegisterHandlers(ctx); err != nil {
			return fmt.Errorf("register bot handlers: %w", err)
		}
		go func() {
			defer close(botDone)
			a.bot.Start(ctx)
		}()
	} else {
		close(botDone)
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP API listening", zap.String("addr", a.server.Addr))
		serverErrors <- a.server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
			a.logger.Error("HTTP server failed, shutting down", zap.Error(err))
		}
		cancel()
	case <-ctx.Done():
		a.logger.Info("Start shutdown...")
	}

	// даём текущим запросам время завершиться
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Could not stop server gracefully", zap.Error(err))
		_ = a.server.Close()
	}

	<-botDone
	return runErr
}

// Close закрывает соединения с хранилищем и Redis
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if a.stores != nil {
		a.stores.close()
	}
}
