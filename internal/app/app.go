package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/itsManeka/gibipromo-sub001/internal/cfg"
	"github.com/itsManeka/gibipromo-sub001/internal/domain"
	"github.com/itsManeka/gibipromo-sub001/internal/infrastructure/amazon"
	"github.com/itsManeka/gibipromo-sub001/internal/infrastructure/dispatcher"
	"github.com/itsManeka/gibipromo-sub001/internal/infrastructure/kafka"
	minioInfra "github.com/itsManeka/gibipromo-sub001/internal/infrastructure/minio"
	"github.com/itsManeka/gibipromo-sub001/internal/infrastructure/scheduler"
	s3Repo "github.com/itsManeka/gibipromo-sub001/internal/repository/minio"
	"github.com/itsManeka/gibipromo-sub001/internal/repository/pgdb"
	pgdbConv "github.com/itsManeka/gibipromo-sub001/internal/repository/pgdb/converter"
	"github.com/itsManeka/gibipromo-sub001/internal/repository/redis"
	redisConv "github.com/itsManeka/gibipromo-sub001/internal/repository/redis/converter"
	"github.com/itsManeka/gibipromo-sub001/internal/usecase"
	"github.com/itsManeka/gibipromo-sub001/pkg/clients"
	"github.com/itsManeka/gibipromo-sub001/pkg/closer"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/itsManeka/gibipromo-sub001/pkg/logger"
	"github.com/itsManeka/gibipromo-sub001/pkg/postgres"
	"github.com/itsManeka/gibipromo-sub001/pkg/tr"
	"github.com/jimlawless/whereami"
)

// App собирает пайплайн мониторинга цен: хранилища, клиентов внешних систем,
// диспетчер очереди действий и планировщик проверок.
type App struct {
	cfg        *config.Config
	logger     logger.Logger
	db         *postgres.PgDatabase
	dispatcher *dispatcher.Dispatcher
	scheduler  *scheduler.Scheduler
	closer     *closer.Closer
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	cl := closer.NewCloser(2 * time.Second)

	db, err := initPGDB(log, cfg)
	if err != nil {
		log.Errorf(err, "failed to initialize database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		db.Close()
		return nil
	})

	actionConv := pgdbConv.NewActionConverterImpl()
	productConv := pgdbConv.NewProductConverterImpl()
	userConv := pgdbConv.NewProductUserConverterImpl()
	statsConv := pgdbConv.NewProductStatsConverterImpl()
	infoConv := redisConv.NewProductInfoConverterImpl()

	actionRepo := pgdb.NewActionRepo(db.Pool, actionConv)
	productRepo := pgdb.NewProductRepo(db.Pool, productConv)
	subscriptionRepo := pgdb.NewSubscriptionRepo(db.Pool, userConv)
	statsRepo := pgdb.NewStatsRepo(db.Pool, statsConv)
	cursorRepo := pgdb.NewCursorRepo(db.Pool)

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		log.Errorf(err, "failed to connect to redis")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})
	cacheRepo := redis.NewCacheRepo(redisClient, infoConv, cfg.Redis, log)

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		log.Errorf(err, "failed to initialize minio client")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		minioCancel()
		log.Errorf(err, "failed to initialize MinIO bucket")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	minioCancel()

	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)
	imageMirror := minioInfra.NewMinioInfrastructure(imageRepo, cfg.Minio, log)

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		log.Errorf(err, "failed to initialize kafka producer")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		log.Errorf(err, "failed to ensure kafka topic")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	catalog := amazon.NewClient(cfg.Catalog, log)

	monitorUC := usecase.NewMonitorUC(
		actionRepo,
		productRepo,
		subscriptionRepo,
		statsRepo,
		cursorRepo,
		cacheRepo,
		catalog,
		producer,
		imageMirror,
		tr.NewManager(db.Pool),
		log,
		cfg.Monitor,
	)

	disp := dispatcher.NewDispatcher(actionRepo, log, cfg.Monitor.ActionBatchSize)
	if err := disp.Register(domain.ActionAddProduct, monitorUC.AddProductHandler(), cfg.Monitor.AddPollInterval); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := disp.Register(domain.ActionCheckProduct, monitorUC.CheckProductHandler(), cfg.Monitor.CheckPollInterval); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := disp.Register(domain.ActionNotifyPrice, monitorUC.NotifyPriceHandler(), cfg.Monitor.NotifyPollInterval); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	sched := scheduler.NewScheduler(monitorUC, log, cfg.Monitor.ScanInterval)

	return &App{
		cfg:        cfg,
		logger:     log,
		db:         db,
		dispatcher: disp,
		scheduler:  sched,
		closer:     cl,
	}, nil
}

// Run запускает пуллеры и блокируется до сигнала завершения.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.dispatcher.Start(ctx)
	a.scheduler.Start(ctx)
	a.logger.Infof("Price monitoring pipeline started")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown
	a.logger.Infof("Received shutdown signal, stopping gracefully...")

	cancel()
	a.scheduler.Stop()
	a.dispatcher.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("Shutdown finished with errors: %v", err)
		return err
	}

	a.logger.Infof("Application shutdown complete")
	return nil
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
