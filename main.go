package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cinema-ticketing/cmd"
	"cinema-ticketing/internal/data/repository"
	"cinema-ticketing/internal/notify"
	"cinema-ticketing/internal/usecase"
	"cinema-ticketing/internal/wire"
	"cinema-ticketing/internal/worker"
	"cinema-ticketing/migrations"
	"cinema-ticketing/pkg/cache"
	"cinema-ticketing/pkg/clock"
	"cinema-ticketing/pkg/database"
	"cinema-ticketing/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("timezone", config.App.Timezone),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if err := migrations.Apply(ctx, db); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Notifications go to RabbitMQ when configured, otherwise to the log
	var publisher notify.Publisher = notify.NewLogPublisher(logger)
	if config.AMQP.URL != "" {
		amqpPublisher := notify.NewAMQPPublisher(config.AMQP.URL, config.AMQP.Queue, logger)
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		logger.Info("Publishing notifications to AMQP", zap.String("queue", config.AMQP.Queue))
	}
	dispatcher := notify.NewDispatcher(publisher, notify.DefaultDispatcherConfig(), logger)

	service, err := usecase.NewService(repos, config, dispatcher, clock.NewSystem(), logger)
	if err != nil {
		logger.Fatal("Failed to build services", zap.Error(err))
	}

	var lease worker.Lease = worker.AlwaysLease{}
	if client := cache.NewRedisClient(config.Redis); client != nil {
		defer client.Close()
		lease = cache.NewRedisLease(client)
		logger.Info("Sweeps coordinated through redis", zap.String("addr", config.Redis.Addr))
	} else if config.Redis.Addr != "" {
		logger.Warn("Redis unreachable, every instance runs every sweep", zap.String("addr", config.Redis.Addr))
	}
	sweeper := worker.NewSweeper(worker.DefaultSweeps(service, config.Sweep), lease, clock.NewSystem(), logger)

	// Wire all dependencies
	app, err := wire.Wiring(repos, service, sweeper, db, config, logger)
	if err != nil {
		logger.Fatal("Failed to wire application", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Run(gctx) })
	g.Go(func() error { return sweeper.Run(gctx) })
	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("port", config.App.Port))
		return cmd.APIServer(gctx, app.Router, config.App.Port, logger)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		return
	}
	logger.Info("Application stopped")
}
