package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"biryani-club/internal/cache"
	"biryani-club/internal/catalog"
	"biryani-club/internal/config"
	"biryani-club/internal/database"
	"biryani-club/internal/httpx"
	"biryani-club/internal/logger"
	"biryani-club/internal/memstore"
	"biryani-club/internal/messaging"
	"biryani-club/internal/services/cart"
	"biryani-club/internal/services/notification"
	"biryani-club/internal/services/order"
	"biryani-club/internal/services/reward"
	"biryani-club/internal/services/support"
	"biryani-club/internal/services/user"
)

// repository is everything the services persist outside the cart.
type repository interface {
	order.Store
	order.UserStore
	reward.CouponStore
	support.Store
	user.Store
	notification.Store
}

type cartStore interface {
	cart.Store
	order.CartStore
}

func main() {
	var (
		mode       = flag.String("mode", "", "Service mode (order-service, notification-subscriber)")
		port       = flag.Int("port", 3000, "HTTP port")
		configPath = flag.String("config", "config.yaml", "Path to the configuration file")
		inMemory   = flag.Bool("in-memory", false, "Run the order service on in-process storage without external services")
		prefetch   = flag.Int("prefetch", 10, "RabbitMQ prefetch count")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !*inMemory || !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	log.Info("service_starting", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode":      *mode,
		"port":      *port,
		"in_memory": *inMemory,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "order-service":
		err = runOrderService(ctx, cfg, log, *port, *inMemory)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, log, *prefetch)
	default:
		err = fmt.Errorf("unknown mode: %s", *mode)
	}
	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

func runOrderService(ctx context.Context, cfg *config.Config, log *logger.Logger, port int, inMemory bool) (err error) {
	var (
		repo     repository
		carts    cartStore
		notifier order.Notifier
		closers  []func() error
	)
	health := map[string]httpx.HealthCheck{}
	defer func() {
		var result *multierror.Error
		for i := len(closers) - 1; i >= 0; i-- {
			if cerr := closers[i](); cerr != nil {
				result = multierror.Append(result, cerr)
			}
		}
		if cerr := result.ErrorOrNil(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}()

	if inMemory {
		store := memstore.New()
		repo, carts = store, store
		notifier = notification.NewSink(store, os.Stdout, log)
	} else {
		db, err := database.New(ctx, cfg.DatabaseURL(), log)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		closers = append(closers, func() error { db.Close(); return nil })

		if err := db.RunMigrations(cfg.DatabaseURL()); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		redisCarts := cache.NewCartStore(cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB, "order-service", cfg.Ordering.CartTTL)
		closers = append(closers, redisCarts.Close)

		conn, err := messaging.New(cfg.RabbitMQURL(), log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		closers = append(closers, conn.Close)

		repo, carts = db, redisCarts
		notifier = messaging.NewPublisher(conn, log)

		health["postgres"] = db.Ping
		health["redis"] = redisCarts.Ping
		health["rabbitmq"] = func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}

	menu := catalog.Default()
	engine, err := reward.NewEngine(reward.Config{
		Rewards:   reward.DefaultRewards(),
		Random:    reward.NewRandomSource(cfg.Ordering.SpinSeed),
		CouponTTL: cfg.Ordering.CouponTTL,
	}, repo, repo, log)
	if err != nil {
		return fmt.Errorf("failed to build reward engine: %w", err)
	}

	handler := &httpx.Handler{
		Catalog: menu,
		Carts:   cart.NewService(carts, menu, log),
		Orders: order.NewService(order.Config{
			ConfirmETA:      cfg.Ordering.ConfirmETA,
			DispatchETA:     cfg.Ordering.DispatchETA,
			PointsPerRupees: cfg.Ordering.PointsPerRupees,
		}, repo, repo, carts, engine, notifier, log),
		Rewards: engine,
		Support: support.NewService(repo, engine, notifier, log),
		Users:   user.NewService(repo, log),
		Health:  health,
		Logger:  log,
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           httpx.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("service_started", fmt.Sprintf("Order service listening on port %d", port), "", map[string]interface{}{
			"port": port,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("graceful_shutdown", "Shutting down HTTP server", "", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) (err error) {
	db, err := database.New(ctx, cfg.DatabaseURL(), log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	conn, err := messaging.New(cfg.RabbitMQURL(), log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", prefetch)
	// Close cancels the consumer and then closes conn.
	defer func() {
		if cerr := consumer.Close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}()

	sink := notification.NewSink(db, os.Stdout, log)
	return notification.NewSubscriber(consumer, sink, log).Run(ctx)
}
