package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-arena-service/internal/app"
	"quiz-arena-service/internal/config"
	"quiz-arena-service/internal/infra/memory"
	pgstore "quiz-arena-service/internal/infra/postgres"
	redisstore "quiz-arena-service/internal/infra/redis"
	"quiz-arena-service/internal/infra/sqlite"
	"quiz-arena-service/internal/logging"
	transport "quiz-arena-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz arena server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd.Flags())
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

type roomStore interface {
	app.RoomObserver
	app.RoomLister
}

type progressStore interface {
	app.ProgressRecorder
	app.ProgressReader
}

// adapters holds the storage picked for each concern and how to release it.
type adapters struct {
	topics   app.TopicRepository
	lister   app.TopicLister
	rooms    roomStore
	progress progressStore
	closers  []func() error
}

func (a *adapters) close(log zerolog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close adapter")
		}
	}
}

// buildAdapters wires storage by precedence: Postgres, then a content file,
// then built-in samples for topics; Redis, Postgres, SQLite, then memory for
// progress; Redis, then memory for the room index and topic cache.
func buildAdapters(ctx context.Context, cfg config.Config, log zerolog.Logger) (*adapters, error) {
	a := &adapters{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, redisClient.Close)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			a.close(log)
			return nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			a.close(log)
			return nil, err
		}
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			a.close(log)
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
	}

	var loader memory.TopicLoader
	switch {
	case pool != nil:
		loader = pgstore.NewTopicLoader(pool)
	case cfg.Content.Path != "":
		loader = memory.NewFileTopicLoader(cfg.Content.Path)
	default:
		loader = memory.NewStaticTopicLoader(memory.SampleTopics())
	}

	contentTTL := config.TTLDuration(cfg.Content.TTL, 10*time.Minute)
	if redisClient != nil {
		repo := redisstore.NewTopicRepository(redisClient, loader, contentTTL)
		a.topics, a.lister = repo, repo
		a.rooms = redisstore.NewRoomIndex(redisClient, redisTTL)
	} else {
		repo := memory.NewTopicRepository(loader, contentTTL)
		a.topics, a.lister = repo, repo
		a.rooms = memory.NewRoomIndex()
	}

	switch {
	case redisClient != nil:
		a.progress = redisstore.NewProgressStore(redisClient)
	case pool != nil:
		db := openBun(cfg.Postgres.URL)
		a.closers = append(a.closers, db.Close)
		a.progress = pgstore.NewProgressStore(db)
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			a.close(log)
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		a.progress = store
	default:
		a.progress = memory.NewProgressStore()
	}
	return a, nil
}

func runServer(parent context.Context, cfg config.Config) error {
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildAdapters(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close(log)

	hub := transport.NewHub(log)
	engine := app.NewEngine(app.Options{
		Notifier:        hub,
		Observer:        a.rooms,
		Progress:        a.progress,
		Catalog:         app.NewCatalog(a.topics, cfg.Content.DefaultCount),
		Logger:          log.With().Str("component", "engine").Logger(),
		RaceAutoAdvance: config.TTLDuration(cfg.Race.AutoAdvance, 0),
	})
	wsHandler := transport.NewWSHandler(engine, hub, log.With().Str("component", "ws").Logger(), transport.WSOptions{
		RateLimit:    cfg.WS.RateLimit,
		Burst:        cfg.WS.Burst,
		PingInterval: config.TTLDuration(cfg.WS.PingInterval, 30*time.Second),
	})
	router := transport.NewRouter(transport.RouterOptions{
		WS:        wsHandler,
		Rooms:     engine,
		Index:     a.rooms,
		Topics:    a.lister,
		Progress:  a.progress,
		PublicURL: cfg.Server.PublicURL,
		Profile:   cfg.Server.Profile,
		Version:   Version,
		Log:       log,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Bind, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       10 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("version", Version).Msg("starting quiz arena")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
