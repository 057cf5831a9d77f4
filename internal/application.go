package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/taoreta-ed/redes2-25-2/internal/client"
	"github.com/taoreta-ed/redes2-25-2/internal/config"
	"github.com/taoreta-ed/redes2-25-2/internal/entity"
	"github.com/taoreta-ed/redes2-25-2/internal/metrics"
	"github.com/taoreta-ed/redes2-25-2/internal/minesweeper"
	"github.com/taoreta-ed/redes2-25-2/internal/repository"
	"github.com/taoreta-ed/redes2-25-2/internal/repository/storage"
	"github.com/taoreta-ed/redes2-25-2/internal/session"
	"github.com/taoreta-ed/redes2-25-2/internal/transport/reactor"
	"github.com/taoreta-ed/redes2-25-2/internal/transport/socket"
	"github.com/taoreta-ed/redes2-25-2/transport/rest"
)

type gameHost interface {
	Listen(addr string) error
	Status() string
}

// RunServer - runs the game server, and the HTTP side channel when a port
// is configured, until ctx is done.
func RunServer(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	difficulty, err := entity.ParseDifficulty(conf.Server.Difficulty)
	if err != nil {
		return fmt.Errorf("invalid difficulty: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	gameMetrics := metrics.New(registry)

	var results repository.ResultRepository

	if conf.Redis.Enabled {
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err := redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		results = repository.NewResultRepository(redisStorage.Connection, conf.Redis.ResultsTTL)
	}

	var gameRecorder interface {
		Save(ctx context.Context, record *entity.GameRecord) error
	}

	if results != nil {
		queue := session.NewRecordQueue(logger, results, session.DefaultRecordQueueSize, session.DefaultRecordTimeout)
		queueDone := make(chan struct{})

		go func() {
			defer close(queueDone)
			queue.Run(ctx)
		}()

		// stop and flush the queue before the redis client is closed
		defer func() {
			cancel()
			<-queueDone
		}()

		gameRecorder = queue
	}

	controller, err := session.NewController(logger, session.Config{
		Difficulty: difficulty,
		Rand:       minesweeper.NewRand(conf.Server.Seed),
	}, gameRecorder, gameMetrics)
	if err != nil {
		return err
	}

	host, serve := newHost(logger, conf, controller, gameMetrics)
	if err = host.Listen(conf.Server.Addr()); err != nil {
		return fmt.Errorf("could not start game server: %w", err)
	}

	// run HTTP server
	httpErrCh := make(chan error, 1)
	if conf.HTTPPort != "" {
		router := rest.NewRouter(logger, rest.NewHandlers(logger, results, host), registry)

		go func() {
			if httpErr := rest.Start(ctx, logger, conf.HTTPPort, router); httpErr != nil {
				log.Error("HTTP server error", "error", httpErr)
				httpErrCh <- httpErr
			}
		}()
	}

	// run game server
	gameErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting game server", "addr", conf.Server.Addr(), "mode", conf.Server.Mode, "difficulty", difficulty)
		gameErrCh <- serve(ctx)
	}()

	select {
	case err = <-httpErrCh:
		cancel()
		<-gameErrCh

		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-gameErrCh:
		if err != nil {
			return fmt.Errorf("game server error: %w", err)
		}

		log.Info("Application context canceled, shutting down")

		return nil
	}
}

func newHost(logger *slog.Logger, conf *config.Config, controller *session.Controller, gameMetrics *metrics.Metrics) (gameHost, func(context.Context) error) {
	if conf.Server.Mode == config.ModeThreaded {
		server := socket.New(logger, controller, gameMetrics)
		status := newStatusReporter(logger, server)

		return server, func(ctx context.Context) error {
			go status.run(ctx, time.Second)
			return server.Serve(ctx)
		}
	}

	server := reactor.NewServer(logger, controller, gameMetrics)
	status := newStatusReporter(logger, server)

	return server, func(ctx context.Context) error {
		return server.Run(ctx, conf.Server.TickInterval, status.tick)
	}
}

// RunClient - connects to addr and plays interactively on in and out.
func RunClient(ctx context.Context, logger *slog.Logger, conf *config.Config, addr string, in io.Reader, out io.Writer) error {
	c, err := client.Dial(ctx, logger, addr, conf.Client.HandshakeTimeout)
	if err != nil {
		return fmt.Errorf("could not join game: %w", err)
	}

	defer c.Close()

	return client.Play(ctx, c, in, out)
}
