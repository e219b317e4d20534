package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chathub-dev/chathub/internal/server"
	"github.com/chathub-dev/chathub/migrations"
	"github.com/chathub-dev/chathub/modules"
	"github.com/chathub-dev/chathub/modules/chat"
	"github.com/chathub-dev/chathub/modules/chat/domain/aggregates/group"
	"github.com/chathub-dev/chathub/modules/chat/infrastructure/persistence"
	"github.com/chathub-dev/chathub/pkg/application"
	"github.com/chathub-dev/chathub/pkg/cache"
	"github.com/chathub-dev/chathub/pkg/composables"
	"github.com/chathub-dev/chathub/pkg/configuration"
	"github.com/chathub-dev/chathub/pkg/eventbus"
	"github.com/chathub-dev/chathub/pkg/logging"
	"github.com/chathub-dev/chathub/pkg/metrics"
	"github.com/chathub-dev/chathub/pkg/pglistener"
	"github.com/chathub-dev/chathub/pkg/ws"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	var tracingCleanup func()
	if conf.OpenTelemetry.Enabled {
		tracingCleanup = logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.Endpoint,
		)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to " + conf.OpenTelemetry.Endpoint)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	dsn := conf.Database.ConnectionString()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	if err := migrations.Run(ctx, dsn); err != nil {
		logger.WithError(err).Fatal("failed to apply migrations")
	}

	redisClient, err := cache.Connect(ctx, conf.RedisURL, logger.WithField("component", "redis"))
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to redis")
	}
	defer func() { _ = redisClient.Close() }()

	bus := eventbus.NewEventPublisher(logger)
	hub := ws.NewHub(&ws.HubOptions{
		Logger:      logger,
		CheckOrigin: func(r *http.Request) bool { return true },
		OnConnect:   joinGroupChannels(persistence.NewGroupRepository()),
	})

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: bus,
		Cache:    redisClient,
		Huber:    hub,
		Logger:   logger,
	})

	listener, err := pglistener.New(pglistener.Options{
		ConnString:     dsn,
		Channel:        conf.Listener.Channel,
		Table:          conf.Listener.Table,
		Bus:            bus,
		ReconnectDelay: conf.Listener.ReconnectDelay,
		RetryDelay:     conf.Listener.RetryDelay,
		Logger:         logger.WithField("component", "pglistener"),
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create change listener")
	}

	if err := modules.Load(app, chat.NewModule(&chat.ModuleOptions{Listener: listener})); err != nil {
		logger.WithError(err).Fatal("failed to load modules")
	}
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	// The first connect is fatal on purpose: a server that cannot install
	// its trigger will never deliver realtime events, so fail loudly.
	if err := listener.Connect(ctx); err != nil {
		logger.WithError(err).Fatal("failed to start change listener")
	}

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create server")
	}

	go func() {
		logger.Infof("listening on %s", conf.Origin)
		if err := serverInstance.Start(conf.SocketAddress); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("failed to start server")
		}
	}()

	stop, stopCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopCancel()
	<-stop.Done()

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout)
	defer shutdownCancel()

	if err := serverInstance.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http server shutdown failed")
	}
	if err := listener.Disconnect(shutdownCtx); err != nil {
		logger.WithError(err).Error("listener shutdown failed")
	}
}

// joinGroupChannels subscribes a fresh websocket connection to its group
// channels. With a group_uuid query parameter the client gets that single
// group after a membership check; without one it gets every group it
// belongs to.
func joinGroupChannels(groups group.Repository) func(*http.Request, *ws.Hub, *ws.Connection) error {
	return func(r *http.Request, hub *ws.Hub, conn *ws.Connection) error {
		ctx := r.Context()
		userID, err := composables.UseUserID(ctx)
		if err != nil {
			return err
		}

		if raw := r.URL.Query().Get("group_uuid"); raw != "" {
			groupID, err := uuid.Parse(raw)
			if err != nil {
				return err
			}
			member, err := groups.IsMember(ctx, groupID, userID)
			if err != nil {
				return err
			}
			if !member {
				return group.ErrNotMember
			}
			hub.JoinChannel(group.EventChannel(groupID), conn)
			return nil
		}

		memberships, err := groups.GroupsForUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, p := range memberships {
			hub.JoinChannel(group.EventChannel(p.GroupUUID), conn)
		}
		return nil
	}
}
