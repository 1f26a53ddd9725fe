package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/rcarvalho-pb/pixgate/internal/application/amount"
	"github.com/rcarvalho-pb/pixgate/internal/application/checkout"
	"github.com/rcarvalho-pb/pixgate/internal/application/gateway"
	"github.com/rcarvalho-pb/pixgate/internal/application/reconciliation"
	"github.com/rcarvalho-pb/pixgate/internal/application/worker"
	"github.com/rcarvalho-pb/pixgate/internal/config"
	"github.com/rcarvalho-pb/pixgate/internal/domain/event"
	"github.com/rcarvalho-pb/pixgate/internal/domain/order"
	"github.com/rcarvalho-pb/pixgate/internal/domain/session"
	"github.com/rcarvalho-pb/pixgate/internal/infra/logging"
	"github.com/rcarvalho-pb/pixgate/internal/infra/metrics"
	"github.com/rcarvalho-pb/pixgate/internal/infrastructure/eventbus"
	httpapi "github.com/rcarvalho-pb/pixgate/internal/infrastructure/http"
	"github.com/rcarvalho-pb/pixgate/internal/infrastructure/messaging"
	"github.com/rcarvalho-pb/pixgate/internal/infrastructure/outbox"
	"github.com/rcarvalho-pb/pixgate/internal/infrastructure/persistence/inmemory"
	"github.com/rcarvalho-pb/pixgate/internal/infrastructure/persistence/sqlite"
	"github.com/rcarvalho-pb/pixgate/internal/infrastructure/pixprovider"
	"github.com/rcarvalho-pb/pixgate/internal/infrastructure/rates"
)

type stores struct {
	sessions session.Repository
	events   session.EventLog
	orders   order.Repository
	cart     order.Cart
	outbox   outbox.Repository
	db       *sql.DB
}

func openStores(cfg config.DBConfig) (*stores, error) {
	if cfg.Driver == "memory" {
		return &stores{
			sessions: inmemory.NewSessionRepository(),
			events:   inmemory.NewEventLog(),
			orders:   inmemory.NewOrderRepository(),
			cart:     inmemory.NewCart(),
			outbox:   outbox.NewMemoryRepository(),
		}, nil
	}

	db, err := sqlite.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, err
	}
	if err := sqlite.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &stores{
		sessions: sqlite.NewSessionRepository(db),
		events:   sqlite.NewEventLog(db),
		orders:   sqlite.NewOrderRepository(db),
		cart:     sqlite.NewCart(db),
		outbox:   outbox.NewSQLiteRepository(db),
		db:       db,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logging.ZerologLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(cfg.DB)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
	}

	var publisher outbox.Publisher
	if cfg.NATS.URL != "" {
		nats, err := messaging.Connect(ctx, cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger)
		if err != nil {
			return err
		}
		defer nats.Close()
		publisher = nats
	} else {
		bus := eventbus.NewInMemoryBus()
		bus.Subscribe(eventbus.All, func(evt event.Event) error {
			logger.Info("domain event", map[string]any{
				"event-id":   evt.ID,
				"event-type": string(evt.Type),
			})
			return nil
		})
		publisher = bus
	}

	counters := &metrics.Counters{}
	recorder := &outbox.Recorder{Repo: st.outbox}

	listener := &reconciliation.Listener{
		Sessions:        st.sessions,
		EventLog:        st.events,
		Orders:          st.orders,
		Recorder:        recorder,
		Logger:          logger,
		Metrics:         counters,
		PollMaxAttempts: cfg.Poll.MaxAttempts,
		PollInterval:    cfg.Poll.Interval,
	}

	gw := &gateway.Gateway{
		Settings: gateway.Settings{
			Credential: checkout.Credential{Token: cfg.Provider.Token},
			Amount: amount.Config{
				ConversionEnabled: cfg.Rates.ConversionEnabled,
				ManualRate:        cfg.Rates.ManualRate,
			},
			StoreCurrency:         cfg.Currency.Store,
			SettlementCurrency:    cfg.Currency.Settlement,
			SettlementFromCountry: cfg.Currency.FromCountry,
		},
		Orders: st.orders,
		Resolver: &amount.Resolver{
			Rates: rates.NewClient(cfg.Rates.URL, cfg.Rates.AppID, cfg.Provider.Timeout),
		},
		Initiator: &checkout.Initiator{
			Provider: pixprovider.NewClient(cfg.Provider.BaseURL, cfg.Provider.Timeout),
			Sessions: st.sessions,
			Orders:   st.orders,
			Cart:     st.cart,
			Recorder: recorder,
			Logger:   logger,
			Metrics:  counters,
		},
		Listener: listener,
		Logger:   logger,
		Metrics:  counters,
	}

	dispatcher := &outbox.Dispatcher{
		Repo:         st.outbox,
		EventBus:     publisher,
		Logger:       logger,
		PollInterval: cfg.Workers.OutboxPollInterval,
		BatchSize:    cfg.Workers.OutboxBatchSize,
	}

	sweeper := &worker.ExpirySweeper{
		Sessions:  st.sessions,
		Orders:    st.orders,
		Recorder:  recorder,
		Logger:    logger,
		Metrics:   counters,
		Interval:  cfg.Workers.ExpirySweepInterval,
		BatchSize: cfg.Workers.ExpiryBatchSize,
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Orders:    &httpapi.OrderHandler{Orders: st.orders},
		Payments:  &httpapi.PaymentHandler{Gateway: gw, Logger: logger},
		Metrics:   counters,
		AccessLog: logger.Zerolog(),

		AllowedOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		dispatcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("http server listening", map[string]any{
			"addr":      cfg.HTTPAddr,
			"db-driver": cfg.DB.Driver,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
