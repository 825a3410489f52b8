package daemon

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/matheus3301/wppdesk/internal/api"
	"github.com/matheus3301/wppdesk/internal/backend"
	"github.com/matheus3301/wppdesk/internal/bus"
	"github.com/matheus3301/wppdesk/internal/chat"
	"github.com/matheus3301/wppdesk/internal/config"
	"github.com/matheus3301/wppdesk/internal/conversation"
	"github.com/matheus3301/wppdesk/internal/lock"
	"github.com/matheus3301/wppdesk/internal/logging"
	"github.com/matheus3301/wppdesk/internal/outbox"
	"github.com/matheus3301/wppdesk/internal/profile"
	"github.com/matheus3301/wppdesk/internal/status"
	"github.com/matheus3301/wppdesk/internal/store"
	intsync "github.com/matheus3301/wppdesk/internal/sync"
	"github.com/matheus3301/wppdesk/internal/transport"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	SocketPath  string // optional override for testing; empty = use default
	DataDir     string // optional override for testing; empty = profile.Dir
	ConfigPath  string // optional override; empty = profile.ConfigPath
	LogLevel    string
}

func (p Params) dir() string {
	if p.DataDir != "" {
		return p.DataDir
	}
	return profile.Dir(p.ProfileName)
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideBackend,
			provideConversationStore,
			provideInbox,
			provideTransport,
			provideCoordinator,
			provideController,
			provideSyncEngine,
			provideConsoleService,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.NewWithLevel(filepath.Join(p.dir(), "logs", "wppdeskd.log"), p.ProfileName, logging.ParseLevel(p.LogLevel))
}

func provideConfig(p Params, logger *zap.Logger) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = profile.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	logger.Info("configuration loaded",
		zap.String("path", path),
		zap.String("transport_url", cfg.Transport.URL),
		zap.String("backend_url", cfg.Backend.BaseURL),
	)
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(p.dir(), p.ProfileName)
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideStore depends on the lock so two daemons never share a cache.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.CachePath(p.ProfileName)
	if p.DataDir != "" {
		dbPath = filepath.Join(p.DataDir, "cache.db")
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	if n, err := db.FailInterrupted("interrupted by daemon restart"); err != nil {
		logger.Warn("failed to close interrupted sends", zap.Error(err))
	} else if n > 0 {
		logger.Warn("sends interrupted by previous run marked failed", zap.Int64("count", n))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideBackend(cfg *config.Config, logger *zap.Logger) *backend.Client {
	return backend.New(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Token:   cfg.Backend.Token,
		Timeout: cfg.Backend.Timeout.Duration,
	}, logger.Named("backend"))
}

func provideConversationStore(cfg *config.Config) *conversation.Store {
	var opts []conversation.Option
	if cfg.Conversation.StrictStatusOrder {
		opts = append(opts, conversation.WithStrictStatusOrder())
	}
	return conversation.NewStore(opts...)
}

func provideInbox() *chat.Inbox {
	return chat.NewInbox(0)
}

func provideTransport(cfg *config.Config, inbox *chat.Inbox, logger *zap.Logger) *transport.Channel {
	opts := transport.Options{
		ReconnectDelay:    cfg.Transport.ReconnectDelay.Duration,
		ReconnectMaxDelay: cfg.Transport.ReconnectMaxDelay.Duration,
		PingInterval:      cfg.Transport.PingInterval.Duration,
	}
	if cfg.Backend.Token != "" {
		opts.Header = http.Header{"Authorization": []string{"Bearer " + cfg.Backend.Token}}
	}
	return transport.New(inbox, opts, logger.Named("transport"))
}

func provideCoordinator(cfg *config.Config, cs *conversation.Store, client *backend.Client, ch *transport.Channel, db *store.DB, b *bus.Bus, logger *zap.Logger) *outbox.Coordinator {
	return outbox.New(cs, client, b, logger.Named("outbox"),
		outbox.WithNotifier(ch),
		outbox.WithJournal(db),
		outbox.WithCatalog(db),
		outbox.WithTimeout(cfg.Delivery.Timeout.Duration),
	)
}

func provideController(cfg *config.Config, cs *conversation.Store, inbox *chat.Inbox, ch *transport.Channel, client *backend.Client, db *store.DB, coord *outbox.Coordinator, m *status.Machine, b *bus.Bus, logger *zap.Logger) *chat.Controller {
	return chat.New(chat.Config{
		TransportURL: cfg.Transport.URL,
		Prefixes:     cfg.Transport.Prefixes,
	}, chat.Deps{
		Store:     cs,
		Inbox:     inbox,
		Transport: ch,
		Backend:   client,
		Cache:     db,
		Sender:    coord,
		Machine:   m,
		Bus:       b,
		Logger:    logger.Named("chat"),
	})
}

func provideSyncEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(db, b, logger.Named("sync"))
}

func provideConsoleService(p Params, ctrl *chat.Controller, db *store.DB, b *bus.Bus, logger *zap.Logger) *api.ConsoleService {
	return api.NewConsoleService(p.ProfileName, ctrl, db, b, logger.Named("api"))
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *store.DB, ctrl *chat.Controller, engine *intsync.Engine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// The cache mirror subscribes before the controller publishes its first load.
			engine.Start(context.Background())

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			// Initial loads are bounded by the backend timeout, not the fx start timeout.
			go func() {
				err := ctrl.Start(context.Background())
				switch {
				case errors.Is(err, chat.ErrNoTransportAddress):
					logger.Warn("running read-only", zap.Error(err))
				case err != nil:
					logger.Error("chat session failed to start", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctrl.Stop()
			engine.Stop()
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
