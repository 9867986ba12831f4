package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/audio"
	"github.com/bomac1193/Issuance/internal/clearance"
	"github.com/bomac1193/Issuance/internal/config"
	"github.com/bomac1193/Issuance/internal/custody"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/fingerprint"
	"github.com/bomac1193/Issuance/internal/issuance"
	"github.com/bomac1193/Issuance/internal/ledger"
	"github.com/bomac1193/Issuance/internal/lock"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/messaging"
	"github.com/bomac1193/Issuance/internal/metrics"
	"github.com/bomac1193/Issuance/internal/providers/audiblemagic"
	"github.com/bomac1193/Issuance/internal/providers/jetstream"
	"github.com/bomac1193/Issuance/internal/providers/pex"
	"github.com/bomac1193/Issuance/internal/ratelimit"
	"github.com/bomac1193/Issuance/internal/registrar"
	"github.com/bomac1193/Issuance/internal/registration"
	"github.com/bomac1193/Issuance/internal/rightscheck"
	"github.com/bomac1193/Issuance/internal/settlement"
	"github.com/bomac1193/Issuance/internal/store"
)

type commandContext struct {
	configPath string
	envPath    string

	configOnce sync.Once
	config     *config.EngineConfig
	configErr  error

	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error

	appOnce sync.Once
	app     *application
	appErr  error
}

// application holds the wired engine components of one CLI invocation
type application struct {
	store      store.Store
	engine     *clearance.Engine
	aggregator *rightscheck.Aggregator
	dispatcher registration.Dispatcher
	issuance   *issuance.Service
	publisher  messaging.Publisher
	registrar  *registrar.EthereumRegistrar
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() (*config.EngineConfig, error) {
	c.configOnce.Do(func() {
		config.ChdirRepoRoot()
		cfg, err := config.LoadEngineConfig(strings.TrimSpace(c.configPath), strings.TrimSpace(c.envPath))
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}

		err = logger.Initialize(logger.Config{
			Debug:           cfg.Debug,
			SentryDSN:       cfg.SentryDSN,
			BreadcrumbLevel: zapcore.InfoLevel,
			Tags: map[string]string{
				"service": "issuance",
			},
		})
		if err != nil {
			c.configErr = fmt.Errorf("initialize logger: %w", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) database() (*gorm.DB, error) {
	c.dbOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.dbErr = err
			return
		}
		c.db, c.dbErr = store.Open(cfg.Database, cfg.Debug)
	})
	return c.db, c.dbErr
}

// application wires every component. Called once per invocation.
func (c *commandContext) application(ctx context.Context) (*application, error) {
	c.appOnce.Do(func() {
		c.app, c.appErr = c.buildApplication(ctx)
	})
	return c.app, c.appErr
}

func (c *commandContext) buildApplication(ctx context.Context) (*application, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	db, err := c.database()
	if err != nil {
		return nil, err
	}

	app := &application{store: store.New(db)}

	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	m := metrics.New(nil)
	locks := lock.NewKeyedMutex()

	app.publisher = messaging.NewNoopPublisher()
	if cfg.NATS.URL != "" {
		app.publisher, err = jetstream.NewPublisher(ctx, jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Registrar.Enabled() {
		app.registrar, err = registrar.Dial(ctx, cfg.Registrar, adapter.NewEthClientDialer())
		if err != nil {
			app.close()
			return nil, err
		}
		app.dispatcher, err = registration.NewDispatcher(registration.ConfigFrom(cfg.Registration), app.store, app.registrar, app.publisher, clock, m)
		if err != nil {
			app.close()
			return nil, err
		}
	} else {
		logger.DebugCtx(ctx, "Registrar not configured, registration jobs are left for the sweeper")
	}

	extractor, err := fingerprint.NewExtractor(fingerprint.ConfigFrom(cfg.Fingerprint), jsonAdapter, adapter.NewJCS())
	if err != nil {
		app.close()
		return nil, err
	}

	limiter := ratelimit.New(map[string]ratelimit.Limit{
		audiblemagic.PROVIDER_NAME: providerLimit(cfg.Providers.AudibleMagic),
		pex.PROVIDER_NAME:          providerLimit(cfg.Providers.Pex),
	})
	app.aggregator, err = rightscheck.NewAggregator(rightscheck.ConfigFrom(cfg.Clearance), clock, m,
		rightscheck.Throttle(audiblemagic.NewClient(audiblemagic.Config{
			URL:     cfg.Providers.AudibleMagic.URL,
			APIKey:  cfg.Providers.AudibleMagic.APIKey,
			Timeout: cfg.Providers.AudibleMagic.Timeout,
		}, adapter.NewHTTPClient(cfg.Providers.AudibleMagic.Timeout)), limiter),
		rightscheck.Throttle(pex.NewClient(pex.Config{
			URL:     cfg.Providers.Pex.URL,
			APIKey:  cfg.Providers.Pex.APIKey,
			Timeout: cfg.Providers.Pex.Timeout,
		}, adapter.NewHTTPClient(cfg.Providers.Pex.Timeout)), limiter),
	)
	if err != nil {
		app.close()
		return nil, err
	}

	decoder := audio.NewWAVDecoder(adapter.NewIO(), 0)
	// Evaluations lock apart from settlement, ledger and custody. The asset row lock orders the verdict write.
	app.engine = clearance.NewEngine(app.store, decoder, extractor, app.aggregator, app.dispatcher, app.publisher, clock, jsonAdapter, m, lock.NewKeyedMutex())

	app.issuance = issuance.NewService(
		app.store,
		app.engine,
		settlement.NewService(app.store, app.publisher, clock, m, locks),
		ledger.NewService(app.store, app.publisher, clock, m, locks),
		custody.NewRecorder(app.store, app.publisher, clock, locks),
		app.publisher,
		clock,
		locks,
	)

	return app, nil
}

func providerLimit(cfg config.ProviderConfig) ratelimit.Limit {
	return ratelimit.Limit{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		MaxQueueTime:      cfg.MaxQueueTime,
	}
}

// requireDispatcher returns the dispatcher or an error when no registrar is configured
func (a *application) requireDispatcher() (registration.Dispatcher, error) {
	if a.dispatcher == nil {
		return nil, fmt.Errorf("%w: configure registrar.rpc_url, registrar.contract_address and registrar.private_key", domain.ErrRegistrarUnavailable)
	}
	return a.dispatcher, nil
}

// close waits for background registrations, then releases connections
func (a *application) close() {
	if a.engine != nil {
		a.engine.Wait()
	}
	if a.dispatcher != nil {
		a.dispatcher.Wait()
	}
	if a.aggregator != nil {
		a.aggregator.Close()
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.registrar != nil {
		a.registrar.Close()
	}
}

// close releases everything the invocation opened
func (c *commandContext) close() {
	if c.app != nil {
		c.app.close()
	}
	if c.db != nil {
		if sqlDB, err := c.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("Failed to close database", zap.Error(err))
			}
		}
	}
	logger.Flush(2 * time.Second)
}

// withApplication runs fn against the wired application
func (c *commandContext) withApplication(ctx context.Context, fn func(*application) error) error {
	app, err := c.application(ctx)
	if err != nil {
		return err
	}
	return fn(app)
}
