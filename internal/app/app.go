package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/niksmo/shopwave/config"
	"github.com/niksmo/shopwave/internal/adapter"
	"github.com/niksmo/shopwave/internal/adapter/httphandler"
	"github.com/niksmo/shopwave/internal/adapter/kafka"
	"github.com/niksmo/shopwave/internal/adapter/shopapi"
	"github.com/niksmo/shopwave/internal/adapter/storage"
	"github.com/niksmo/shopwave/internal/core/catalog"
	"github.com/niksmo/shopwave/internal/core/port"
	"github.com/niksmo/shopwave/internal/core/service"
	"github.com/niksmo/shopwave/pkg/schema"
	"github.com/spf13/afero"
	"github.com/twmb/franz-go/pkg/sr"
)

type serdes struct {
	product      schema.Serde
	availability schema.Serde
}

type outbound struct {
	loader       port.CatalogLoader
	sqldb        *storage.SQLDB
	availability port.AvailabilityChecker
	availView    *kafka.AvailabilityView
	availProc    *kafka.AvailabilityProcessor
	emitter      port.AvailabilityEmitter
	availEmitter *kafka.AvailabilityEmitter
	states       port.StateStore
	shopAPI      *shopapi.Client
}

type App struct {
	ctx             context.Context
	cfg             config.Config
	tlsConfig       *tls.Config
	serdes          serdes
	outbound        outbound
	service         service.Service
	catalogConsumer *kafka.CatalogConsumer
	httpServer      httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initTLS()
	app.initSerdes()
	app.initOutboundAdapters()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	var handler slog.Handler
	switch app.cfg.LogFormat {
	case config.LogFormatPretty:
		handler = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			ReportTimestamp: true,
			Level:           charmlog.Level(app.cfg.LogLevel),
		})
	case config.LogFormatText:
		opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func (app *App) initTLS() {
	const op = "App.initTLS"

	tlsCfg := app.cfg.Broker.TLS
	if !app.cfg.Broker.Enabled() || !tlsCfg.Enabled() {
		return
	}

	tlsConfig, err := adapter.MakeTLSConfig(
		afero.NewOsFs(), tlsCfg.CAFile, tlsCfg.CertFile, tlsCfg.KeyFile,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	kafka.ApplyTLS(tlsConfig)
	app.tlsConfig = tlsConfig
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"

	if !app.cfg.Broker.Enabled() {
		return
	}

	srOpts := []sr.ClientOpt{sr.URLs(app.cfg.Broker.SchemaRegistryURLs...)}
	if app.tlsConfig != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(app.tlsConfig))
	}
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)
	topics := app.cfg.Broker.Topics

	if app.cfg.Catalog.Source == config.SourceKafka {
		productSerde, err := schema.NewSerdeProductV1(
			app.ctx,
			schema.SubjectOpt(schema.TopicSubject(topics.Catalog)),
			schema.SchemaIdentifierOpt(schemaCreater),
		)
		if err != nil {
			app.fallDown(op, err)
		}
		app.serdes.product = productSerde
		logSerde(productSerde)
	}

	availabilitySerde, err := schema.NewSerdeAvailabilityV1(
		app.ctx,
		schema.SubjectOpt(schema.TopicSubject(topics.Availability)),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.serdes.availability = availabilitySerde
	logSerde(availabilitySerde)
}

func logSerde(s schema.Serde) {
	slog.Info("schema registered", "subject", s.Subject(), "id", s.ID())
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	catalogCfg := app.cfg.Catalog

	app.outbound.shopAPI = shopapi.NewClient(
		catalogCfg.APIBaseURL, shopapi.WithPageSize(catalogCfg.PageSize),
	)

	switch catalogCfg.Source {
	case config.SourceStatic:
		app.outbound.loader = storage.StaticCatalog{}
	case config.SourceAPI:
		app.outbound.loader = app.outbound.shopAPI
	case config.SourceSQL:
		sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
		if err != nil {
			app.fallDown(op, err)
		}
		app.outbound.sqldb = &sqldb
		app.outbound.loader = storage.NewProductsRepository(sqldb)
	case config.SourceKafka:
		// products arrive through the catalog consumer
	}

	states, err := storage.NewFileStateStore(afero.NewOsFs(), app.cfg.StateDir)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.states = states

	if !app.cfg.Broker.Enabled() {
		slog.Warn("broker is not configured, availability updates are disabled")
		app.outbound.availability = adapter.AllAvailable{}
		app.outbound.emitter = adapter.DisabledEmitter{}
		return
	}

	app.initAvailability()
}

func (app *App) initAvailability() {
	const op = "App.initAvailability"

	broker := app.cfg.Broker
	groupTable := broker.Consumers.AvailabilityGroup

	proc, err := kafka.NewAvailabilityProcessor(
		broker.SeedBrokers,
		broker.Topics.Availability,
		groupTable,
		app.serdes.availability,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	view, err := kafka.NewAvailabilityView(broker.SeedBrokers, groupTable)
	if err != nil {
		app.fallDown(op, err)
	}

	emitter, err := kafka.NewAvailabilityEmitter(
		broker.SeedBrokers, broker.Topics.Availability, app.serdes.availability,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.outbound.availProc = proc
	app.outbound.availView = view
	app.outbound.availability = view
	app.outbound.availEmitter = emitter
	app.outbound.emitter = emitter
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	deps := service.Deps{
		Index:               catalog.NewIndex(),
		Loader:              app.outbound.loader,
		Availability:        app.outbound.availability,
		AvailabilityEmitter: app.outbound.emitter,
		States:              app.outbound.states,
		Auth:                app.outbound.shopAPI,
		Orders:              app.outbound.shopAPI,
		RefreshInterval:     app.cfg.Catalog.RefreshInterval,
	}
	if app.outbound.availProc != nil {
		deps.AvailabilityProc = app.outbound.availProc
	}
	app.service = service.New(deps)

	if app.cfg.Catalog.Source != config.SourceKafka {
		return
	}

	broker := app.cfg.Broker
	cc, err := kafka.NewCatalogConsumer(
		kafka.ConsumerClientOpt(
			broker.SeedBrokers,
			broker.Topics.Catalog,
			broker.Consumers.CatalogGroup,
			app.tlsConfig,
		),
		kafka.ConsumerDecoderOpt(app.serdes.product),
		kafka.ConsumerProductsSaverOpt(app.service),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.catalogConsumer = &cc
}

func (app *App) initInboundAdapters() {
	addr := app.cfg.HTTPServerAddr
	mux := http.NewServeMux()
	httphandler.RegisterCatalog(mux, app.service, app.cfg.Catalog.SuggestLimit)
	httphandler.RegisterAdmin(mux, app.service, app.service)
	httphandler.RegisterSession(mux, app.service)

	app.httpServer = httphandler.NewHTTPServer(addr, mux)
}

// Run blocks until the availability processor is ready, loads the first
// catalog and starts serving.
func (app *App) Run(stopFn context.CancelFunc) {
	const op = "App.Run"
	log := slog.With("op", op)

	if app.outbound.availView != nil {
		go app.outbound.availView.Run(app.ctx)
	}

	app.service.Run(app.ctx, stopFn)

	if app.catalogConsumer != nil {
		go app.catalogConsumer.Run(app.ctx)
	} else if err := app.service.RefreshCatalog(app.ctx); err != nil {
		log.Error("failed to load catalog", "err", err)
	}

	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)

	if app.catalogConsumer != nil {
		app.catalogConsumer.Close()
	}
	app.service.Close()
	if app.outbound.availEmitter != nil {
		app.outbound.availEmitter.Close()
	}
	if app.outbound.sqldb != nil {
		app.outbound.sqldb.Close()
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
