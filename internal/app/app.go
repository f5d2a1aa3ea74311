package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/internal/metrics"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

type serdes struct {
	productView    schema.Serde
	searchQuery    schema.Serde
	viewedProducts schema.Serde
}

type producers struct {
	productViews  kafka.ProductViewsProducer
	searchQueries kafka.SearchQueriesProducer
}

type repositories struct {
	products storage.ProductsRepository
	orders   storage.OrdersRepository
	activity storage.ActivityRepository
}

type App struct {
	ctx          context.Context
	cfg          config.Config
	tlsConfig    *tls.Config
	sqlDB        storage.SQLDB
	repositories repositories
	serdes       serdes
	producers    producers
	activityProc *kafka.ActivityProcessor
	activityView kafka.ActivityView
	viewCancel   context.CancelFunc
	viewDone     chan struct{}
	service      service.Service
	httpServer   httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initMetrics()
	app.initTLS()
	app.initStorage()
	app.initSerdes()
	app.initOutboundAdapters()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initMetrics() {
	metrics.Register()
}

func (app *App) initTLS() {
	const op = "App.initTLS"

	tlsFiles := app.cfg.Broker.TLS
	tlsConfig, err := adapter.MakeTLSConfig(adapter.TLSFiles{
		CA:   tlsFiles.CA,
		Cert: tlsFiles.Cert,
		Key:  tlsFiles.Key,
	})
	if err != nil {
		app.fallDown(op, err)
	}

	kafka.ApplyTLS(tlsConfig)
	app.tlsConfig = tlsConfig
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	sqlDB, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}

	app.sqlDB = sqlDB
	app.repositories = repositories{
		products: storage.NewProductsRepository(sqlDB),
		orders:   storage.NewOrdersRepository(sqlDB),
		activity: storage.NewActivityRepository(sqlDB),
	}
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	urls := app.cfg.Broker.SchemaRegistryURLs
	topics := app.cfg.Broker.Topics
	ctx := app.ctx

	srClient, err := sr.NewClient(sr.URLs(urls...))
	if err != nil {
		app.fallDown(op, err)
	}

	identifier := schema.NewRegistryIdentifier(srClient)

	productViewSerde, err := schema.NewSerdeProductViewV1(
		ctx,
		schema.SubjectOpt(topics.ProductViews+"-value"),
		schema.SchemaIdentifierOpt(identifier),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	searchQuerySerde, err := schema.NewSerdeSearchQueryV1(
		ctx,
		schema.SubjectOpt(topics.SearchQueries+"-value"),
		schema.SchemaIdentifierOpt(identifier),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	viewedProductsSerde, err := schema.NewSerdeViewedProductsV1(
		ctx,
		schema.SubjectOpt(app.cfg.GroupTable()+"-value"),
		schema.SchemaIdentifierOpt(identifier),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.serdes = serdes{
		productView:    productViewSerde,
		searchQuery:    searchQuerySerde,
		viewedProducts: viewedProductsSerde,
	}
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	ctx := app.ctx
	seedBrokers := app.cfg.Broker.SeedBrokers
	topics := app.cfg.Broker.Topics
	group := app.cfg.Broker.Groups.Activity

	productViewsProducer, err := kafka.NewProductViewsProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, topics.ProductViews, app.tlsConfig),
		kafka.ProducerEncoderOpt(app.serdes.productView),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	searchQueriesProducer, err := kafka.NewSearchQueriesProducer(
		kafka.ProducerClientOpt(ctx, seedBrokers, topics.SearchQueries, app.tlsConfig),
		kafka.ProducerEncoderOpt(app.serdes.searchQuery),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	activityProc, err := kafka.NewActivityProc(kafka.ActivityProcessorConfig{
		SeedBrokers: seedBrokers,
		InputStream: topics.ProductViews,
		Group:       group,
		ViewSerde:   app.serdes.productView,
		TableSerde:  app.serdes.viewedProducts,
		MaxViewed:   app.cfg.Search.MaxViewed,
	})
	if err != nil {
		app.fallDown(op, err)
	}

	activityView, err := kafka.NewActivityView(kafka.ActivityViewConfig{
		SeedBrokers: seedBrokers,
		Group:       group,
		TableSerde:  app.serdes.viewedProducts,
	})
	if err != nil {
		app.fallDown(op, err)
	}

	app.producers = producers{
		productViews:  productViewsProducer,
		searchQueries: searchQueriesProducer,
	}
	app.activityProc = activityProc
	app.activityView = activityView
}

func (app *App) initCoreService() {
	limits := app.cfg.Search
	app.service = service.New(
		service.Deps{
			Products:     app.repositories.products,
			Orders:       app.repositories.orders,
			Activity:     app.repositories.activity,
			Viewed:       app.activityView,
			Views:        app.producers.productViews,
			Searches:     app.producers.searchQueries,
			ActivityProc: app.activityProc,
		},
		service.WithLimits(service.Limits{
			Suggest:        limits.SuggestLimit,
			Similar:        limits.SimilarLimit,
			Recommend:      limits.RecommendLimit,
			BoughtTogether: limits.BoughtTogetherLimit,
		}),
	)
}

func (app *App) initInboundAdapters() {
	addr := app.cfg.HTTPServerAddr
	mux := http.NewServeMux()
	httphandler.RegisterProducts(mux, app.service, app.service)
	httphandler.RegisterRecommendations(mux, app.service)
	mux.Handle("GET /metrics", metrics.Handler())

	rateLimit := httphandler.RateLimit(
		app.cfg.RateLimit.RPS, app.cfg.RateLimit.Burst,
	)
	handler := rateLimit(httphandler.Instrument(httphandler.AllowJSON(mux)))
	app.httpServer = httphandler.NewHTTPServer(addr, handler, app.cfg.HTTPTimeout)
}

// Run starts the background components and the http server.
//
// Blocks while the activity processor is preparing.
func (app *App) Run(stopFn context.CancelFunc) {
	viewCtx, viewCancel := context.WithCancel(app.ctx)
	app.viewCancel = viewCancel
	app.viewDone = make(chan struct{})
	go func() {
		defer close(app.viewDone)
		app.activityView.Run(viewCtx)
	}()

	app.service.Run(app.ctx, stopFn)
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.Close()

	if app.viewCancel != nil {
		app.viewCancel()
		select {
		case <-app.viewDone:
		case <-ctx.Done():
			slog.Warn("activity view is not stopped", "err", ctx.Err())
		}
	}

	app.producers.productViews.Close()
	app.producers.searchQueries.Close()
	app.sqlDB.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
