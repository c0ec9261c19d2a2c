// Command catalogpub copies a product catalog into the store the shop reads
// its catalog from: the compacted catalog topic or the products table.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/niksmo/shopwave/config"
	"github.com/niksmo/shopwave/internal/adapter"
	"github.com/niksmo/shopwave/internal/adapter/kafka"
	"github.com/niksmo/shopwave/internal/adapter/shopapi"
	"github.com/niksmo/shopwave/internal/adapter/storage"
	"github.com/niksmo/shopwave/internal/core/domain"
	"github.com/niksmo/shopwave/internal/core/port"
	"github.com/niksmo/shopwave/pkg/schema"
	"github.com/niksmo/shopwave/pkg/sigctx"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/twmb/franz-go/pkg/sr"
)

const (
	targetKafka = "kafka"
	targetSQL   = "sql"
)

const publishTimeout = 30 * time.Second

type flags struct {
	source string
	target string
	delete []int64
}

func main() {
	sigCtx, stop := sigctx.NotifyContext(context.Background())
	defer stop()

	f := getFlagsValues()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(sigCtx, publishTimeout)
	defer cancel()

	start := time.Now()
	if err := run(ctx, cfg, f); err != nil {
		slog.Error("failed to publish catalog", "err", err)
		os.Exit(1)
	}
	slog.Info("complete", "elapsed", time.Since(start))
}

func getFlagsValues() flags {
	var f flags
	pflag.StringVar(&f.source, "source", config.SourceStatic,
		"catalog to publish: static or api")
	pflag.StringVar(&f.target, "target", targetKafka,
		"where to publish: kafka or sql")
	pflag.Int64SliceVar(&f.delete, "delete", nil,
		"product IDs to remove from the catalog topic instead of publishing")
	pflag.CommandLine.ParseErrorsWhitelist.UnknownFlags = true
	pflag.Parse()
	return f
}

func run(ctx context.Context, cfg config.Config, f flags) error {
	if len(f.delete) != 0 {
		if f.target != targetKafka {
			return errors.New("--delete is supported for kafka target only")
		}
		p, err := createProducer(ctx, cfg)
		if err != nil {
			return err
		}
		defer p.Close()

		if err := p.DeleteProducts(ctx, f.delete...); err != nil {
			return err
		}
		slog.Info("products deleted", "ids", f.delete)
		return nil
	}

	ps, err := loadProducts(ctx, cfg, f.source)
	if err != nil {
		return err
	}

	switch f.target {
	case targetKafka:
		p, err := createProducer(ctx, cfg)
		if err != nil {
			return err
		}
		defer p.Close()
		return publish(ctx, p.ProduceProducts, ps)
	case targetSQL:
		sqldb, err := storage.NewSQLDB(ctx, cfg.SQLDB)
		if err != nil {
			return err
		}
		defer sqldb.Close()
		var repo port.ProductsStorage = storage.NewProductsRepository(sqldb)
		return publish(ctx, repo.StoreProducts, ps)
	}
	return fmt.Errorf("unknown target %q", f.target)
}

func loadProducts(
	ctx context.Context, cfg config.Config, source string,
) ([]domain.Product, error) {
	var loader port.CatalogLoader
	switch source {
	case config.SourceStatic:
		loader = storage.StaticCatalog{}
	case config.SourceAPI:
		loader = shopapi.NewClient(
			cfg.Catalog.APIBaseURL, shopapi.WithPageSize(cfg.Catalog.PageSize),
		)
	default:
		return nil, fmt.Errorf("unknown source %q", source)
	}
	return loader.LoadProducts(ctx)
}

func publish(
	ctx context.Context,
	fn func(context.Context, []domain.Product) error,
	ps []domain.Product,
) error {
	if err := fn(ctx, ps); err != nil {
		return err
	}
	slog.Info("catalog published", "nProducts", len(ps))
	return nil
}

func createProducer(
	ctx context.Context, cfg config.Config,
) (kafka.CatalogProducer, error) {
	broker := cfg.Broker
	if !broker.Enabled() || broker.Topics.Catalog == "" {
		return kafka.CatalogProducer{}, errors.New(
			"broker.seed_brokers and broker.topics.catalog required",
		)
	}

	var tlsConfig *tls.Config
	if broker.TLS.Enabled() {
		var err error
		tlsConfig, err = adapter.MakeTLSConfig(
			afero.NewOsFs(), broker.TLS.CAFile, broker.TLS.CertFile, broker.TLS.KeyFile,
		)
		if err != nil {
			return kafka.CatalogProducer{}, err
		}
	}

	srOpts := []sr.ClientOpt{sr.URLs(broker.SchemaRegistryURLs...)}
	if tlsConfig != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(tlsConfig))
	}
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		return kafka.CatalogProducer{}, err
	}

	serde, err := schema.NewSerdeProductV1(
		ctx,
		schema.SubjectOpt(schema.TopicSubject(broker.Topics.Catalog)),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		return kafka.CatalogProducer{}, err
	}

	return kafka.NewCatalogProducer(
		kafka.ProducerClientOpt(ctx, broker.SeedBrokers, broker.Topics.Catalog, tlsConfig),
		kafka.ProducerEncoderOpt(serde),
	)
}
