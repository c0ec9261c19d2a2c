package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "SHOPWAVE_CONFIG_FILE"

const (
	SourceStatic = "static"
	SourceAPI    = "api"
	SourceSQL    = "sql"
	SourceKafka  = "kafka"
)

const (
	LogFormatJSON   = "json"
	LogFormatText   = "text"
	LogFormatPretty = "pretty"
)

type consumers struct {
	CatalogGroup      string `mapstructure:"catalog_group"`
	AvailabilityGroup string `mapstructure:"availability_group"`
}

type topics struct {
	Catalog      string `mapstructure:"catalog"`
	Availability string `mapstructure:"availability"`
}

type brokerTLS struct {
	CAFile   string `mapstructure:"ca_file"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// Enabled reports whether any TLS file is set.
func (t brokerTLS) Enabled() bool {
	return t.CAFile != "" || t.CertFile != "" || t.KeyFile != ""
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
	TLS                brokerTLS `mapstructure:"tls"`
}

// Enabled reports whether the availability stream is configured.
func (b broker) Enabled() bool {
	return len(b.SeedBrokers) != 0
}

type catalog struct {
	Source          string        `mapstructure:"source"`
	APIBaseURL      string        `mapstructure:"api_base_url"`
	PageSize        int           `mapstructure:"page_size"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	SuggestLimit    int           `mapstructure:"suggest_limit"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	LogFormat      string     `mapstructure:"log_format"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	SQLDB          string     `mapstructure:"sql_db"`
	StateDir       string     `mapstructure:"state_dir"`
	Catalog        catalog    `mapstructure:"catalog"`
	Broker         broker     `mapstructure:"broker"`
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads and validates the config file at path.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", LogFormatJSON)
	v.SetDefault("http_server_addr", ":8000")
	v.SetDefault("state_dir", "/var/lib/shopwave/sessions")
	v.SetDefault("catalog.source", SourceStatic)
	v.SetDefault("catalog.page_size", 100)
	v.SetDefault("catalog.suggest_limit", 8)
}

func (c Config) validate() error {
	var errs []error

	switch c.LogFormat {
	case LogFormatJSON, LogFormatText, LogFormatPretty:
	default:
		errs = append(errs, fmt.Errorf("log_format: unknown %q", c.LogFormat))
	}

	switch c.Catalog.Source {
	case SourceStatic:
	case SourceAPI:
		if c.Catalog.APIBaseURL == "" {
			errs = append(errs, errors.New("catalog.api_base_url: required for api source"))
		}
	case SourceSQL:
		if c.SQLDB == "" {
			errs = append(errs, errors.New("sql_db: required for sql source"))
		}
	case SourceKafka:
		if !c.Broker.Enabled() || c.Broker.Topics.Catalog == "" ||
			c.Broker.Consumers.CatalogGroup == "" {
			errs = append(errs, errors.New(
				"broker: seed_brokers, topics.catalog and consumers.catalog_group required for kafka source",
			))
		}
	default:
		errs = append(errs, fmt.Errorf("catalog.source: unknown %q", c.Catalog.Source))
	}

	if c.Catalog.APIBaseURL == "" {
		errs = append(errs, errors.New("catalog.api_base_url: required for auth and orders"))
	}

	if c.Broker.Enabled() {
		if len(c.Broker.SchemaRegistryURLs) == 0 {
			errs = append(errs, errors.New("broker.schema_registry_urls: required"))
		}
		if c.Broker.Topics.Availability == "" || c.Broker.Consumers.AvailabilityGroup == "" {
			errs = append(errs, errors.New(
				"broker: topics.availability and consumers.availability_group required",
			))
		}
	}

	tlsCfg := c.Broker.TLS
	if tlsCfg.Enabled() &&
		(tlsCfg.CAFile == "" || tlsCfg.CertFile == "" || tlsCfg.KeyFile == "") {
		errs = append(errs, errors.New(
			"broker.tls: ca_file, cert_file and key_file required together",
		))
	}

	if c.Catalog.SuggestLimit < 1 {
		errs = append(errs, errors.New("catalog.suggest_limit: must be positive"))
	}

	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	cmdLine.ParseErrorsWhitelist.UnknownFlags = true
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	LogFormat=%q
	HTTPServerAddr=%q
	SQLDB=%q
	StateDir=%q

	Catalog:
	Source=%q
	APIBaseURL=%q
	PageSize=%d
	RefreshInterval=%q
	SuggestLimit=%d

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	Topics:
		Catalog=%q
		Availability=%q
	Consumers:
		CatalogGroup=%q
		AvailabilityGroup=%q
	TLS:
		CAFile=%q
		CertFile=%q
		KeyFile=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.LogFormat,
		c.HTTPServerAddr,
		maskDSN(c.SQLDB),
		c.StateDir,
		c.Catalog.Source,
		c.Catalog.APIBaseURL,
		c.Catalog.PageSize,
		c.Catalog.RefreshInterval,
		c.Catalog.SuggestLimit,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.Topics.Catalog,
		c.Broker.Topics.Availability,
		c.Broker.Consumers.CatalogGroup,
		c.Broker.Consumers.AvailabilityGroup,
		c.Broker.TLS.CAFile,
		c.Broker.TLS.CertFile,
		c.Broker.TLS.KeyFile,
	)
}

// maskDSN hides the password of a postgres URL.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 {
		return dsn
	}
	userinfo := dsn[scheme+3 : at]
	user, _, hasPass := strings.Cut(userinfo, ":")
	if !hasPass {
		return dsn
	}
	return dsn[:scheme+3] + user + ":***" + dsn[at:]
}
