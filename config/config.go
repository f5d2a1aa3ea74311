package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "STOREFRONT_CONFIG_FILE"
	envPrefix         = "storefront"
)

type rateLimit struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type search struct {
	SuggestLimit        int `mapstructure:"suggest_limit"`
	SimilarLimit        int `mapstructure:"similar_limit"`
	RecommendLimit      int `mapstructure:"recommend_limit"`
	BoughtTogetherLimit int `mapstructure:"bought_together_limit"`
	MaxViewed           int `mapstructure:"max_viewed"`
}

type tlsFiles struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

type topics struct {
	ProductViews  string `mapstructure:"product_views"`
	SearchQueries string `mapstructure:"search_queries"`
}

type groups struct {
	Activity string `mapstructure:"activity"`
}

type broker struct {
	SeedBrokers        []string `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string `mapstructure:"schema_registry_urls"`
	TLS                tlsFiles `mapstructure:"tls"`
	Topics             topics   `mapstructure:"topics"`
	Groups             groups   `mapstructure:"groups"`
}

type Config struct {
	LogLevel       slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr string        `mapstructure:"http_server_addr"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	SQLDB          string        `mapstructure:"sql_db"`
	RateLimit      rateLimit     `mapstructure:"rate_limit"`
	Search         search        `mapstructure:"search"`
	Broker         broker        `mapstructure:"broker"`
}

// GroupTable returns the goka group table topic of the activity group.
func (c Config) GroupTable() string {
	return c.Broker.Groups.Activity + "-table"
}

func Load() Config {
	if err := loadDotenv(".env"); err != nil {
		die(err)
	}

	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads the YAML config at path.
//
// Every key can be overridden with a STOREFRONT_ prefixed env variable,
// e.g. STOREFRONT_BROKER_SEED_BROKERS="a:9092,b:9092".
func LoadFile(path string) (Config, error) {
	const op = "config.LoadFile"

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
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
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "INFO")
	v.SetDefault("http_server_addr", ":8000")
	v.SetDefault("http_timeout", "5s")
	v.SetDefault("sql_db", "")
	v.SetDefault("rate_limit.rps", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("search.suggest_limit", 5)
	v.SetDefault("search.similar_limit", 4)
	v.SetDefault("search.recommend_limit", 6)
	v.SetDefault("search.bought_together_limit", 4)
	v.SetDefault("search.max_viewed", 50)
	v.SetDefault("broker.tls.ca", "")
	v.SetDefault("broker.tls.cert", "")
	v.SetDefault("broker.tls.key", "")
	v.SetDefault("broker.topics.product_views", "product-views")
	v.SetDefault("broker.topics.search_queries", "search-queries")
	v.SetDefault("broker.groups.activity", "activity")
}

func (c Config) validate() error {
	var errs []error
	if c.SQLDB == "" {
		errs = append(errs, errors.New("sql_db is required"))
	}
	if len(c.Broker.SeedBrokers) == 0 {
		errs = append(errs, errors.New("broker.seed_brokers is required"))
	}
	if len(c.Broker.SchemaRegistryURLs) == 0 {
		errs = append(errs, errors.New("broker.schema_registry_urls is required"))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate_limit must be positive"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("http_timeout must be positive"))
	}
	return errors.Join(errs...)
}

// loadDotenv exports the variables of an optional .env file.
func loadDotenv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
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
	template := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	HTTPTimeout=%q
	SQLDB=%q
	RateLimit: RPS=%v Burst=%d

	Search:
	SuggestLimit=%d
	SimilarLimit=%d
	RecommendLimit=%d
	BoughtTogetherLimit=%d
	MaxViewed=%d

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		ProductViews=%q
		SearchQueries=%q
	Groups:
		Activity=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(template, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.HTTPTimeout,
		redactDSN(c.SQLDB),
		c.RateLimit.RPS,
		c.RateLimit.Burst,
		c.Search.SuggestLimit,
		c.Search.SimilarLimit,
		c.Search.RecommendLimit,
		c.Search.BoughtTogetherLimit,
		c.Search.MaxViewed,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.CA != "",
		c.Broker.Topics.ProductViews,
		c.Broker.Topics.SearchQueries,
		c.Broker.Groups.Activity,
	)
}

// redactDSN hides the password of a postgres URL.
func redactDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPass := strings.Cut(userinfo, ":")
	if !hasPass {
		return dsn
	}
	return scheme + "://" + user + ":xxxxx@" + host
}
