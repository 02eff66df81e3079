package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	EnvironmentProduction = "production"

	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

type StoreConfig struct {
	Driver   string
	Mongo    MongoConfig
	Postgres PostgresConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	BucketAvatars  string
	UseSSL         bool
	Region         string
	PublicURL      string
	MaxAvatarBytes int64
}

// SecurityConfig holds the token secrets. Lifetimes are whole minutes.
type SecurityConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpire  int
	RefreshTokenExpire int
}

func (s SecurityConfig) AccessTTL() time.Duration {
	return time.Duration(s.AccessTokenExpire) * time.Minute
}

func (s SecurityConfig) RefreshTTL() time.Duration {
	return time.Duration(s.RefreshTokenExpire) * time.Minute
}

type EventsConfig struct {
	Stream string
	MaxLen int64
}

type WorkerConfig struct {
	Group         string
	Consumer      string
	ClaimInterval time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Store            StoreConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Events           EventsConfig
	Worker           WorkerConfig
	AllowCORSOrigins []string
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// Load reads the API configuration and validates it.
func Load() (*AppConfig, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWorker reads the same sources as Load but only checks what the worker uses.
func LoadWorker() (*AppConfig, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateWorker(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("USERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	var errs []error
	if c.Security.AccessTokenSecret == "" {
		errs = append(errs, errors.New("security.accesstokensecret is required"))
	}
	if c.Security.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("security.refreshtokensecret is required"))
	}
	if c.Security.AccessTokenSecret != "" && c.Security.AccessTokenSecret == c.Security.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.Security.AccessTokenExpire <= 0 || c.Security.RefreshTokenExpire <= 0 {
		errs = append(errs, errors.New("token lifetimes must be positive"))
	}
	switch c.Store.Driver {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *AppConfig) ValidateWorker() error {
	var errs []error
	if c.Events.Stream == "" {
		errs = append(errs, errors.New("events.stream is required"))
	}
	if c.Worker.Group == "" || c.Worker.Consumer == "" {
		errs = append(errs, errors.New("worker.group and worker.consumer are required"))
	}
	if c.Worker.ClaimInterval <= 0 {
		errs = append(errs, errors.New("worker.claiminterval must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid worker config: %w", errors.Join(errs...))
	}
	return nil
}

// bindLegacyEnv keeps the variable names used by existing deployments working.
func bindLegacyEnv(v *viper.Viper) error {
	aliases := map[string]string{
		"environment":                 "NODE_ENV",
		"http.port":                   "PORT",
		"store.mongo.uri":             "DB_URL",
		"redis.addr":                  "REDIS_URL",
		"security.accesstokensecret":  "ACCESS_TOKEN",
		"security.refreshtokensecret": "REFRESH_TOKEN",
		"security.accesstokenexpire":  "ACCESS_TOKEN_EXPIRE",
		"security.refreshtokenexpire": "REFRESH_TOKEN_EXPIRE",
	}
	for key, legacy := range aliases {
		prefixed := "USERS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8000)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("store.driver", StoreMongo)
	v.SetDefault("store.mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("store.mongo.database", "users")
	v.SetDefault("store.mongo.timeout", "10s")
	v.SetDefault("store.postgres.maxopen", 30)
	v.SetDefault("store.postgres.maxidle", 10)
	v.SetDefault("store.postgres.connmaxlifetime", "30m")
	v.SetDefault("store.postgres.connecttimeout", "10s")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucketavatars", "user-avatars")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.maxavatarbytes", 2<<20)

	v.SetDefault("security.accesstokenexpire", 15)
	v.SetDefault("security.refreshtokenexpire", 7*24*60)

	v.SetDefault("events.stream", "users:events")
	v.SetDefault("events.maxlen", 100000)

	v.SetDefault("worker.group", "user-workers")
	v.SetDefault("worker.consumer", "worker-1")
	v.SetDefault("worker.claiminterval", "30s")
}
