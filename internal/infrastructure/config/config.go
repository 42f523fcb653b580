package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Services map[string]ServiceEndpoint
	Postgres PostgresConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Amqp     AmqpConfig
	JWT      JWTConfig
	Box      BoxConfig
	Storage  StorageConfig
	Cors     CorsConfig
	Tracing  TracingConfig
}

type ServerConfig struct {
	Port    string
	RunMode string
	Domain  string
}

// ServiceEndpoint is one route target: the network address a service's RPC
// server listens on. The map is built once at startup and never mutated.
type ServiceEndpoint struct {
	Host string
	Port int
}

func (e ServiceEndpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DbName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type MongoConfig struct {
	URI               string
	Database          string
	ConnectionTimeout time.Duration
}

type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	Db           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

type AmqpConfig struct {
	URI      string
	Exchange string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type BoxConfig struct {
	PlacementWindow time.Duration
	CodeTTL         time.Duration
	AutoCloseDelay  time.Duration
}

type StorageConfig struct {
	UploadDir string
}

type CorsConfig struct {
	AllowOrigins string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func GetConfig() *Config {
	cfgPath := getConfigPath(os.Getenv("APP_ENV"))
	v, err := LoadConfig(cfgPath, "yml")
	if err != nil {
		log.Fatalf("Error in load config %v", err)
	}

	cfg, err := ParseConfig(v)
	if err != nil {
		log.Fatalf("Error in parse config %v", err)
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		cfg.Server.Port = envPort
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Printf("Unable to parse config: %v", err)
		return nil, err
	}
	return &cfg, nil
}

func LoadConfig(filename string, fileType string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(fileType)
	v.SetConfigName(filename)

	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.AddConfigPath("../../config")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Unable to read config: %v", err)
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}

	return v, nil
}

func (cfg *Config) Validate() error {
	if cfg.Server.Port == "" {
		return errors.New("server port is required")
	}
	if len(cfg.Services) == 0 {
		return errors.New("at least one service endpoint is required")
	}
	for name, ep := range cfg.Services {
		if ep.Port == 0 {
			return fmt.Errorf("service %q has no port configured", name)
		}
	}
	if cfg.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	if cfg.Box.PlacementWindow <= 0 {
		return errors.New("box placement window must be positive")
	}
	if cfg.Box.CodeTTL <= 0 {
		return errors.New("box code ttl must be positive")
	}
	if cfg.Box.AutoCloseDelay <= 0 {
		return errors.New("box auto close delay must be positive")
	}
	return nil
}

// Service returns the endpoint for a named service.
func (cfg *Config) Service(name string) (ServiceEndpoint, bool) {
	ep, ok := cfg.Services[name]
	return ep, ok
}

func getConfigPath(env string) string {
	switch env {
	case "production":
		return "config-production"
	case "docker":
		return "config-docker"
	default:
		return "config-development"
	}
}
