package config

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	App      AppConfig      `mapstructure:"app"`
	Local    LocalConfig    `mapstructure:"local"`
	Mirror   MirrorConfig   `mapstructure:"mirror"`
	Nexus    NexusConfig    `mapstructure:"nexus"`
	Gif      GifConfig      `mapstructure:"gif"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Port     string `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int64  `mapstructure:"expire"` // hours
}

type AppConfig struct {
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

// LocalConfig configures the node-local keepsake database.
type LocalConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// MirrorConfig configures the secondary redundancy store.
// Mirror writes are fire-and-forget and are never read back.
type MirrorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Key     string `mapstructure:"key"`
}

// NexusConfig configures the upstream content archives.
type NexusConfig struct {
	ArchiveBaseURL string  `mapstructure:"archive_base_url"`
	SpaceBaseURL   string  `mapstructure:"space_base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"` // requests/sec per upstream
}

type GifConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type WorkerConfig struct {
	Num        int `mapstructure:"num"`
	BufferSize int `mapstructure:"buffer_size"`
}

var GlobalConfig Config

// Validate rejects configurations the service cannot start with.
// A bad credential is a blocking startup failure, not a degraded mode.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" || c.JWT.Secret == "your_super_secret_key" {
		return errors.New("please set a secure JWT secret in production")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT secret should be at least 32 characters")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return errors.New("database configuration is incomplete")
	}

	if c.Redis.Addr == "" {
		return errors.New("redis address is required")
	}

	if c.Mirror.Enabled && (c.Mirror.URL == "" || c.Mirror.Key == "") {
		return errors.New("mirror is enabled but url/key are missing")
	}

	return nil
}

// LoadConfig reads the config file for APP_ENV, applies defaults and
// env overrides, and validates the result.
func LoadConfig() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}

	configName := "config"
	if env != "" && env != "dev" {
		configName = "config." + env
	}

	viper.SetConfigName(configName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("jwt.expire", 24)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("app.env", "dev")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("local.data_dir", "./data")
	viper.SetDefault("nexus.archive_base_url", "https://archive.org/advancedsearch.php")
	viper.SetDefault("nexus.space_base_url", "https://images-api.nasa.gov/search")
	viper.SetDefault("nexus.rate_limit", 5)
	viper.SetDefault("gif.base_url", "https://g.tenor.com/v1")
	viper.SetDefault("gif.api_key", "LIVDSRZULELA")
	viper.SetDefault("worker.num", 4)
	viper.SetDefault("worker.buffer_size", 256)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Config file not found, using defaults or env vars: %v", err)
	}

	viper.AutomaticEnv()

	if err := viper.Unmarshal(&GlobalConfig); err != nil {
		log.Fatalf("Unable to decode into struct: %v", err)
	}

	// Manual overrides for the settings most often injected at deploy time.
	if host := os.Getenv("DB_HOST"); host != "" {
		GlobalConfig.Database.Host = host
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		GlobalConfig.Redis.Addr = redisAddr
	}
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		GlobalConfig.JWT.Secret = jwtSecret
	}
	if mirrorKey := os.Getenv("MIRROR_KEY"); mirrorKey != "" {
		GlobalConfig.Mirror.Key = mirrorKey
	}

	if err := GlobalConfig.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	log.Printf("Configuration loaded and validated successfully. Environment: %s", GlobalConfig.App.Env)
}
