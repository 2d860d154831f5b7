package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Identity IdentityConfig `mapstructure:"identity"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// Database drivers.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

// S3Config is the object storage holding uploaded avatars. An empty
// BucketName disables avatar uploads.
type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	AvatarPrefix    string        `mapstructure:"avatar_prefix"`
	URLExpiry       time.Duration `mapstructure:"url_expiry"`
}

// AuthConfig verifies the session tokens issued by the identity provider.
// Authentication is off when JWTSecret is empty.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// IdentityConfig points at the identity provider's user API, used for
// profile pictures.
type IdentityConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	CacheSizeMB    int           `mapstructure:"cache_size_mb"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	PlaceholderURL string        `mapstructure:"placeholder_url"`
}

type FeedConfig struct {
	DefaultPageSize   int `mapstructure:"default_page_size"`
	MaxPageSize       int `mapstructure:"max_page_size"`
	EnrichConcurrency int `mapstructure:"enrich_concurrency"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	JSON   bool   `mapstructure:"json"`
	Stdout bool   `mapstructure:"stdout"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// no file, defaults and env only
		err = nil
	} else if err != nil {
		return
	}

	// Duration strings ("5s", "10m") decode straight into time.Duration fields.
	if err = v.Unmarshal(&config); err != nil {
		return
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")

	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "fitness_social")

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.avatar_prefix", "avatars/")
	v.SetDefault("s3.url_expiry", "15m")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("identity.base_url", "")
	v.SetDefault("identity.api_key", "")
	v.SetDefault("identity.timeout", "5s")
	v.SetDefault("identity.cache_size_mb", 16)
	v.SetDefault("identity.cache_ttl", "10m")
	v.SetDefault("identity.placeholder_url", "https://www.gravatar.com/avatar/?d=mp")

	v.SetDefault("feed.default_page_size", 10)
	v.SetDefault("feed.max_page_size", 50)
	v.SetDefault("feed.enrich_concurrency", 8)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.stdout", true)
}
