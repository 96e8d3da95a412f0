package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the gateway application configuration
type Config struct {
	Server      Server            `mapstructure:"server"`
	Connection  Connection        `mapstructure:"connection"`
	Connections map[string]string `mapstructure:"connections"`
	OAuth       OAuth             `mapstructure:"oauth"`
	Session     Session           `mapstructure:"session"`
	Logging     Logging           `mapstructure:"logging"`
	Monitoring  Monitoring        `mapstructure:"monitoring"`
	Shutdown    Shutdown          `mapstructure:"shutdown"`
}

// Server contains HTTP server settings
type Server struct {
	Host string `mapstructure:"host" default:"0.0.0.0"`
	Port int    `mapstructure:"port" default:"8080" validate:"min=1,max=65535"`
}

// Connection contains the static connector properties. These are the lowest
// precedence configuration source consulted by the resolver: URL first, then
// the separate endpoint/username/password values.
type Connection struct {
	URL        string        `mapstructure:"url"`
	Endpoint   string        `mapstructure:"endpoint"`
	Username   string        `mapstructure:"username"`
	Password   string        `mapstructure:"password"`
	APIVersion string        `mapstructure:"api_version" default:"v1"`
	Timeout    time.Duration `mapstructure:"timeout" default:"30s"`
}

// OAuth contains the web authentication handshake settings. Exactly one of
// the three init styles must be configured: explicit endpoint/key/secret, a
// connection URL carrying them, or a named connection.
type OAuth struct {
	Endpoint       string `mapstructure:"endpoint"`
	Key            string `mapstructure:"key"`
	Secret         string `mapstructure:"secret"`
	URL            string `mapstructure:"url"`
	ConnectionName string `mapstructure:"connection_name"`

	CallbackPath      string `mapstructure:"callback_path" default:"/_auth"`
	UserDataRetriever string `mapstructure:"user_data_retriever" default:"identity"`
	StoreUsername     bool   `mapstructure:"store_username"`
	VerifyIDToken     bool   `mapstructure:"verify_id_token"`
	JWKSURL           string `mapstructure:"jwks_url"`
}

// Session contains security context storage settings
type Session struct {
	StorageMethod string        `mapstructure:"storage_method" default:"cookie" validate:"oneof=cookie redis memory"`
	CookieName    string        `mapstructure:"cookie_name" default:"stratus_security_context"`
	KeyFile       string        `mapstructure:"key_file"`
	RedisURL      string        `mapstructure:"redis_url"`
	TTL           time.Duration `mapstructure:"ttl" default:"12h"`
}

// Logging contains logging settings
type Logging struct {
	Level      string `mapstructure:"level" default:"info"`
	Format     string `mapstructure:"format" default:"json"`
	OutputPath string `mapstructure:"output_path" default:"stdout"`
}

// Monitoring contains monitoring and metrics settings
type Monitoring struct {
	Enabled     bool `mapstructure:"enabled" default:"true"`
	MetricsPort int  `mapstructure:"metrics_port" default:"9090"`
}

// Shutdown contains graceful shutdown settings
type Shutdown struct {
	Timeout time.Duration `mapstructure:"timeout" default:"30s"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("STRATUS")
	viper.AutomaticEnv()

	// Boolean defaults that must survive an explicit false cannot use the
	// struct default tags (defaults.Set only fills zero values).
	viper.SetDefault("oauth.store_username", true)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := defaults.Set(&config); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func validate(config *Config) error {
	v := validator.New()
	if err := v.Struct(config); err != nil {
		return err
	}
	if config.Session.StorageMethod == "redis" && config.Session.RedisURL == "" {
		return fmt.Errorf("session.redis_url is required when session.storage_method is redis")
	}
	if config.OAuth.VerifyIDToken && config.OAuth.JWKSURL == "" {
		return fmt.Errorf("oauth.jwks_url is required when oauth.verify_id_token is set")
	}
	return nil
}
