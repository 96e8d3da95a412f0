package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stratushq/stratus-go-sdk/pkg/api"
	"github.com/stratushq/stratus-go-sdk/pkg/app/httpserver"
	"github.com/stratushq/stratus-go-sdk/pkg/config"
	"github.com/stratushq/stratus-go-sdk/pkg/connector"
	"github.com/stratushq/stratus-go-sdk/pkg/gateway"
	"github.com/stratushq/stratus-go-sdk/pkg/oauth"
	"github.com/stratushq/stratus-go-sdk/pkg/oauth/security"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Stratus gateway",
		zap.String("config", *configPath),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	for name, rawURL := range cfg.Connections {
		if err := connector.RegisterNamed(name, rawURL); err != nil {
			logger.Fatal("Failed to register named connection",
				zap.String("name", name), zap.Error(err))
		}
	}

	oauthConnector, err := buildOAuthConnector(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to configure OAuth connector", zap.Error(err))
	}

	store, err := buildStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to configure security context store", zap.Error(err))
	}

	resolver := connector.NewResolver(connector.Properties{
		connector.PropURL:      cfg.Connection.URL,
		connector.PropEndpoint: cfg.Connection.Endpoint,
		connector.PropUser:     cfg.Connection.Username,
		connector.PropPassword: cfg.Connection.Password,
	})
	apiConnector := api.NewConnector(resolver, api.WithLogger(logger))

	srv := gateway.NewServer(apiConnector, oauthConnector, store, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := httpserver.ServeAndWait(ctx, logger, httpServer, cfg.Shutdown.Timeout); err != nil {
		logger.Fatal("Gateway terminated", zap.Error(err))
	}
}

// buildOAuthConnector resolves the handshake credentials from the highest
// configured source: explicit endpoint/key/secret, then a connection URL,
// then a named connection.
func buildOAuthConnector(cfg *config.Config, logger *zap.Logger) (*oauth.Connector, error) {
	var info *oauth.ConnectionInfo
	switch {
	case cfg.OAuth.Endpoint != "" || cfg.OAuth.Key != "" || cfg.OAuth.Secret != "":
		info = &oauth.ConnectionInfo{
			Endpoint: cfg.OAuth.Endpoint,
			Key:      cfg.OAuth.Key,
			Secret:   cfg.OAuth.Secret,
		}
	case cfg.OAuth.URL != "":
		parsed, err := oauth.ParseConnectionInfo(cfg.OAuth.URL)
		if err != nil {
			return nil, err
		}
		info = parsed
	case cfg.OAuth.ConnectionName != "":
		parsed, err := oauth.LookupNamedConnectionInfo(cfg.OAuth.ConnectionName)
		if err != nil {
			return nil, err
		}
		info = parsed
	default:
		return nil, fmt.Errorf("no oauth credentials configured")
	}

	opts := []oauth.ConnectorOption{
		oauth.WithCallbackPath(cfg.OAuth.CallbackPath),
		oauth.WithSessionTTL(cfg.Session.TTL),
		oauth.WithLogger(logger),
	}
	if !cfg.OAuth.StoreUsername {
		opts = append(opts, oauth.WithoutUsernameStorage())
	}
	if cfg.OAuth.UserDataRetriever != "" {
		retriever, err := oauth.NewRetriever(cfg.OAuth.UserDataRetriever)
		if err != nil {
			return nil, err
		}
		opts = append(opts, oauth.WithUserDataRetriever(retriever))
	}
	if cfg.OAuth.VerifyIDToken {
		verifier := oauth.NewIDTokenVerifier(cfg.OAuth.JWKSURL, info.Endpoint, cfg.OAuth.Key)
		opts = append(opts, oauth.WithIDTokenVerifier(verifier))
	}

	return oauth.NewConnector(*info, opts...)
}

// buildStore selects the security context store from configuration.
func buildStore(cfg *config.Config, logger *zap.Logger) (security.Store, error) {
	switch cfg.Session.StorageMethod {
	case "redis":
		redisOpts, err := redis.ParseURL(cfg.Session.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid session.redis_url: %w", err)
		}
		return security.NewRedisStore(redis.NewClient(redisOpts), cfg.Session.CookieName, cfg.Session.TTL), nil
	case "memory":
		logger.Warn("Using in-memory security context store; sessions do not survive restarts")
		return security.NewMemoryStore(cfg.Session.CookieName, cfg.Session.TTL), nil
	default:
		return security.NewCookieStore(cfg.Session.CookieName, cfg.Session.KeyFile, cfg.Session.TTL)
	}
}
