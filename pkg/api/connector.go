package api

import (
	"context"

	"go.uber.org/zap"

	"github.com/stratushq/stratus-go-sdk/internal/metrics"
	"github.com/stratushq/stratus-go-sdk/pkg/connector"
)

// Connector resolves a configuration and opens connections with it. It is
// the entry point application code uses; the precedence rules live in the
// resolver, the wire mechanics in Connection.
type Connector struct {
	resolver *connector.Resolver
	opts     []Option
	logger   *zap.Logger
}

// NewConnector creates a service connector over the given resolver.
func NewConnector(res *connector.Resolver, opts ...Option) *Connector {
	s := applyOptions(opts)
	return &Connector{
		resolver: res,
		opts:     opts,
		logger:   s.logger,
	}
}

// Connect resolves the effective configuration for this attempt and opens a
// connection. Credential-bearing configurations without an explicit renewer
// get the default re-login renewer so expired sessions recover transparently.
func (sc *Connector) Connect(ctx context.Context) (*Connection, error) {
	cfg, source, err := sc.resolver.Resolve(ctx)
	if err != nil {
		metrics.ConnectionsTotal.WithLabelValues(string(source), "error").Inc()
		return nil, err
	}

	if cfg.SessionRenewer == nil && cfg.Username != "" && cfg.Password != "" {
		opts := sc.opts
		cfg.SessionRenewer = func(ctx context.Context, cfg *connector.Config) (string, error) {
			return RenewSession(ctx, cfg, opts...)
		}
	}

	conn, err := NewConnection(ctx, cfg, sc.opts...)
	if err != nil {
		metrics.ConnectionsTotal.WithLabelValues(string(source), "error").Inc()
		return nil, err
	}

	metrics.ConnectionsTotal.WithLabelValues(string(source), "success").Inc()
	sc.logger.Debug("platform connection established",
		zap.String("source", string(source)),
		zap.String("endpoint", cfg.Endpoint))
	return conn, nil
}
