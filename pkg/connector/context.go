package connector

import "context"

// The ambient configuration slot. A request-scoped layer (the OAuth filter, a
// test harness) binds a just-obtained configuration on the context so that
// call sites below it need not thread one through APIs they do not control.
// Because the binding lives on the context it dies with the request on every
// exit path; nothing is shared across requests or goroutines.

type configKey struct{}

// WithConfig binds cfg for all descendants of the returned context,
// overwriting any binding inherited from ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// ClearConfig masks any configuration binding inherited from ctx. Descendants
// of the returned context resolve as if no binding existed.
func ClearConfig(ctx context.Context) context.Context {
	return context.WithValue(ctx, configKey{}, (*Config)(nil))
}

// ConfigFromContext retrieves the bound configuration, if any.
func ConfigFromContext(ctx context.Context) (*Config, bool) {
	v := ctx.Value(configKey{})
	if v == nil {
		return nil, false
	}
	cfg, ok := v.(*Config)
	if !ok || cfg == nil {
		return nil, false
	}
	return cfg, true
}
