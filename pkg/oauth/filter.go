package oauth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/stratushq/stratus-go-sdk/internal/metrics"
	"github.com/stratushq/stratus-go-sdk/pkg/connector"
	"github.com/stratushq/stratus-go-sdk/pkg/oauth/security"
)

// visitedKey marks a request already processed by the filter, so an internal
// re-dispatch of the same request passes straight through.
type visitedKey struct{}

// sessionExpiredSignal aborts the in-flight request when the platform
// reports an expired session during handler execution. The filter's renewer
// raises it and the filter recovers it; it never escapes the filter.
type sessionExpiredSignal struct{}

// Filter gates application routes behind platform authentication. Requests
// without a stored SecurityContext are redirected into the OAuth handshake;
// authenticated requests run with an ambient connector configuration bound
// to the request context and released with it.
type Filter struct {
	oauth  *Connector
	store  security.Store
	logger *zap.Logger
}

// NewFilter creates the authentication filter.
func NewFilter(oc *Connector, store security.Store, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{oauth: oc, store: store, logger: logger}
}

// Handler is the chi middleware.
func (f *Filter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Value(visitedKey{}) != nil {
			next.ServeHTTP(w, r)
			return
		}

		if r.URL.Path == f.oauth.CallbackPath() {
			f.handleCallback(w, r)
			return
		}

		sc, err := f.store.Load(r)
		if err != nil {
			f.logger.Warn("failed to load security context", zap.Error(err))
			sc = nil
		}
		if !sc.Valid() {
			f.redirectToLogin(w, r)
			return
		}

		// Refresh the stored context so its lifetime follows activity.
		if err := f.store.Save(w, r, sc); err != nil {
			f.logger.Warn("failed to refresh security context", zap.Error(err))
		}

		cfg := &connector.Config{
			Endpoint:       sc.Endpoint,
			SessionID:      sc.SessionID,
			SessionRenewer: expireSignalRenewer,
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, visitedKey{}, true)
		ctx = connector.WithConfig(ctx, cfg)
		ctx = WithPrincipal(ctx, &Principal{
			UserName:  sc.UserName,
			Role:      sc.Role,
			SessionID: sc.SessionID,
		})

		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if _, expired := v.(sessionExpiredSignal); !expired {
				panic(v)
			}
			metrics.OAuthHandshakesTotal.WithLabelValues("session", "expired").Inc()
			if err := f.store.Clear(w, r); err != nil {
				f.logger.Warn("failed to discard expired security context", zap.Error(err))
			}
			f.redirectToLogin(w, r)
		}()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// handleCallback completes the handshake: exchanges the authorization code,
// persists the resulting context and resumes the originally requested URL.
func (f *Filter) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		metrics.OAuthHandshakesTotal.WithLabelValues("callback", "error").Inc()
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	sc, err := f.oauth.ExchangeCode(r.Context(), code, f.oauth.RedirectURI(r))
	if err != nil {
		metrics.OAuthHandshakesTotal.WithLabelValues("callback", "error").Inc()
		f.logger.Warn("oauth callback failed", zap.Error(err))
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	if err := f.store.Save(w, r, sc); err != nil {
		metrics.OAuthHandshakesTotal.WithLabelValues("callback", "error").Inc()
		f.logger.Error("failed to persist security context", zap.Error(err))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	metrics.OAuthHandshakesTotal.WithLabelValues("callback", "success").Inc()
	http.Redirect(w, r, resumeTarget(r.URL.Query().Get("state")), http.StatusFound)
}

func (f *Filter) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	metrics.OAuthHandshakesTotal.WithLabelValues("login", "redirect").Inc()
	http.Redirect(w, r, f.oauth.LoginRedirectURL(r), http.StatusFound)
}

// resumeTarget sanitises the state parameter: only site-relative targets are
// honoured, anything else resumes at the root.
func resumeTarget(state string) string {
	if state == "" || !strings.HasPrefix(state, "/") || strings.HasPrefix(state, "//") {
		return "/"
	}
	return state
}

// expireSignalRenewer is installed on filter-issued configurations. The
// filter cannot renew a browser session server-side, so expiration aborts
// the request and re-enters the login flow.
func expireSignalRenewer(context.Context, *connector.Config) (string, error) {
	panic(sessionExpiredSignal{})
}
