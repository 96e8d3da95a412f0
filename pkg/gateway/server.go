// Package gateway assembles the authenticated HTTP surface: the OAuth filter
// in front of application routes that talk to the platform through the
// ambient request-scoped configuration.
package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/stratushq/stratus-go-sdk/pkg/api"
	apperrors "github.com/stratushq/stratus-go-sdk/pkg/app/errors"
	apphttp "github.com/stratushq/stratus-go-sdk/pkg/app/http"
	"github.com/stratushq/stratus-go-sdk/pkg/oauth"
	"github.com/stratushq/stratus-go-sdk/pkg/oauth/security"
)

// Server carries the gateway's route dependencies.
type Server struct {
	connector *api.Connector
	filter    *oauth.Filter
	logger    *zap.Logger
}

// NewServer wires the gateway routes.
func NewServer(ac *api.Connector, oc *oauth.Connector, store security.Store, logger *zap.Logger) *Server {
	return &Server{
		connector: ac,
		filter:    oauth.NewFilter(oc, store, logger),
		logger:    logger,
	}
}

// Router builds the HTTP handler. Health and metrics stay outside the
// authentication filter.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.filter.Handler)
		r.Get("/whoami", apphttp.HandleError(s.whoami))
		r.Get("/query", apphttp.HandleError(s.query))
	})

	return r
}

// whoami reports the authenticated principal.
func (s *Server) whoami(w http.ResponseWriter, r *http.Request) error {
	p := oauth.PrincipalFromContext(r.Context())
	if p.SessionID == "" {
		return apperrors.UnAuthorizedError(nil, "no authenticated principal")
	}
	return writeJSON(w, map[string]string{
		"userName": p.UserName,
		"role":     p.Role,
	})
}

// query proxies a read to the platform using the configuration the filter
// bound to the request context.
func (s *Server) query(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query().Get("q")
	if q == "" {
		return apperrors.BadRequestError(nil, "missing query parameter q")
	}

	conn, err := s.connector.Connect(r.Context())
	if err != nil {
		return err
	}
	res, err := conn.Query(r.Context(), q)
	if err != nil {
		return err
	}
	return writeJSON(w, res)
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}
