package oauth

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/stratushq/stratus-go-sdk/pkg/api"
	"github.com/stratushq/stratus-go-sdk/pkg/connector"
	"github.com/stratushq/stratus-go-sdk/pkg/oauth/security"
)

// UserDataRetriever fetches user data for a freshly authenticated session.
// Implementations are registered under a name and selected by configuration;
// applications with bespoke needs register their own at startup.
type UserDataRetriever interface {
	Retrieve(ctx context.Context, sc *security.SecurityContext) (*api.UserInfo, error)
}

var (
	retrieverMu sync.RWMutex
	retrievers  = map[string]func() UserDataRetriever{}
)

// RegisterRetriever registers a retriever factory under a name. Later
// registrations with the same name win, allowing applications to replace the
// built-in retrievers.
func RegisterRetriever(name string, factory func() UserDataRetriever) {
	retrieverMu.Lock()
	retrievers[name] = factory
	retrieverMu.Unlock()
}

// NewRetriever instantiates the retriever registered under name.
func NewRetriever(name string) (UserDataRetriever, error) {
	retrieverMu.RLock()
	factory, ok := retrievers[name]
	retrieverMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no user data retriever registered as %q (have %v)", name, registeredRetrievers())
	}
	return factory(), nil
}

func registeredRetrievers() []string {
	retrieverMu.RLock()
	defer retrieverMu.RUnlock()
	names := make([]string, 0, len(retrievers))
	for name := range retrievers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IdentityRetriever is the default retriever: it opens a connection with the
// fresh session and asks the platform identity endpoint who the user is.
type IdentityRetriever struct {
	// Options are passed to the API connection (test hooks, logging).
	Options []api.Option
}

// Retrieve implements UserDataRetriever.
func (ir *IdentityRetriever) Retrieve(ctx context.Context, sc *security.SecurityContext) (*api.UserInfo, error) {
	conn, err := api.NewConnection(ctx, &connector.Config{
		Endpoint:  sc.Endpoint,
		SessionID: sc.SessionID,
	}, ir.Options...)
	if err != nil {
		return nil, err
	}
	return conn.UserInfo(ctx)
}

func init() {
	RegisterRetriever("identity", func() UserDataRetriever { return &IdentityRetriever{} })
}
