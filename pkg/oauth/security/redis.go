package security

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "stratus:security-context:"

// RedisStore keeps the SecurityContext server-side in Redis; the browser
// only carries an opaque session key. Use this over CookieStore when the
// context must be revocable centrally or too large for a cookie.
type RedisStore struct {
	client *redis.Client
	name   string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. The cookie name is shared with
// the other stores so deployments can switch storage methods without a
// client-visible change.
func NewRedisStore(client *redis.Client, name string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, name: name, ttl: ttl}
}

// Save implements Store.
func (s *RedisStore) Save(w http.ResponseWriter, r *http.Request, sc *SecurityContext) error {
	key := s.sessionKey(r)
	if key == "" {
		key = uuid.NewString()
	}

	raw, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to serialise security context: %w", err)
	}
	if err := s.client.Set(r.Context(), redisKeyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store security context: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    key,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(r *http.Request) (*SecurityContext, error) {
	key := s.sessionKey(r)
	if key == "" {
		return nil, nil
	}

	raw, err := s.client.Get(r.Context(), redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load security context: %w", err)
	}

	var sc SecurityContext
	if err := json.Unmarshal(raw, &sc); err != nil {
		return nil, nil
	}
	return &sc, nil
}

// Clear implements Store.
func (s *RedisStore) Clear(w http.ResponseWriter, r *http.Request) error {
	if key := s.sessionKey(r); key != "" {
		if err := s.client.Del(r.Context(), redisKeyPrefix+key).Err(); err != nil {
			return fmt.Errorf("failed to delete security context: %w", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return nil
}

func (s *RedisStore) sessionKey(r *http.Request) string {
	cookie, err := r.Cookie(s.name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
