package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyIterations = 64 * 1024
	keySize       = 32
)

// keySalt is fixed; uniqueness comes from the per-deployment key file.
var keySalt = []byte("stratus-security-context-store")

// CookieStore keeps the whole SecurityContext in an AES-GCM encrypted
// browser cookie. The encryption key is derived from a key file on disk so
// that all gateway instances sharing the file can read each other's cookies.
type CookieStore struct {
	name string
	ttl  time.Duration
	aead cipher.AEAD
}

// NewCookieStore creates a cookie store. When keyFile does not exist it is
// created with fresh random key material (mode 0600). An empty keyFile
// produces an ephemeral key: cookies then survive only as long as the
// process.
func NewCookieStore(name, keyFile string, ttl time.Duration) (*CookieStore, error) {
	material, err := keyMaterial(keyFile)
	if err != nil {
		return nil, err
	}

	key := pbkdf2.Key(material, keySalt, keyIterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise cookie cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise cookie cipher: %w", err)
	}

	return &CookieStore{name: name, ttl: ttl, aead: aead}, nil
}

func keyMaterial(keyFile string) ([]byte, error) {
	if keyFile == "" {
		material := make([]byte, keySize)
		if _, err := rand.Read(material); err != nil {
			return nil, fmt.Errorf("failed to generate cookie key: %w", err)
		}
		return material, nil
	}

	if raw, err := os.ReadFile(keyFile); err == nil {
		if len(raw) == 0 {
			return nil, fmt.Errorf("cookie key file %s is empty", keyFile)
		}
		return raw, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read cookie key file: %w", err)
	}

	material := make([]byte, keySize)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("failed to generate cookie key: %w", err)
	}
	if err := os.WriteFile(keyFile, material, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write cookie key file: %w", err)
	}
	return material, nil
}

// Save implements Store.
func (s *CookieStore) Save(w http.ResponseWriter, r *http.Request, sc *SecurityContext) error {
	raw, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to serialise security context: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, raw, nil)

	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    base64.RawURLEncoding.EncodeToString(sealed),
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Load implements Store. A cookie that fails to decrypt (key rotation, or
// tampering) is treated as absent rather than as an error, which re-enters
// the login flow.
func (s *CookieStore) Load(r *http.Request) (*SecurityContext, error) {
	cookie, err := r.Cookie(s.name)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	sealed, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil || len(sealed) < s.aead.NonceSize() {
		return nil, nil
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]

	raw, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, nil
	}

	var sc SecurityContext
	if err := json.Unmarshal(raw, &sc); err != nil {
		return nil, nil
	}
	return &sc, nil
}

// Clear implements Store.
func (s *CookieStore) Clear(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return nil
}
