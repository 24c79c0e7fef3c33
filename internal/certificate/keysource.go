package certificate

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// DiscoveryDoc is the payload served by the station's public-key discovery
// endpoint, GET /.well-known/station-keys (spec.md §4.4).
type DiscoveryDoc struct {
	PublicKeyPEM string `json:"publicKeyPem"`
	Algorithm    string `json:"algorithm"`
	Use          string `json:"use"`
	Issuer       string `json:"issuer"`
}

// CachedKeySource fetches the station's public key over HTTP and caches it
// in process, refreshing on a timer (default 3600s). Failure to fetch the
// key on the first call is fatal for request handling, per spec.md §4.4;
// failure on a background refresh merely logs and keeps the cached key.
type CachedKeySource struct {
	discoveryURL string
	httpClient   *http.Client
	refresh      time.Duration

	mu        sync.RWMutex
	key       *rsa.PublicKey
	fetchedAt time.Time

	onRefreshError func(error)
}

// NewCachedKeySource creates a CachedKeySource. refresh defaults to 1 hour
// when zero. onRefreshError, if non-nil, is invoked (typically to log) when
// a background refresh fails; the stale cached key remains in use.
func NewCachedKeySource(discoveryURL string, refresh time.Duration, onRefreshError func(error)) *CachedKeySource {
	if refresh <= 0 {
		refresh = time.Hour
	}
	return &CachedKeySource{
		discoveryURL:   discoveryURL,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		refresh:        refresh,
		onRefreshError: onRefreshError,
	}
}

// Prime performs the initial blocking fetch. Callers must call this once at
// startup; failure here is fatal (fail-closed, spec.md §4.4).
func (c *CachedKeySource) Prime(ctx context.Context) error {
	return c.fetch(ctx)
}

// PublicKey implements certificate.KeySource, returning the cached key.
func (c *CachedKeySource) PublicKey() (*rsa.PublicKey, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.key == nil {
		return nil, fmt.Errorf("station public key not yet loaded")
	}
	return c.key, nil
}

// Run starts the background refresh loop; it blocks until ctx is done.
func (c *CachedKeySource) Run(ctx context.Context) {
	ticker := time.NewTicker(c.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.fetch(ctx); err != nil && c.onRefreshError != nil {
				c.onRefreshError(err)
			}
		}
	}
}

func (c *CachedKeySource) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.discoveryURL, nil)
	if err != nil {
		return fmt.Errorf("build discovery request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch station public key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("station discovery endpoint returned %d", resp.StatusCode)
	}

	var doc DiscoveryDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode discovery doc: %w", err)
	}

	key, err := parsePublicKeyPEM(doc.PublicKeyPEM)
	if err != nil {
		return fmt.Errorf("parse discovered public key: %w", err)
	}

	c.mu.Lock()
	c.key = key
	c.fetchedAt = time.Now().UTC()
	c.mu.Unlock()
	return nil
}

func parsePublicKeyPEM(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse SPKI public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("discovered key is not RSA")
	}
	return rsaPub, nil
}
