package storage

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Deleter deletes a stored object by its storage key. Implementations report
// failures as false and never let them escape as panics or errors.
type Deleter interface {
	DeleteByKey(ctx context.Context, key string) bool
}

// HTTPDeleter deletes objects through the storage provider's REST API.
type HTTPDeleter struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTPDeleter creates a deleter against the given storage endpoint.
func NewHTTPDeleter(endpoint, token string, timeout time.Duration) *HTTPDeleter {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPDeleter{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

// DeleteByKey issues a DELETE for the object key. Any failure is logged and
// reported as false.
func (d *HTTPDeleter) DeleteByKey(ctx context.Context, key string) bool {
	reqURL := fmt.Sprintf("%s/%s", d.endpoint, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		log.Printf("blob delete: building request for %s failed: %v", key, err)
		return false
	}
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		log.Printf("blob delete: request for %s failed: %v", key, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("blob delete: %s returned status %d", key, resp.StatusCode)
		return false
	}
	return true
}

// Cleaner performs conditional blob cleanup: it resolves a locator's key and
// deletes the object unless it lives in the reserved defaults folder.
type Cleaner struct {
	deleter        Deleter
	defaultsFolder string
}

// NewCleaner creates a cleaner that spares objects under defaultsFolder.
func NewCleaner(deleter Deleter, defaultsFolder string) *Cleaner {
	if defaultsFolder == "" {
		defaultsFolder = "defaults"
	}
	return &Cleaner{deleter: deleter, defaultsFolder: defaultsFolder}
}

// IsDefault reports whether the locator points at a platform default asset.
// Unparseable locators are treated as defaults so they are never deleted.
func (c *Cleaner) IsDefault(rawURL string) bool {
	loc, err := ParseLocator(rawURL)
	if err != nil {
		return true
	}
	return loc.MainFolder == c.defaultsFolder
}

// Cleanup deletes the object behind rawURL unless it is a platform default.
// It reports whether a deletion succeeded; it never returns an error because
// cleanup is always a best-effort step.
func (c *Cleaner) Cleanup(ctx context.Context, rawURL string) bool {
	if rawURL == "" {
		return false
	}
	loc, err := ParseLocator(rawURL)
	if err != nil {
		log.Printf("blob cleanup: skipping unparseable locator %q: %v", rawURL, err)
		return false
	}
	if loc.MainFolder == c.defaultsFolder {
		return false
	}
	return c.deleter.DeleteByKey(ctx, loc.Key)
}
