package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

const (
	defaultUpdateEndpoint = "https://api.github.com/repos/claude-adapter/claude-adapter-go/releases/latest"
	updateCacheDuration   = 24 * time.Hour
)

// UpdateInfo reports the result of a version check (component I4).
type UpdateInfo struct {
	Current   string
	Latest    string
	HasUpdate bool
}

type updateCacheEntry struct {
	Version   string    `json:"version"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker performs a best-effort, cached check against a release endpoint.
// A Checker never blocks the gateway's startup: callers should use
// CheckInBackground rather than awaiting Check directly.
type Checker struct {
	Endpoint       string
	CachePath      string
	CurrentVersion string
	HTTPClient     *http.Client
}

// NewChecker builds a Checker caching under dataDir.
func NewChecker(dataDir, currentVersion string) *Checker {
	return &Checker{
		Endpoint:       defaultUpdateEndpoint,
		CachePath:      filepath.Join(dataDir, "update_cache.json"),
		CurrentVersion: currentVersion,
		HTTPClient:     &http.Client{Timeout: 3 * time.Second},
	}
}

// CheckInBackground runs Check in its own goroutine and logs the outcome.
// It swallows every error — a failed or slow update check must never
// affect request handling.
func (c *Checker) CheckInBackground(log logr.Logger) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		info, err := c.Check(ctx)
		if err != nil {
			log.V(1).Info("update check skipped", "reason", err.Error())
			return
		}
		if info.HasUpdate {
			log.Info("a newer claude-adapter-go release is available", "current", info.Current, "latest", info.Latest)
		}
	}()
}

// Check returns cached update info if the cache is still fresh, otherwise
// fetches the latest release tag and refreshes the cache.
func (c *Checker) Check(ctx context.Context) (*UpdateInfo, error) {
	if entry, ok := c.readCache(); ok {
		return &UpdateInfo{
			Current:   c.CurrentVersion,
			Latest:    entry.Version,
			HasUpdate: isNewerVersion(entry.Version, c.CurrentVersion),
		}, nil
	}

	latest, err := c.fetchLatest(ctx)
	if err != nil {
		return nil, err
	}
	c.writeCache(latest)

	return &UpdateInfo{
		Current:   c.CurrentVersion,
		Latest:    latest,
		HasUpdate: isNewerVersion(latest, c.CurrentVersion),
	}, nil
}

func (c *Checker) readCache() (updateCacheEntry, bool) {
	data, err := os.ReadFile(c.CachePath)
	if err != nil {
		return updateCacheEntry{}, false
	}
	var entry updateCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return updateCacheEntry{}, false
	}
	if time.Since(entry.CheckedAt) >= updateCacheDuration {
		return updateCacheEntry{}, false
	}
	return entry, true
}

func (c *Checker) writeCache(version string) {
	entry := updateCacheEntry{Version: version, CheckedAt: time.Now()}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.CachePath), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(c.CachePath, data, 0o644)
}

func (c *Checker) fetchLatest(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return strings.TrimPrefix(body.TagName, "v"), nil
}

// isNewerVersion compares two dotted version strings numerically,
// component by component. No pack dependency offers semver comparison,
// and the version shapes here are simple enough that stdlib suffices.
func isNewerVersion(latest, current string) bool {
	l := parseVersionParts(latest)
	c := parseVersionParts(current)
	for i := 0; i < len(l) || i < len(c); i++ {
		var lv, cv int
		if i < len(l) {
			lv = l[i]
		}
		if i < len(c) {
			cv = c[i]
		}
		if lv != cv {
			return lv > cv
		}
	}
	return false
}

func parseVersionParts(v string) []int {
	fields := strings.Split(v, ".")
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			break
		}
		parts = append(parts, n)
	}
	return parts
}
