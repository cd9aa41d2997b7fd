package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func TestChecker_FetchesAndReportsUpdate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"v2.0.0"}`))
	}))
	defer server.Close()

	c := NewChecker(t.TempDir(), "1.0.0")
	c.Endpoint = server.URL

	info, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if !info.HasUpdate || info.Latest != "2.0.0" {
		t.Errorf("info = %+v", info)
	}
}

func TestChecker_NoUpdateWhenCurrentIsNewest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"1.0.0"}`))
	}))
	defer server.Close()

	c := NewChecker(t.TempDir(), "1.0.0")
	c.Endpoint = server.URL

	info, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if info.HasUpdate {
		t.Errorf("HasUpdate = true, want false for equal versions")
	}
}

func TestChecker_UsesCacheOnSecondCall(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"tag_name":"v1.5.0"}`))
	}))
	defer server.Close()

	dir := t.TempDir()
	c := NewChecker(dir, "1.0.0")
	c.Endpoint = server.URL
	c.CachePath = filepath.Join(dir, "cache.json")

	if _, err := c.Check(context.Background()); err != nil {
		t.Fatalf("first Check error: %v", err)
	}
	if _, err := c.Check(context.Background()); err != nil {
		t.Fatalf("second Check error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (second call should hit cache)", calls)
	}
}

func TestIsNewerVersion(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"1.2.0", "1.1.9", true},
		{"1.1.9", "1.2.0", false},
		{"2.0.0", "2.0.0", false},
		{"1.10.0", "1.9.0", true},
	}
	for _, tt := range tests {
		if got := isNewerVersion(tt.latest, tt.current); got != tt.want {
			t.Errorf("isNewerVersion(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
}
