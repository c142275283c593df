package discovery

import (
	"strings"
	"testing"
	"time"
)

func TestNewDiscovererDefaults(t *testing.T) {
	d := NewDiscoverer(Config{})

	if d.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", d.baseURL, DefaultBaseURL)
	}
	if d.pageLimit != DefaultPageLimit {
		t.Errorf("pageLimit = %d, want %d", d.pageLimit, DefaultPageLimit)
	}
	if d.navTimeout != 30*time.Second {
		t.Errorf("navTimeout = %v, want 30s", d.navTimeout)
	}
	if d.logger == nil {
		t.Error("logger should never be nil")
	}
}

func TestSearchURL(t *testing.T) {
	d := NewDiscoverer(Config{BaseURL: "http://example.test/ui"})

	got := d.SearchURL("human liver")
	if !strings.HasPrefix(got, "http://example.test/ui?view=datasets&search=") {
		t.Errorf("SearchURL() = %q, missing view/search parameters", got)
	}
	if !strings.Contains(got, "search=human+liver") {
		t.Errorf("SearchURL() = %q, keyword not escaped", got)
	}
}
