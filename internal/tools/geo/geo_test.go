package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fastmcp-me/toolkit-mcp-server/internal/cache"
)

func geolocateRequest(query string) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = "geolocate"
	if query != "" {
		req.Params.Arguments = map[string]any{"query": query}
	}
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected result content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return tc.Text
}

func fakeUpstream(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		if !strings.HasPrefix(r.URL.Path, "/json/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "success",
			"country": "United States",
			"regionName": "Virginia",
			"city": "Ashburn",
			"zip": "20149",
			"lat": 39.03,
			"lon": -77.5,
			"timezone": "America/New_York",
			"isp": "Google LLC",
			"org": "Google Public DNS",
			"query": "8.8.8.8"
		}`))
	}))
}

func TestGeolocateSecondCallServedFromCache(t *testing.T) {
	hits := 0
	upstream := fakeUpstream(t, &hits)
	defer upstream.Close()

	c := cache.New[Location](time.Minute)
	svc := NewService(upstream.Client(), c, upstream.URL, nil)
	handler := svc.handleGeolocate()

	first, err := handler(context.Background(), geolocateRequest("8.8.8.8"))
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if text := resultText(t, first); !strings.Contains(text, "**Source**: live") {
		t.Errorf("first call should be live, got:\n%s", text)
	}

	second, err := handler(context.Background(), geolocateRequest("8.8.8.8"))
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if text := resultText(t, second); !strings.Contains(text, "**Source**: cache") {
		t.Errorf("second call should come from cache, got:\n%s", text)
	}

	if hits != 1 {
		t.Errorf("expected exactly 1 upstream fetch, got %d", hits)
	}
}

func TestGeolocateCacheKeyIsCaseInsensitive(t *testing.T) {
	hits := 0
	upstream := fakeUpstream(t, &hits)
	defer upstream.Close()

	c := cache.New[Location](time.Minute)
	svc := NewService(upstream.Client(), c, upstream.URL, nil)
	handler := svc.handleGeolocate()

	if _, err := handler(context.Background(), geolocateRequest("DNS.Google")); err != nil {
		t.Fatal(err)
	}
	if _, err := handler(context.Background(), geolocateRequest("dns.google")); err != nil {
		t.Fatal(err)
	}

	if hits != 1 {
		t.Errorf("case variants of the same query should share a cache entry, got %d fetches", hits)
	}
}

func TestGeolocateSelfWhenQueryOmitted(t *testing.T) {
	var path string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"status":"success","country":"Australia","query":"203.0.113.7"}`))
	}))
	defer upstream.Close()

	c := cache.New[Location](time.Minute)
	svc := NewService(upstream.Client(), c, upstream.URL, nil)

	result, err := svc.handleGeolocate()(context.Background(), geolocateRequest(""))
	if err != nil {
		t.Fatal(err)
	}
	if path != "/json/" {
		t.Errorf("self lookup should hit /json/ with no query, got %s", path)
	}
	if text := resultText(t, result); !strings.Contains(text, "203.0.113.7") {
		t.Errorf("expected the resolved address in the output, got:\n%s", text)
	}

	// Self lookups cache under their own key
	if _, ok := c.Get("self"); !ok {
		t.Error("self lookup should be cached under the 'self' key")
	}
}

func TestGeolocateUpstreamRejection(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail","message":"invalid query","query":"not-an-ip"}`))
	}))
	defer upstream.Close()

	c := cache.New[Location](time.Minute)
	svc := NewService(upstream.Client(), c, upstream.URL, nil)

	result, err := svc.handleGeolocate()(context.Background(), geolocateRequest("not-an-ip"))
	if err != nil {
		t.Fatalf("rejections should be tool errors, not Go errors: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result")
	}
	if text := resultText(t, result); !strings.Contains(text, "invalid query") {
		t.Errorf("expected the upstream message in the error, got: %s", text)
	}
	if c.Len() != 0 {
		t.Error("failed lookups must not be cached")
	}
}

func TestGeolocateUpstreamStatusCode(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	svc := NewService(upstream.Client(), cache.New[Location](time.Minute), upstream.URL, nil)
	if _, err := svc.Lookup(context.Background(), "8.8.8.8"); err == nil {
		t.Fatal("expected an error for a non-200 upstream response")
	}
}

func TestClearGeoCache(t *testing.T) {
	c := cache.New[Location](time.Minute)
	c.Set("8.8.8.8", Location{Query: "8.8.8.8"})
	c.Set("1.1.1.1", Location{Query: "1.1.1.1"})

	svc := NewService(nil, c, "", nil)
	result, err := svc.handleClearGeoCache()(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, result); !strings.Contains(text, "2 entries removed") {
		t.Errorf("expected removal count in output, got: %s", text)
	}
	if c.Len() != 0 {
		t.Errorf("cache should be empty after clear, has %d entries", c.Len())
	}
}

func TestLookupExpiredCacheRefetches(t *testing.T) {
	hits := 0
	upstream := fakeUpstream(t, &hits)
	defer upstream.Close()

	c := cache.New[Location](20 * time.Millisecond)
	svc := NewService(upstream.Client(), c, upstream.URL, nil)
	handler := svc.handleGeolocate()

	if _, err := handler(context.Background(), geolocateRequest("8.8.8.8")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(40 * time.Millisecond)
	result, err := handler(context.Background(), geolocateRequest("8.8.8.8"))
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, result); !strings.Contains(text, "**Source**: live") {
		t.Errorf("expired entry should trigger a live fetch, got:\n%s", text)
	}
	if hits != 2 {
		t.Errorf("expected 2 upstream fetches across the TTL boundary, got %d", hits)
	}
}
