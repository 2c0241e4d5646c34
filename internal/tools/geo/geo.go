// Package geo provides IP geolocation backed by the ip-api.com JSON endpoint.
// Lookups are cached with a short TTL because the upstream free tier allows
// 45 requests per rolling minute; the rate-limit category "geo" mirrors that
// budget.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fastmcp-me/toolkit-mcp-server/internal/cache"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/common"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/toolkit"
)

// Category is the rate-limit bucket for external geolocation lookups.
const Category = "geo"

// DefaultBaseURL is the ip-api.com endpoint root.
const DefaultBaseURL = "http://ip-api.com"

// Location is one geolocation result as returned by the upstream API.
type Location struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Zip        string  `json:"zip"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Timezone   string  `json:"timezone"`
	ISP        string  `json:"isp"`
	Org        string  `json:"org"`
	Query      string  `json:"query"`
}

// Service performs geolocation lookups through a TTL cache.
type Service struct {
	client  *http.Client
	cache   *cache.Cache[Location]
	baseURL string
	logger  *common.Logger
}

// NewService creates a geolocation service. cache and logger are constructed
// by the caller; the service never owns their lifecycle.
func NewService(client *http.Client, c *cache.Cache[Location], baseURL string, logger *common.Logger) *Service {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{client: client, cache: c, baseURL: baseURL, logger: logger}
}

// Catalog returns the geolocation tool descriptors. The lookup carries the
// "geo" category; the cache reset is local and uses the default budget.
func (s *Service) Catalog() []toolkit.Descriptor {
	return []toolkit.Descriptor{
		{Tool: createGeolocateTool(), Category: Category, Handler: s.handleGeolocate()},
		{Tool: createClearGeoCacheTool(), Handler: s.handleClearGeoCache()},
	}
}

func createGeolocateTool() mcp.Tool {
	return mcp.NewTool("geolocate",
		mcp.WithDescription("Look up the geographic location of an IP address or hostname. Omit the query to geolocate the server's public address. Results are cached for a few minutes."),
		mcp.WithString("query", mcp.Description("IP address or hostname (e.g., '8.8.8.8', 'example.com'). Empty for the requester's own address.")),
	)
}

func createClearGeoCacheTool() mcp.Tool {
	return mcp.NewTool("clear_geo_cache",
		mcp.WithDescription("Operator reset: drop all cached geolocation lookups."),
	)
}

func (s *Service) handleGeolocate() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := strings.TrimSpace(request.GetString("query", ""))

		key := strings.ToLower(query)
		if key == "" {
			key = "self"
		}

		if loc, ok := s.cache.Get(key); ok {
			return mcp.NewToolResultText(formatLocation(&loc, "cache")), nil
		}

		loc, err := s.Lookup(ctx, query)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Geolocation lookup failed: %v", err)), nil
		}
		s.cache.Set(key, *loc)

		return mcp.NewToolResultText(formatLocation(loc, "live")), nil
	}
}

func (s *Service) handleClearGeoCache() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n := s.cache.Clear()
		s.logger.Info().Int("entries", n).Msg("geolocation cache cleared")
		return mcp.NewToolResultText(fmt.Sprintf("Geolocation cache cleared (%d entries removed).", n)), nil
	}
}

// Lookup fetches a location from the upstream API, bypassing the cache.
func (s *Service) Lookup(ctx context.Context, query string) (*Location, error) {
	endpoint := s.baseURL + "/json/"
	if query != "" {
		endpoint += url.PathEscape(query)
	}
	endpoint += "?fields=status,message,country,regionName,city,zip,lat,lon,timezone,isp,org,query"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	var loc Location
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return nil, fmt.Errorf("malformed upstream response: %w", err)
	}
	if loc.Status != "success" {
		if loc.Message != "" {
			return nil, fmt.Errorf("lookup rejected: %s", loc.Message)
		}
		return nil, fmt.Errorf("lookup rejected with status %q", loc.Status)
	}

	return &loc, nil
}

func formatLocation(loc *Location, source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Geolocation: %s\n\n", loc.Query)
	if loc.City != "" || loc.RegionName != "" {
		fmt.Fprintf(&b, "- **Location**: %s, %s %s\n", loc.City, loc.RegionName, loc.Zip)
	}
	fmt.Fprintf(&b, "- **Country**: %s\n", loc.Country)
	fmt.Fprintf(&b, "- **Coordinates**: %.4f, %.4f\n", loc.Lat, loc.Lon)
	if loc.Timezone != "" {
		fmt.Fprintf(&b, "- **Timezone**: %s\n", loc.Timezone)
	}
	if loc.ISP != "" {
		fmt.Fprintf(&b, "- **ISP**: %s\n", loc.ISP)
	}
	if loc.Org != "" && loc.Org != loc.ISP {
		fmt.Fprintf(&b, "- **Org**: %s\n", loc.Org)
	}
	fmt.Fprintf(&b, "- **Source**: %s\n", source)
	return b.String()
}
