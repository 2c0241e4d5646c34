package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/mark3labs/mcp-go/server"

	"github.com/fastmcp-me/toolkit-mcp-server/internal/cache"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/common"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/ratelimit"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/toolkit"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/tools/generator"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/tools/geo"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/tools/network"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/tools/security"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/tools/system"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/tools/timeutil"
)

func main() {
	stdio := flag.Bool("stdio", false, "Use stdio transport (for desktop MCP clients)")
	configFile := flag.String("config", "toolkit-mcp.toml", "Path to config file")
	flag.Parse()

	cfg, err := common.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	common.LoadVersionFromFile()
	logger := common.NewLoggerFromConfig(cfg.Logging)

	// Rate limiter: per-category budgets from config, explicit lifecycle
	limits := make(map[string]ratelimit.Limit, len(cfg.RateLimit.Categories))
	for name, lc := range cfg.RateLimit.Categories {
		limits[name] = ratelimit.Limit{MaxRequests: lc.MaxRequests, Window: lc.GetWindow()}
	}
	limiter := ratelimit.New(limits, ratelimit.Limit{
		MaxRequests: cfg.RateLimit.Default.MaxRequests,
		Window:      cfg.RateLimit.Default.GetWindow(),
	})
	limiter.Start(cfg.RateLimit.GetSweepInterval())
	defer limiter.Stop()

	// Geolocation cache, pruned on a schedule
	geoCache := cache.New[geo.Location](cfg.Cache.GetGeoTTL())
	geoCache.Start(cfg.Cache.GetPruneInterval())
	defer geoCache.Stop()

	geoService := geo.NewService(&http.Client{Timeout: 10 * time.Second}, geoCache, geo.DefaultBaseURL, logger)

	// Merge category catalogs into one registry; a name collision here is a
	// build defect and aborts startup.
	kit := toolkit.NewKit()
	catalogs := [][]toolkit.Descriptor{
		system.Catalog(),
		network.Catalog(),
		geoService.Catalog(),
		timeutil.Catalog(),
		generator.Catalog(),
		security.Catalog(),
	}
	for _, catalog := range catalogs {
		if err := kit.Merge(catalog...); err != nil {
			logger.Error().Str("error", err.Error()).Msg("tool registration failed")
			fmt.Fprintf(os.Stderr, "tool registration failed: %v\n", err)
			os.Exit(1)
		}
	}

	dispatcher := toolkit.NewDispatcher(kit, limiter, logger,
		toolkit.WithCategoryRules([]toolkit.CategoryRule{
			{Prefix: "ping_", Category: network.Category},
			{Prefix: "traceroute_", Category: network.Category},
			{Prefix: "geolocate", Category: geo.Category},
		}))

	mcpServer := server.NewMCPServer(
		cfg.Server.Name,
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)
	dispatcher.Attach(mcpServer)

	logger.Info().
		Str("version", common.GetFullVersion()).
		Int("tools", kit.Len()).
		Bool("stdio", *stdio).
		Msg("toolkit server starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *stdio {
		// Stdio transport — reads stdin, writes stdout; exits when the
		// context is cancelled or stdin closes
		srv := server.NewStdioServer(mcpServer)
		if err := srv.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "stdio server error: %v\n", err)
			os.Exit(1)
		}
		logger.Info().Msg("toolkit server stopped")
		return
	}

	// Streamable HTTP transport — listens on configured port
	httpServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithStateLess(true),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start(":" + cfg.Server.Port)
	}()
	logger.Info().Str("port", cfg.Server.Port).Msg("streamable HTTP listening")

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(os.Stderr, "http server error: %v\n", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Str("error", err.Error()).Msg("http shutdown")
		}
		logger.Info().Msg("toolkit server stopped")
	}
}
