// Package timeutil provides timezone tools built on the Go time package. The
// server binary embeds the tzdata database so zone lookups work on hosts
// without a system zoneinfo directory.
package timeutil

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fastmcp-me/toolkit-mcp-server/internal/common"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/toolkit"
)

// Accepted timestamp layouts for convert_timezone, tried in order.
var parseLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Catalog returns the timezone tool descriptors. Timezone math is local and
// uses the default rate-limit category.
func Catalog() []toolkit.Descriptor {
	return []toolkit.Descriptor{
		{Tool: createCurrentTimeTool(), Handler: handleCurrentTime()},
		{Tool: createConvertTimezoneTool(), Handler: handleConvertTimezone()},
		{Tool: createListTimezonesTool(), Handler: handleListTimezones()},
	}
}

func createCurrentTimeTool() mcp.Tool {
	return mcp.NewTool("get_current_time",
		mcp.WithDescription("Get the current time, optionally in a specific IANA timezone."),
		mcp.WithString("timezone", mcp.Description("IANA timezone name (e.g., 'Australia/Sydney', 'America/New_York'). Default: UTC.")),
	)
}

func createConvertTimezoneTool() mcp.Tool {
	return mcp.NewTool("convert_timezone",
		mcp.WithDescription("Convert a timestamp from one IANA timezone to another."),
		mcp.WithString("time", mcp.Required(), mcp.Description("Timestamp to convert (e.g., '2026-08-23 14:30:00' or RFC3339)")),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source IANA timezone (e.g., 'UTC', 'Europe/London')")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target IANA timezone (e.g., 'Asia/Tokyo')")),
	)
}

func createListTimezonesTool() mcp.Tool {
	return mcp.NewTool("list_timezones",
		mcp.WithDescription("List IANA timezone names with their current UTC offsets."),
		mcp.WithString("filter", mcp.Description("Case-insensitive substring filter (e.g., 'australia')")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default: 50)")),
	)
}

func handleCurrentTime() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		zone := request.GetString("timezone", "UTC")
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error: unknown timezone %q", zone)), nil
		}

		now := time.Now().In(loc)
		abbrev, offset := now.Zone()

		var b strings.Builder
		fmt.Fprintf(&b, "# Current Time: %s\n\n", loc)
		fmt.Fprintf(&b, "- **Local**: %s\n", now.Format("Monday, 2 January 2006 15:04:05"))
		fmt.Fprintf(&b, "- **RFC3339**: %s\n", now.Format(time.RFC3339))
		fmt.Fprintf(&b, "- **Zone**: %s (%s)\n", abbrev, common.FormatOffset(offset))
		fmt.Fprintf(&b, "- **Unix**: %d\n", now.Unix())
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleConvertTimezone() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString("time")
		if err != nil || raw == "" {
			return mcp.NewToolResultError("Error: time parameter is required"), nil
		}
		fromZone, err := request.RequireString("from")
		if err != nil || fromZone == "" {
			return mcp.NewToolResultError("Error: from parameter is required"), nil
		}
		toZone, err := request.RequireString("to")
		if err != nil || toZone == "" {
			return mcp.NewToolResultError("Error: to parameter is required"), nil
		}

		fromLoc, err := time.LoadLocation(fromZone)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error: unknown timezone %q", fromZone)), nil
		}
		toLoc, err := time.LoadLocation(toZone)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error: unknown timezone %q", toZone)), nil
		}

		parsed, err := parseInZone(raw, fromLoc)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error: could not parse time %q (use RFC3339 or '2006-01-02 15:04:05')", raw)), nil
		}

		converted := parsed.In(toLoc)
		var b strings.Builder
		b.WriteString("# Timezone Conversion\n\n")
		fmt.Fprintf(&b, "- **From**: %s (%s)\n", parsed.Format("2006-01-02 15:04:05 MST"), fromLoc)
		fmt.Fprintf(&b, "- **To**: %s (%s)\n", converted.Format("2006-01-02 15:04:05 MST"), toLoc)
		_, fromOff := parsed.Zone()
		_, toOff := converted.Zone()
		fmt.Fprintf(&b, "- **Offset change**: %s -> %s\n", common.FormatOffset(fromOff), common.FormatOffset(toOff))
		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleListTimezones() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := strings.ToLower(request.GetString("filter", ""))
		limit := request.GetInt("limit", 50)
		if limit < 1 {
			limit = 50
		}

		now := time.Now()
		var b strings.Builder
		b.WriteString("# Timezones\n\n")
		matched := 0
		for _, name := range zoneNames {
			if filter != "" && !strings.Contains(strings.ToLower(name), filter) {
				continue
			}
			matched++
			if matched > limit {
				fmt.Fprintf(&b, "\n...truncated at %d results. Narrow the filter for more.\n", limit)
				break
			}
			loc, err := time.LoadLocation(name)
			if err != nil {
				continue
			}
			_, offset := now.In(loc).Zone()
			fmt.Fprintf(&b, "- %s (%s)\n", name, common.FormatOffset(offset))
		}
		if matched == 0 {
			fmt.Fprintf(&b, "No zones match %q.\n", filter)
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}

// parseInZone tries the accepted layouts, interpreting zone-less timestamps
// in the given location.
func parseInZone(raw string, loc *time.Location) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}
