// Package network provides network diagnostic tools: ping, traceroute, port
// probing, and DNS lookups. Ping and traceroute shell out to the OS commands
// and stream progress per output line.
package network

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fastmcp-me/toolkit-mcp-server/internal/toolkit"
)

// Category is the shared rate-limit bucket for all network diagnostics.
const Category = "network"

// Catalog returns the network tool descriptors.
func Catalog() []toolkit.Descriptor {
	return []toolkit.Descriptor{
		{Tool: createPingTool(), Category: Category, Handler: handlePing()},
		{Tool: createTracerouteTool(), Category: Category, Handler: handleTraceroute()},
		{Tool: createCheckPortTool(), Category: Category, Handler: handleCheckPort()},
		{Tool: createDNSLookupTool(), Category: Category, Handler: handleDNSLookup()},
	}
}

func createPingTool() mcp.Tool {
	return mcp.NewTool("ping_host",
		mcp.WithDescription("Ping a host with ICMP echo requests and return the round-trip statistics."),
		mcp.WithString("host", mcp.Required(), mcp.Description("Hostname or IP address to ping (e.g., 'example.com', '1.1.1.1')")),
		mcp.WithNumber("count", mcp.Description("Number of echo requests, 1-10 (default: 4)")),
	)
}

func createTracerouteTool() mcp.Tool {
	return mcp.NewTool("traceroute_host",
		mcp.WithDescription("Trace the network path to a host, reporting each hop as it is discovered."),
		mcp.WithString("host", mcp.Required(), mcp.Description("Hostname or IP address to trace")),
		mcp.WithNumber("max_hops", mcp.Description("Maximum hops, 1-64 (default: 30)")),
	)
}

func createCheckPortTool() mcp.Tool {
	return mcp.NewTool("check_port",
		mcp.WithDescription("Check whether a TCP port on a host accepts connections."),
		mcp.WithString("host", mcp.Required(), mcp.Description("Hostname or IP address")),
		mcp.WithNumber("port", mcp.Required(), mcp.Description("TCP port number, 1-65535")),
		mcp.WithString("timeout", mcp.Description("Dial timeout as a Go duration (default: '5s')")),
	)
}

func createDNSLookupTool() mcp.Tool {
	return mcp.NewTool("dns_lookup",
		mcp.WithDescription("Resolve DNS records for a domain."),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Domain name to resolve (e.g., 'example.com')")),
		mcp.WithString("record_type", mcp.Description("Record type: A, CNAME, MX, NS, TXT (default: A)")),
	)
}

func handlePing() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		host, err := request.RequireString("host")
		if err != nil || host == "" {
			return mcp.NewToolResultError("Error: host parameter is required"), nil
		}
		count := clamp(request.GetInt("count", 4), 1, 10)

		var args []string
		if runtime.GOOS == "windows" {
			args = []string{"-n", fmt.Sprint(count), host}
		} else {
			args = []string{"-c", fmt.Sprint(count), host}
		}

		rep := toolkit.ReporterFrom(ctx)
		if rep != nil {
			rep.SetTotal(float64(count))
		}

		output, err := streamCommand(ctx, "ping", args, func(line string) {
			if rep != nil && (strings.Contains(line, "ttl=") || strings.Contains(line, "TTL=")) {
				rep.Report(ctx, 1, "")
			}
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Ping failed: %v\n%s", err, output)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("# Ping %s\n\n```\n%s```\n", host, output)), nil
	}
}

func handleTraceroute() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		host, err := request.RequireString("host")
		if err != nil || host == "" {
			return mcp.NewToolResultError("Error: host parameter is required"), nil
		}
		maxHops := clamp(request.GetInt("max_hops", 30), 1, 64)

		command := "traceroute"
		args := []string{"-m", fmt.Sprint(maxHops), host}
		if runtime.GOOS == "windows" {
			command = "tracert"
			args = []string{"-h", fmt.Sprint(maxHops), host}
		}

		rep := toolkit.ReporterFrom(ctx)
		if rep != nil {
			rep.SetTotal(float64(maxHops))
		}

		hop := 0
		output, err := streamCommand(ctx, command, args, func(line string) {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || !strings.ContainsAny(trimmed[:1], "0123456789") {
				return
			}
			hop++
			if rep != nil {
				rep.Report(ctx, 1, fmt.Sprintf("hop %d: %s", hop, trimmed))
			}
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Traceroute failed: %v\n%s", err, output)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("# Traceroute to %s\n\n```\n%s```\n", host, output)), nil
	}
}

func handleCheckPort() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		host, err := request.RequireString("host")
		if err != nil || host == "" {
			return mcp.NewToolResultError("Error: host parameter is required"), nil
		}
		port := request.GetInt("port", 0)
		if port < 1 || port > 65535 {
			return mcp.NewToolResultError("Error: port must be between 1 and 65535"), nil
		}

		timeout, err := time.ParseDuration(request.GetString("timeout", "5s"))
		if err != nil || timeout <= 0 {
			timeout = 5 * time.Second
		}

		addr := net.JoinHostPort(host, fmt.Sprint(port))
		start := time.Now()
		conn, err := (&net.Dialer{Timeout: timeout}).DialContext(ctx, "tcp", addr)
		elapsed := time.Since(start)
		if err != nil {
			return mcp.NewToolResultText(fmt.Sprintf(
				"# Port Check\n\n- **Target**: %s\n- **Status**: closed or filtered\n- **Detail**: %v\n", addr, err)), nil
		}
		conn.Close()

		return mcp.NewToolResultText(fmt.Sprintf(
			"# Port Check\n\n- **Target**: %s\n- **Status**: open\n- **Connect time**: %s\n", addr, elapsed.Round(time.Millisecond))), nil
	}
}

func handleDNSLookup() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		domain, err := request.RequireString("domain")
		if err != nil || domain == "" {
			return mcp.NewToolResultError("Error: domain parameter is required"), nil
		}
		recordType := strings.ToUpper(request.GetString("record_type", "A"))

		var b strings.Builder
		fmt.Fprintf(&b, "# DNS Lookup: %s (%s)\n\n", domain, recordType)

		resolver := net.DefaultResolver
		switch recordType {
		case "A", "AAAA":
			addrs, err := resolver.LookupHost(ctx, domain)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("DNS lookup failed: %v", err)), nil
			}
			for _, a := range addrs {
				isV6 := strings.Contains(a, ":")
				if (recordType == "AAAA") == isV6 {
					fmt.Fprintf(&b, "- %s\n", a)
				}
			}
		case "CNAME":
			cname, err := resolver.LookupCNAME(ctx, domain)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("DNS lookup failed: %v", err)), nil
			}
			fmt.Fprintf(&b, "- %s\n", cname)
		case "MX":
			records, err := resolver.LookupMX(ctx, domain)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("DNS lookup failed: %v", err)), nil
			}
			for _, mx := range records {
				fmt.Fprintf(&b, "- %s (priority %d)\n", mx.Host, mx.Pref)
			}
		case "NS":
			records, err := resolver.LookupNS(ctx, domain)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("DNS lookup failed: %v", err)), nil
			}
			for _, ns := range records {
				fmt.Fprintf(&b, "- %s\n", ns.Host)
			}
		case "TXT":
			records, err := resolver.LookupTXT(ctx, domain)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("DNS lookup failed: %v", err)), nil
			}
			for _, txt := range records {
				fmt.Fprintf(&b, "- %s\n", txt)
			}
		default:
			return mcp.NewToolResultError(fmt.Sprintf("Error: unsupported record type %q (use A, AAAA, CNAME, MX, NS, or TXT)", recordType)), nil
		}

		return mcp.NewToolResultText(b.String()), nil
	}
}

// streamCommand runs a command, invoking onLine for every stdout line, and
// returns the accumulated combined output.
func streamCommand(ctx context.Context, name string, args []string, onLine func(string)) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", fmt.Errorf("%s command not available: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", err
	}

	var b strings.Builder
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		b.WriteString(line)
		b.WriteString("\n")
		if onLine != nil {
			onLine(line)
		}
	}

	if err := cmd.Wait(); err != nil {
		b.Write(stderr.Bytes())
		return b.String(), err
	}
	return b.String(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
