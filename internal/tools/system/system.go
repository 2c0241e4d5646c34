// Package system provides host inspection tools: platform info, load
// averages, and network interfaces. All readings come from gopsutil.
package system

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"

	"github.com/fastmcp-me/toolkit-mcp-server/internal/common"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/toolkit"
)

// Catalog returns the system tool descriptors. System tools share the default
// rate-limit category.
func Catalog() []toolkit.Descriptor {
	return []toolkit.Descriptor{
		{Tool: createSystemInfoTool(), Handler: handleSystemInfo()},
		{Tool: createLoadAverageTool(), Handler: handleLoadAverage()},
		{Tool: createNetworkInterfacesTool(), Handler: handleNetworkInterfaces()},
	}
}

func createSystemInfoTool() mcp.Tool {
	return mcp.NewTool("get_system_info",
		mcp.WithDescription("Get host system information: hostname, OS, kernel, uptime, CPU model and count, and memory totals."),
	)
}

func createLoadAverageTool() mcp.Tool {
	return mcp.NewTool("get_load_average",
		mcp.WithDescription("Get the 1, 5, and 15 minute load averages. Not available on Windows."),
	)
}

func createNetworkInterfacesTool() mcp.Tool {
	return mcp.NewTool("get_network_interfaces",
		mcp.WithDescription("List network interfaces with MTU, hardware address, flags, and assigned addresses."),
		mcp.WithBoolean("include_down", mcp.Description("Include interfaces that are not up (default: false)")),
	)
}

func handleSystemInfo() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		info, err := host.InfoWithContext(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error reading host info: %v", err)), nil
		}

		var b strings.Builder
		b.WriteString("# System Information\n\n")
		fmt.Fprintf(&b, "- **Hostname**: %s\n", info.Hostname)
		fmt.Fprintf(&b, "- **OS**: %s %s (%s)\n", info.Platform, info.PlatformVersion, info.OS)
		fmt.Fprintf(&b, "- **Kernel**: %s %s\n", info.KernelVersion, info.KernelArch)
		fmt.Fprintf(&b, "- **Uptime**: %s\n", common.FormatUptime(info.Uptime))
		fmt.Fprintf(&b, "- **Processes**: %d\n", info.Procs)
		fmt.Fprintf(&b, "- **Go runtime**: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)

		if counts, err := cpu.CountsWithContext(ctx, true); err == nil {
			fmt.Fprintf(&b, "- **Logical CPUs**: %d\n", counts)
		}
		if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
			fmt.Fprintf(&b, "- **CPU model**: %s\n", strings.TrimSpace(cpus[0].ModelName))
		}
		if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
			fmt.Fprintf(&b, "- **Memory**: %s total, %s available (%.1f%% used)\n",
				common.FormatBytes(vm.Total), common.FormatBytes(vm.Available), vm.UsedPercent)
		}

		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleLoadAverage() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		avg, err := load.AvgWithContext(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error: load averages unavailable on this platform: %v", err)), nil
		}

		counts, _ := cpu.CountsWithContext(ctx, true)
		var b strings.Builder
		b.WriteString("# Load Average\n\n")
		fmt.Fprintf(&b, "- **1 min**: %.2f\n", avg.Load1)
		fmt.Fprintf(&b, "- **5 min**: %.2f\n", avg.Load5)
		fmt.Fprintf(&b, "- **15 min**: %.2f\n", avg.Load15)
		if counts > 0 {
			fmt.Fprintf(&b, "- **Per-core (1 min)**: %.2f over %d logical CPUs\n", avg.Load1/float64(counts), counts)
		}

		return mcp.NewToolResultText(b.String()), nil
	}
}

func handleNetworkInterfaces() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		includeDown := request.GetBool("include_down", false)

		ifaces, err := psnet.InterfacesWithContext(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error listing interfaces: %v", err)), nil
		}

		var b strings.Builder
		b.WriteString("# Network Interfaces\n\n")
		listed := 0
		for _, iface := range ifaces {
			up := hasFlag(iface.Flags, "up")
			if !up && !includeDown {
				continue
			}
			listed++
			fmt.Fprintf(&b, "## %s\n", iface.Name)
			fmt.Fprintf(&b, "- **MTU**: %d\n", iface.MTU)
			if iface.HardwareAddr != "" {
				fmt.Fprintf(&b, "- **MAC**: %s\n", iface.HardwareAddr)
			}
			if len(iface.Flags) > 0 {
				fmt.Fprintf(&b, "- **Flags**: %s\n", strings.Join(iface.Flags, ", "))
			}
			for _, addr := range iface.Addrs {
				fmt.Fprintf(&b, "- **Address**: %s\n", addr.Addr)
			}
			b.WriteString("\n")
		}
		if listed == 0 {
			b.WriteString("No interfaces matched.\n")
		}

		return mcp.NewToolResultText(b.String()), nil
	}
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}
