package system

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

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

func TestCatalogDefaultCategory(t *testing.T) {
	descs := Catalog()
	if len(descs) != 3 {
		t.Fatalf("expected 3 system tools, got %d", len(descs))
	}
	for _, desc := range descs {
		if desc.Category != "" {
			t.Errorf("%s: system tools should use the default category, got %q", desc.Tool.Name, desc.Category)
		}
		if desc.Handler == nil {
			t.Errorf("%s: nil handler", desc.Tool.Name)
		}
	}
}

func TestSystemInfo(t *testing.T) {
	result, err := handleSystemInfo()(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %v", result.Content)
	}
	text := resultText(t, result)
	for _, want := range []string{"**Hostname**:", "**OS**:", "**Uptime**:", "**Go runtime**:"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in output:\n%s", want, text)
		}
	}
	if !strings.Contains(text, runtime.Version()) {
		t.Errorf("expected the Go version in output:\n%s", text)
	}
}

func TestLoadAverage(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("load averages are not available on windows")
	}
	result, err := handleLoadAverage()(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %v", result.Content)
	}
	text := resultText(t, result)
	for _, want := range []string{"**1 min**:", "**5 min**:", "**15 min**:"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in output:\n%s", want, text)
		}
	}
}

func TestNetworkInterfaces(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"include_down": true}

	result, err := handleNetworkInterfaces()(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %v", result.Content)
	}
	// Every environment has at least a loopback interface
	if text := resultText(t, result); !strings.Contains(text, "## ") {
		t.Errorf("expected at least one interface section:\n%s", text)
	}
}

func TestHasFlag(t *testing.T) {
	flags := []string{"up", "broadcast", "multicast"}
	if !hasFlag(flags, "up") || !hasFlag(flags, "UP") {
		t.Error("hasFlag should match case-insensitively")
	}
	if hasFlag(flags, "loopback") {
		t.Error("hasFlag matched an absent flag")
	}
}
