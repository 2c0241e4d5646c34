package toolkit

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func noopHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("ok"), nil
}

func descriptor(name, category string) Descriptor {
	return Descriptor{
		Tool:     mcp.NewTool(name, mcp.WithDescription("test tool")),
		Category: category,
		Handler:  noopHandler,
	}
}

func TestKit_RegisterResolve(t *testing.T) {
	k := NewKit()

	if err := k.Register(descriptor("ping_host", "network")); err != nil {
		t.Fatal(err)
	}

	d, ok := k.Resolve("ping_host")
	if !ok {
		t.Fatal("expected registered tool to resolve")
	}
	if d.Category != "network" {
		t.Errorf("unexpected category: %s", d.Category)
	}

	if _, ok := k.Resolve("nope"); ok {
		t.Error("expected miss for unregistered name")
	}
}

func TestKit_DuplicateNameRejected(t *testing.T) {
	k := NewKit()

	if err := k.Register(descriptor("hash_data", "")); err != nil {
		t.Fatal(err)
	}

	err := k.Register(descriptor("hash_data", ""))
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if !strings.Contains(err.Error(), "hash_data") {
		t.Errorf("error should name the colliding tool: %v", err)
	}

	if k.Len() != 1 {
		t.Errorf("expected 1 tool after rejected duplicate, got %d", k.Len())
	}
}

func TestKit_RegisterValidation(t *testing.T) {
	k := NewKit()

	if err := k.Register(Descriptor{Tool: mcp.NewTool(""), Handler: noopHandler}); err == nil {
		t.Error("expected unnamed descriptor to be rejected")
	}
	if err := k.Register(Descriptor{Tool: mcp.NewTool("no_handler")}); err == nil {
		t.Error("expected handler-less descriptor to be rejected")
	}
}

func TestKit_ListPreservesRegistrationOrder(t *testing.T) {
	k := NewKit()

	names := []string{"zeta", "alpha", "mid"}
	for _, n := range names {
		if err := k.Register(descriptor(n, "")); err != nil {
			t.Fatal(err)
		}
	}

	tools := k.List()
	if len(tools) != len(names) {
		t.Fatalf("expected %d tools, got %d", len(names), len(tools))
	}
	for i, n := range names {
		if tools[i].Name != n {
			t.Errorf("position %d: expected %s, got %s", i, n, tools[i].Name)
		}
	}
}

func TestKit_MergeStopsAtCollision(t *testing.T) {
	k := NewKit()

	err := k.Merge(
		descriptor("a", ""),
		descriptor("b", ""),
		descriptor("a", ""),
	)
	if err == nil {
		t.Fatal("expected merge to fail on collision")
	}
	if k.Len() != 2 {
		t.Errorf("expected 2 tools registered before collision, got %d", k.Len())
	}
}
