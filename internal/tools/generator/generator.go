// Package generator provides identifier and QR code generation tools.
package generator

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/fastmcp-me/toolkit-mcp-server/internal/toolkit"
)

const maxUUIDCount = 100

// Catalog returns the generator tool descriptors. Generation is local and
// uses the default rate-limit category.
func Catalog() []toolkit.Descriptor {
	return []toolkit.Descriptor{
		{Tool: createGenerateUUIDTool(), Handler: handleGenerateUUID()},
		{Tool: createGenerateQRCodeTool(), Handler: handleGenerateQRCode()},
	}
}

func createGenerateUUIDTool() mcp.Tool {
	return mcp.NewTool("generate_uuid",
		mcp.WithDescription("Generate one or more UUIDs."),
		mcp.WithNumber("count", mcp.Description("How many to generate, 1-100 (default: 1)")),
		mcp.WithNumber("version", mcp.Description("UUID version: 4 (random) or 7 (time-ordered). Default: 4.")),
	)
}

func createGenerateQRCodeTool() mcp.Tool {
	return mcp.NewTool("generate_qrcode",
		mcp.WithDescription("Render text as a QR code, either as terminal-friendly ASCII art or a base64 PNG image."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Text to encode (URL, wifi credentials, etc.)")),
		mcp.WithString("format", mcp.Description("Output format: 'ascii' or 'png' (default: ascii)")),
		mcp.WithNumber("size", mcp.Description("PNG edge length in pixels, 64-1024 (default: 256). Ignored for ascii.")),
	)
}

func handleGenerateUUID() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		count := request.GetInt("count", 1)
		if count < 1 {
			count = 1
		}
		if count > maxUUIDCount {
			return mcp.NewToolResultError(fmt.Sprintf("Error: count must be between 1 and %d", maxUUIDCount)), nil
		}

		version := request.GetInt("version", 4)
		if version != 4 && version != 7 {
			return mcp.NewToolResultError("Error: version must be 4 or 7"), nil
		}

		ids := make([]string, 0, count)
		for i := 0; i < count; i++ {
			switch version {
			case 7:
				id, err := uuid.NewV7()
				if err != nil {
					return mcp.NewToolResultError(fmt.Sprintf("Error generating UUIDv7: %v", err)), nil
				}
				ids = append(ids, id.String())
			default:
				ids = append(ids, uuid.NewString())
			}
		}

		return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
	}
}

func handleGenerateQRCode() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := request.RequireString("content")
		if err != nil || content == "" {
			return mcp.NewToolResultError("Error: content parameter is required"), nil
		}

		format := strings.ToLower(request.GetString("format", "ascii"))
		switch format {
		case "ascii":
			q, err := qrcode.New(content, qrcode.Medium)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Error building QR code: %v", err)), nil
			}
			return mcp.NewToolResultText("```\n" + q.ToSmallString(false) + "```\n"), nil

		case "png":
			size := request.GetInt("size", 256)
			if size < 64 || size > 1024 {
				return mcp.NewToolResultError("Error: size must be between 64 and 1024 pixels"), nil
			}
			png, err := qrcode.Encode(content, qrcode.Medium, size)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Error rendering QR code: %v", err)), nil
			}
			encoded := base64.StdEncoding.EncodeToString(png)
			return mcp.NewToolResultImage(
				fmt.Sprintf("QR code for %d bytes of content (%dx%d PNG)", len(content), size, size),
				encoded, "image/png"), nil

		default:
			return mcp.NewToolResultError(fmt.Sprintf("Error: unsupported format %q (use 'ascii' or 'png')", format)), nil
		}
	}
}
