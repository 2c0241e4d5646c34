// Package security provides hashing and digest comparison tools.
package security

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fastmcp-me/toolkit-mcp-server/internal/toolkit"
)

// Catalog returns the security tool descriptors. Hashing is local and uses
// the default rate-limit category.
func Catalog() []toolkit.Descriptor {
	return []toolkit.Descriptor{
		{Tool: createHashDataTool(), Handler: handleHashData()},
		{Tool: createCompareHashesTool(), Handler: handleCompareHashes()},
	}
}

func createHashDataTool() mcp.Tool {
	return mcp.NewTool("hash_data",
		mcp.WithDescription("Compute a cryptographic digest of the input text. md5 and sha1 are offered for checksum interoperability, not for security."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Text to hash")),
		mcp.WithString("algorithm", mcp.Description("Digest algorithm: md5, sha1, sha256, sha512 (default: sha256)")),
		mcp.WithString("encoding", mcp.Description("Output encoding: hex or base64 (default: hex)")),
	)
}

func createCompareHashesTool() mcp.Tool {
	return mcp.NewTool("compare_hashes",
		mcp.WithDescription("Compare two digest strings in constant time."),
		mcp.WithString("a", mcp.Required(), mcp.Description("First digest")),
		mcp.WithString("b", mcp.Required(), mcp.Description("Second digest")),
	)
}

func newDigest(algorithm string) (hash.Hash, bool) {
	switch algorithm {
	case "md5":
		return md5.New(), true
	case "sha1":
		return sha1.New(), true
	case "sha256":
		return sha256.New(), true
	case "sha512":
		return sha512.New(), true
	default:
		return nil, false
	}
}

func handleHashData() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := request.RequireString("input")
		if err != nil {
			return mcp.NewToolResultError("Error: input parameter is required"), nil
		}

		algorithm := strings.ToLower(request.GetString("algorithm", "sha256"))
		h, ok := newDigest(algorithm)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("Error: unsupported algorithm %q (use md5, sha1, sha256, or sha512)", algorithm)), nil
		}

		encoding := strings.ToLower(request.GetString("encoding", "hex"))
		if encoding != "hex" && encoding != "base64" {
			return mcp.NewToolResultError(fmt.Sprintf("Error: unsupported encoding %q (use hex or base64)", encoding)), nil
		}

		h.Write([]byte(input))
		sum := h.Sum(nil)

		var digest string
		if encoding == "base64" {
			digest = base64.StdEncoding.EncodeToString(sum)
		} else {
			digest = hex.EncodeToString(sum)
		}

		return mcp.NewToolResultText(fmt.Sprintf("%s (%s): %s", algorithm, encoding, digest)), nil
	}
}

func handleCompareHashes() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a, err := request.RequireString("a")
		if err != nil || a == "" {
			return mcp.NewToolResultError("Error: a parameter is required"), nil
		}
		b, err := request.RequireString("b")
		if err != nil || b == "" {
			return mcp.NewToolResultError("Error: b parameter is required"), nil
		}

		// Normalize case so hex digests compare by value
		na := strings.ToLower(strings.TrimSpace(a))
		nb := strings.ToLower(strings.TrimSpace(b))

		match := len(na) == len(nb) && subtle.ConstantTimeCompare([]byte(na), []byte(nb)) == 1

		return mcp.NewToolResultText(fmt.Sprintf("Hashes match: %t", match)), nil
	}
}
