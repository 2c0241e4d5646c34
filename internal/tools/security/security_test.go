package security

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func hashRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = "hash_data"
	req.Params.Arguments = args
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

func TestHashDataKnownVectors(t *testing.T) {
	// Digests of "abc" from the algorithm reference vectors
	cases := []struct {
		algorithm string
		want      string
	}{
		{"md5", "900150983cd24fb0d6963f7d28e17f72"},
		{"sha1", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"sha256", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"sha512", "ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"},
	}

	handler := handleHashData()
	for _, tc := range cases {
		result, err := handler(context.Background(), hashRequest(map[string]any{
			"input":     "abc",
			"algorithm": tc.algorithm,
		}))
		if err != nil {
			t.Fatalf("%s: %v", tc.algorithm, err)
		}
		if text := resultText(t, result); !strings.Contains(text, tc.want) {
			t.Errorf("%s: expected digest %s, got: %s", tc.algorithm, tc.want, text)
		}
	}
}

func TestHashDataDefaultsToSHA256Hex(t *testing.T) {
	result, err := handleHashData()(context.Background(), hashRequest(map[string]any{"input": "abc"}))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, result)
	if !strings.HasPrefix(text, "sha256 (hex):") {
		t.Errorf("expected sha256/hex defaults, got: %s", text)
	}
}

func TestHashDataBase64Encoding(t *testing.T) {
	result, err := handleHashData()(context.Background(), hashRequest(map[string]any{
		"input":    "abc",
		"encoding": "base64",
	}))
	if err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256([]byte("abc"))
	want := base64.StdEncoding.EncodeToString(sum[:])
	if text := resultText(t, result); !strings.Contains(text, want) {
		t.Errorf("expected base64 sha256 %s of 'abc', got: %s", want, text)
	}
}

func TestHashDataRejectsUnknownAlgorithm(t *testing.T) {
	result, err := handleHashData()(context.Background(), hashRequest(map[string]any{
		"input":     "abc",
		"algorithm": "crc32",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("expected an error result for an unsupported algorithm")
	}
}

func TestHashDataRejectsUnknownEncoding(t *testing.T) {
	result, err := handleHashData()(context.Background(), hashRequest(map[string]any{
		"input":    "abc",
		"encoding": "binary",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("expected an error result for an unsupported encoding")
	}
}

func TestHashDataRequiresInput(t *testing.T) {
	result, err := handleHashData()(context.Background(), hashRequest(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("expected an error result when input is missing")
	}
}

func TestCompareHashes(t *testing.T) {
	cases := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"identical", "ba7816bf8f01cfea", "ba7816bf8f01cfea", true},
		{"case insensitive", "BA7816BF8F01CFEA", "ba7816bf8f01cfea", true},
		{"surrounding whitespace", " ba7816bf8f01cfea ", "ba7816bf8f01cfea", true},
		{"different values", "ba7816bf8f01cfea", "ba7816bf8f01cfeb", false},
		{"different lengths", "ba7816bf", "ba7816bf8f01cfea", false},
	}

	handler := handleCompareHashes()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := mcp.CallToolRequest{}
			req.Params.Name = "compare_hashes"
			req.Params.Arguments = map[string]any{"a": tc.a, "b": tc.b}

			result, err := handler(context.Background(), req)
			if err != nil {
				t.Fatal(err)
			}
			text := resultText(t, result)
			if tc.want && !strings.Contains(text, "Hashes match: true") {
				t.Errorf("expected a match, got: %s", text)
			}
			if !tc.want && !strings.Contains(text, "Hashes match: false") {
				t.Errorf("expected a mismatch, got: %s", text)
			}
		})
	}
}
