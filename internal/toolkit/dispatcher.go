package toolkit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fastmcp-me/toolkit-mcp-server/internal/common"
	"github.com/fastmcp-me/toolkit-mcp-server/internal/ratelimit"
)

// CategoryRule maps a tool-name prefix to a rate-limit category. Rules only
// apply to descriptors that do not declare a category of their own.
type CategoryRule struct {
	Prefix   string
	Category string
}

// DefaultCategory is the rate-limit bucket for tools with no declared
// category and no matching prefix rule.
const DefaultCategory = "default"

// Dispatcher resolves an incoming call to a registry entry, admits it through
// the rate limiter, wraps execution in progress tracking, and normalizes the
// result or error into the response envelope.
//
// Per-invocation states: Received -> Resolved -> Admitted -> Executing ->
// Completed or Failed. Unresolved names and limiter rejections fail before
// the handler ever runs.
type Dispatcher struct {
	kit      *Kit
	limiter  *ratelimit.Limiter
	rules    []CategoryRule
	notifier Notifier
	log      *common.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCategoryRules sets the prefix fallback rules for descriptors that do
// not declare a category.
func WithCategoryRules(rules []CategoryRule) Option {
	return func(d *Dispatcher) { d.rules = rules }
}

// WithNotifier overrides the notification sink. By default the dispatcher
// uses the MCP server found in the invocation context.
func WithNotifier(n Notifier) Option {
	return func(d *Dispatcher) { d.notifier = n }
}

// NewDispatcher creates a Dispatcher over an immutable Kit. The limiter and
// logger are constructed by the caller and passed in; the dispatcher never
// reaches for ambient globals.
func NewDispatcher(kit *Kit, limiter *ratelimit.Limiter, logger *common.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	d := &Dispatcher{
		kit:     kit,
		limiter: limiter,
		log:     logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Category returns the rate-limit category for a descriptor: its declared
// category, else the first matching prefix rule, else the default.
func (d *Dispatcher) Category(desc Descriptor) string {
	if desc.Category != "" {
		return desc.Category
	}
	for _, rule := range d.rules {
		if strings.HasPrefix(desc.Tool.Name, rule.Prefix) {
			return rule.Category
		}
	}
	return DefaultCategory
}

// Attach registers every descriptor on the MCP server with its handler
// wrapped in the dispatch pipeline.
func (d *Dispatcher) Attach(s *server.MCPServer) {
	for _, tool := range d.kit.List() {
		s.AddTool(tool, d.handler())
	}
}

// handler adapts Dispatch to the mcp-go tool handler signature.
func (d *Dispatcher) handler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return d.Dispatch(ctx, request)
	}
}

// Dispatch runs one invocation through the pipeline. It always returns an
// envelope and a nil error: every failure is normalized into an IsError
// envelope so callers see the same shape on both paths.
func (d *Dispatcher) Dispatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.Params.Name
	corrID := uuid.NewString()[:8]
	logger := d.log.WithCorrelationId(corrID)
	started := time.Now()

	// Received -> Resolved
	desc, ok := d.kit.Resolve(name)
	if !ok {
		logger.Warn().Str("tool", name).Msg("unknown tool")
		return errorResult(fmt.Sprintf("unknown tool: %s", name)), nil
	}

	// Resolved -> Admitted
	category := d.Category(desc)
	if err := d.limiter.Check(category); err != nil {
		var rle *ratelimit.RateLimitError
		if errors.As(err, &rle) {
			logger.Warn().
				Str("tool", name).
				Str("category", category).
				Int("reset_in_s", rle.ResetInSeconds()).
				Msg("rate limit exceeded")
			return errorResult(fmt.Sprintf(
				"Rate limit exceeded for %s tools. Try again in %d seconds.",
				category, rle.ResetInSeconds())), nil
		}
		return errorResult(normalizeError(err)), nil
	}

	// Admitted -> Executing
	reporter := NewReporter(request, d.notifierFor(ctx), logger)
	ctx = WithReporter(ctx, reporter)

	result, err := d.invoke(ctx, desc, request)

	// Executing -> Completed | Failed
	switch {
	case err != nil:
		reporter.Error(ctx, err)
		logger.Error().
			Str("tool", name).
			Int64("duration_ms", time.Since(started).Milliseconds()).
			Str("error", err.Error()).
			Msg("tool failed")
		return errorResult(normalizeError(err)), nil
	case result != nil && result.IsError:
		reporter.Error(ctx, errors.New(firstText(result)))
		logger.Warn().
			Str("tool", name).
			Int64("duration_ms", time.Since(started).Milliseconds()).
			Msg("tool returned error envelope")
		return result, nil
	case result == nil:
		reporter.Complete(ctx, "")
		return textResult(""), nil
	default:
		reporter.Complete(ctx, "")
		logger.Info().
			Str("tool", name).
			Str("category", category).
			Int64("duration_ms", time.Since(started).Milliseconds()).
			Msg("tool completed")
		return result, nil
	}
}

// invoke runs the handler, converting a panic into an ordinary error so a
// misbehaving tool body cannot take down the server.
func (d *Dispatcher) invoke(ctx context.Context, desc Descriptor, request mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return desc.Handler(ctx, request)
}

// notifierFor returns the configured notifier, falling back to the MCP server
// carried in the invocation context.
func (d *Dispatcher) notifierFor(ctx context.Context) Notifier {
	if d.notifier != nil {
		return d.notifier
	}
	if s := server.ServerFromContext(ctx); s != nil {
		return s
	}
	return nil
}

// normalizeError flattens an error chain into a single-line message for the
// envelope.
func normalizeError(err error) string {
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	return "Error: " + strings.Join(strings.Fields(msg), " ")
}

// firstText returns the first text content of an envelope, for logging and
// terminal error events.
func firstText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return "tool error"
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
