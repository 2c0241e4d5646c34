package toolkit

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fastmcp-me/toolkit-mcp-server/internal/common"
)

// Notifier is the one-way notification channel consumed by the Reporter.
// Sends are fire-and-forget with respect to main-flow correctness: a failed
// send never fails the invocation. *server.MCPServer satisfies this.
type Notifier interface {
	SendNotificationToClient(ctx context.Context, method string, params map[string]any) error
}

// Reporter emits incremental progress for one invocation and exactly one
// terminal completion or error event. Created per invocation by the
// dispatcher, never reused across calls.
type Reporter struct {
	notifier Notifier
	token    any
	title    string
	unit     string
	log      *common.Logger

	mu      sync.Mutex
	current float64
	total   float64
	done    bool
}

// NewReporter creates a Reporter for one invocation. The token correlates the
// notification stream to the call: the client-supplied progress token when the
// request carries one, otherwise a generated UUID.
func NewReporter(req mcp.CallToolRequest, notifier Notifier, logger *common.Logger) *Reporter {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Reporter{
		notifier: notifier,
		token:    progressTokenFrom(req),
		title:    req.Params.Name,
		unit:     "steps",
		log:      logger,
	}
}

func progressTokenFrom(req mcp.CallToolRequest) any {
	if req.Params.Meta != nil && req.Params.Meta.ProgressToken != nil {
		return req.Params.Meta.ProgressToken
	}
	return uuid.NewString()
}

// Token returns the opaque per-invocation identifier.
func (r *Reporter) Token() any {
	return r.token
}

// SetTotal sets the expected upper bound for progress, enabling derived
// percentage messages.
func (r *Reporter) SetTotal(total float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
}

// Report accumulates increment into the monotonically increasing counter and
// emits a progress event. When message is empty and a total is known, a
// percentage message is derived. Never called after the terminal event.
func (r *Reporter) Report(ctx context.Context, increment float64, message string) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.current += increment
	current, total := r.current, r.total
	r.mu.Unlock()

	if message == "" && total > 0 {
		message = fmt.Sprintf("%s: %.0f%% (%.0f/%.0f %s)", r.title, current/total*100, current, total, r.unit)
	}

	params := map[string]any{
		"progressToken": r.token,
		"progress":      current,
	}
	if total > 0 {
		params["total"] = total
	}
	if message != "" {
		params["message"] = message
	}
	r.send(ctx, "notifications/progress", params)
}

// Complete emits the single terminal success event: a final progress
// notification with the counter advanced to the total. No-op if a terminal
// event was already sent.
func (r *Reporter) Complete(ctx context.Context, message string) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	total := r.total
	if total <= 0 {
		total = r.current
		if total <= 0 {
			total = 1
		}
	}
	r.current = total
	r.mu.Unlock()

	if message == "" {
		message = fmt.Sprintf("%s: complete", r.title)
	}
	r.send(ctx, "notifications/progress", map[string]any{
		"progressToken": r.token,
		"progress":      total,
		"total":         total,
		"message":       message,
	})
}

// Error emits the single terminal failure event carrying the error's message.
// No-op if a terminal event was already sent.
func (r *Reporter) Error(ctx context.Context, err error) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	r.mu.Unlock()

	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	r.send(ctx, "notifications/message", map[string]any{
		"level":  "error",
		"logger": r.title,
		"data":   fmt.Sprintf("%s failed: %s", r.title, msg),
	})
}

// send delivers one notification. Failures are logged and swallowed so that
// progress telemetry never aborts the underlying operation.
func (r *Reporter) send(ctx context.Context, method string, params map[string]any) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.SendNotificationToClient(ctx, method, params); err != nil {
		r.log.Debug().Str("method", method).Str("error", err.Error()).Msg("progress notification dropped")
	}
}

type reporterKey struct{}

// WithReporter stashes the invocation's Reporter in the context so tool
// bodies can emit progress without a direct dependency on the dispatcher.
func WithReporter(ctx context.Context, r *Reporter) context.Context {
	return context.WithValue(ctx, reporterKey{}, r)
}

// ReporterFrom returns the invocation's Reporter, or nil when the call was
// not dispatched through the pipeline (e.g. direct handler tests).
func ReporterFrom(ctx context.Context) *Reporter {
	r, _ := ctx.Value(reporterKey{}).(*Reporter)
	return r
}
