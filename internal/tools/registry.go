package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/tmeadows/outboxd/internal/action"
	"github.com/tmeadows/outboxd/internal/instrumentation"
	"github.com/tmeadows/outboxd/internal/logging"
)

// Handler executes a tool with already-validated arguments.
type Handler func(ctx context.Context, args map[string]any) action.Result

type binding struct {
	tool    mcp.Tool
	handler Handler
}

// Registry holds tool schemas and handlers. Registration happens at
// startup; dispatch is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]*binding
	order    []string

	logger  *slog.Logger
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		bindings: make(map[string]*binding),
		logger:   logger,
	}
}

// WithInstrumentation attaches metrics and audit logging to dispatch.
func (r *Registry) WithInstrumentation(metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) *Registry {
	r.metrics = metrics
	r.audit = audit
	return r
}

// Register adds a tool. Registering the same name twice is a programming
// error and is rejected so a duplicate can never shadow an existing tool.
func (r *Registry) Register(tool mcp.Tool, handler Handler) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if handler == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[tool.Name]; exists {
		return fmt.Errorf("tool already registered: %s", tool.Name)
	}

	r.bindings[tool.Name] = &binding{tool: tool, handler: handler}
	r.order = append(r.order, tool.Name)
	return nil
}

// Schemas returns the registered tool schemas in registration order. This
// is the list handed to an LLM for function calling.
func (r *Registry) Schemas() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]mcp.Tool, 0, len(r.order))
	for _, name := range r.order {
		schemas = append(schemas, r.bindings[name].tool)
	}
	return schemas
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Dispatch validates the call against the registered schema and invokes
// the handler. An unknown tool or a missing required parameter returns a
// failure result without the handler running.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) action.Result {
	r.mu.RLock()
	b, ok := r.bindings[name]
	r.mu.RUnlock()

	start := time.Now()
	logger := logging.WithTool(r.logger, name)

	if !ok {
		logger.Warn("unknown tool requested")
		r.record(ctx, name, instrumentation.StatusError, time.Since(start))
		return action.Failure("tool not found: %s", name)
	}

	if missing := missingRequired(b.tool, args); missing != "" {
		logger.Warn("missing required parameter", slog.String("parameter", missing))
		r.record(ctx, name, instrumentation.StatusError, time.Since(start))
		return action.Failure("missing required parameter: %s", missing)
	}

	result := b.handler(ctx, args)

	status := instrumentation.StatusSuccess
	if !result.Success {
		status = instrumentation.StatusError
	}
	duration := time.Since(start)
	r.record(ctx, name, status, duration)

	if r.audit != nil {
		event := &instrumentation.ActionEvent{
			Operation: "tool_dispatch",
			Tool:      name,
			Recipient: result.To,
			StartTime: start,
			Duration:  duration,
			Success:   result.Success,
		}
		if !result.Success {
			event.Error = result.Message
		}
		event.WithSpanContext(ctx)
		r.audit.LogAction(event)
	}

	return result
}

func (r *Registry) record(ctx context.Context, name, status string, duration time.Duration) {
	r.metrics.RecordToolInvocation(ctx, name, status, duration)
}

// missingRequired returns the first required parameter that is absent or
// empty, or "" when the arguments satisfy the schema.
func missingRequired(tool mcp.Tool, args map[string]any) string {
	for _, name := range tool.InputSchema.Required {
		value, present := args[name]
		if !present {
			return name
		}
		if s, isString := value.(string); isString && s == "" {
			return name
		}
	}
	return ""
}

// AttachMCP registers every tool on the MCP server. The MCP handlers
// delegate to Dispatch so schema validation stays in one place.
func (r *Registry) AttachMCP(s *mcpserver.MCPServer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		b := r.bindings[name]
		toolName := b.tool.Name
		s.AddTool(b.tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result := r.Dispatch(ctx, toolName, request.GetArguments())
			if !result.Success {
				return mcp.NewToolResultError(result.Message), nil
			}
			return mcp.NewToolResultText(result.String()), nil
		})
	}
}
