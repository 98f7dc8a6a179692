package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sumalravindran/My-journal-new/internal/logging"
)

// handlerFunc is the body of a tool: arguments in, text out
type handlerFunc func(ctx context.Context, args map[string]any) (string, error)

type tool struct {
	def     mcp.Tool
	handler handlerFunc
}

// all returns every journal tool bound to deps
func all(deps *Dependencies) []tool {
	var out []tool
	out = append(out, recordTools(deps)...)
	out = append(out, calendarTools(deps)...)
	out = append(out, financeTools(deps)...)
	if deps.ActivityLog != nil {
		out = append(out, activityTools(deps)...)
	}
	return out
}

// RegisterAll registers all journal tools with s
func RegisterAll(s *server.MCPServer, deps *Dependencies) error {
	if deps == nil || deps.Gateway == nil {
		return fmt.Errorf("tools: a record gateway is required")
	}
	tools := all(deps)
	for _, t := range tools {
		s.AddTool(t.def, wrap(t.def.Name, t.handler))
	}
	logging.Info("mcp", "registered %d tools", len(tools))
	return nil
}

// wrap adapts a handlerFunc to mcp-go. Handler errors become error results
// so the client sees the message.
func wrap(name string, h handlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		if args == nil {
			args = map[string]any{}
		}
		logging.Debug("mcp", "%s called", name)

		out, err := h(ctx, args)
		if err != nil {
			logging.Warn("mcp", "%s: %v", name, err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func requireString(args map[string]any, key string) (string, error) {
	s := stringArg(args, key)
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// dateArg parses an optional YYYY-MM-DD argument in loc
func dateArg(args map[string]any, key string, loc *time.Location) (time.Time, bool, error) {
	s := stringArg(args, key)
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", key, s)
	}
	return t, true, nil
}

func toJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
