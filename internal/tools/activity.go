package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sumalravindran/My-journal-new/internal/activity"
)

func activityTools(deps *Dependencies) []tool {
	return []tool{
		{
			def: mcp.NewTool("journal_activity",
				mcp.WithDescription("Show recent activity: messages, flushes, materialized records and failures. Use failed_only to list chat slices whose extraction failed and were never turned into records."),
				mcp.WithNumber("limit", mcp.Description("Maximum entries (default 20)")),
				mcp.WithString("type", mcp.Description("Only entries of this type, e.g. flush_failed or materialized")),
				mcp.WithString("query", mcp.Description("Case-insensitive text search over summaries")),
				mcp.WithBoolean("failed_only", mcp.Description("Only failed slices")),
				mcp.WithString("stream", mcp.Description("Stream for failed_only (default all)")),
			),
			handler: deps.queryActivity,
		},
	}
}

func (d *Dependencies) queryActivity(ctx context.Context, args map[string]any) (string, error) {
	limit := intArg(args, "limit", 20)

	var (
		entries []activity.Entry
		err     error
	)
	switch {
	case args["failed_only"] == true:
		entries, err = d.ActivityLog.FailedSlices(stringArg(args, "stream"))
		if err == nil && limit > 0 && len(entries) > limit {
			entries = entries[len(entries)-limit:]
		}
	case stringArg(args, "type") != "":
		entries, err = d.ActivityLog.ByType(activity.Type(stringArg(args, "type")), limit)
	case stringArg(args, "query") != "":
		entries, err = d.ActivityLog.Search(stringArg(args, "query"), limit)
	default:
		entries, err = d.ActivityLog.Recent(limit)
	}
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "No activity found.", nil
	}
	return toJSON(entries)
}
