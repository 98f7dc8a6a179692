package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sumalravindran/My-journal-new/internal/calendar"
	"github.com/sumalravindran/My-journal-new/internal/records"
	"github.com/sumalravindran/My-journal-new/internal/store"
)

func recordTools(deps *Dependencies) []tool {
	return []tool{
		{
			def: mcp.NewTool("journal_list_entries",
				mcp.WithDescription("List journal entries, newest first. Optionally filter by a tag or a text query over title and content."),
				mcp.WithString("tag", mcp.Description("Only entries carrying this tag")),
				mcp.WithString("query", mcp.Description("Case-insensitive text to search for in title and content")),
				mcp.WithNumber("limit", mcp.Description("Maximum entries to return (default 20)")),
			),
			handler: deps.listEntries,
		},
		{
			def: mcp.NewTool("journal_list_tasks",
				mcp.WithDescription("List tasks ordered by due date."),
				mcp.WithString("status", mcp.Description("open (default), completed or all"), mcp.Enum("open", "completed", "all")),
			),
			handler: deps.listTasks,
		},
		{
			def: mcp.NewTool("journal_add_task",
				mcp.WithDescription("Add a task to the task list."),
				mcp.WithString("title", mcp.Required(), mcp.Description("What needs to be done")),
				mcp.WithString("due", mcp.Description("Due date as YYYY-MM-DD (optional)")),
			),
			handler: deps.addTask,
		},
		{
			def: mcp.NewTool("journal_toggle_task",
				mcp.WithDescription("Flip a task between open and completed."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
			),
			handler: deps.toggleTask,
		},
		{
			def: mcp.NewTool("journal_delete",
				mcp.WithDescription("Delete a record. Deleting an event also removes the task mirroring it."),
				mcp.WithString("kind", mcp.Required(), mcp.Description("entries, tasks, events or transactions"), mcp.Enum("entries", "tasks", "events", "transactions")),
				mcp.WithString("id", mcp.Required(), mcp.Description("Record ID")),
			),
			handler: deps.deleteRecord,
		},
	}
}

func (d *Dependencies) listEntries(ctx context.Context, args map[string]any) (string, error) {
	entries, err := store.Load[records.JournalEntry](ctx, d.Gateway, records.KindEntries)
	if err != nil {
		return "", fmt.Errorf("failed to load entries: %w", err)
	}

	tag := strings.ToLower(stringArg(args, "tag"))
	query := strings.ToLower(stringArg(args, "query"))
	limit := intArg(args, "limit", 20)

	var out []records.JournalEntry
	for _, e := range entries {
		if tag != "" && !hasTag(e.Tags, tag) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(e.Title+"\n"+e.Content), query) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if len(out) == 0 {
		return "No journal entries found.", nil
	}
	return toJSON(out)
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func (d *Dependencies) listTasks(ctx context.Context, args map[string]any) (string, error) {
	tasks, err := store.Load[records.Task](ctx, d.Gateway, records.KindTasks)
	if err != nil {
		return "", fmt.Errorf("failed to load tasks: %w", err)
	}

	status := stringArg(args, "status")
	if status == "" {
		status = "open"
	}
	var out []records.Task
	for _, t := range tasks {
		switch status {
		case "open":
			if t.Completed {
				continue
			}
		case "completed":
			if !t.Completed {
				continue
			}
		case "all":
		default:
			return "", fmt.Errorf("unknown status %q: use open, completed or all", status)
		}
		out = append(out, t)
	}

	// Undated tasks sort last
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DueDate, out[j].DueDate
		if a == nil || b == nil {
			return a != nil
		}
		return a.Before(*b)
	})
	if len(out) == 0 {
		return "No tasks found.", nil
	}
	return toJSON(out)
}

func (d *Dependencies) addTask(ctx context.Context, args map[string]any) (string, error) {
	title, err := requireString(args, "title")
	if err != nil {
		return "", err
	}
	task := records.Task{ID: d.newID(), Title: title}

	due, ok, err := dateArg(args, "due", d.location())
	if err != nil {
		return "", err
	}
	if ok {
		task.DueDate = &due
	}

	if err := store.Save(ctx, d.Gateway, records.KindTasks, []records.Task{task}); err != nil {
		return "", fmt.Errorf("failed to save task: %w", err)
	}
	d.changed("journal_add_task", records.KindTasks, task.ID, "Task added: "+title)
	return fmt.Sprintf("Task added: %s (ID: %s)", title, task.ID), nil
}

func (d *Dependencies) toggleTask(ctx context.Context, args map[string]any) (string, error) {
	id, err := requireString(args, "id")
	if err != nil {
		return "", err
	}
	task, ok, err := store.Find[records.Task](ctx, d.Gateway, records.KindTasks, id)
	if err != nil {
		return "", fmt.Errorf("failed to load tasks: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("task not found: %s", id)
	}

	task.Completed = !task.Completed
	if err := store.Save(ctx, d.Gateway, records.KindTasks, []records.Task{task}); err != nil {
		return "", fmt.Errorf("failed to save task: %w", err)
	}

	state := "open"
	if task.Completed {
		state = "completed"
	}
	d.changed("journal_toggle_task", records.KindTasks, id, fmt.Sprintf("Task %s: %s", state, task.Title))
	return fmt.Sprintf("Task %s is now %s", id, state), nil
}

func (d *Dependencies) deleteRecord(ctx context.Context, args map[string]any) (string, error) {
	kind, err := records.ParseKind(stringArg(args, "kind"))
	if err != nil {
		return "", err
	}
	id, err := requireString(args, "id")
	if err != nil {
		return "", err
	}

	if kind == records.KindEvents {
		err = calendar.DeleteEvent(ctx, d.Gateway, id)
	} else {
		err = d.Gateway.DeleteByID(ctx, kind, id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	d.changed("journal_delete", kind, id, fmt.Sprintf("Deleted %s %s", kind, id))
	return fmt.Sprintf("Deleted %s %s", kind, id), nil
}
