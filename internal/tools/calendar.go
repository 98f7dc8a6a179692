package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sumalravindran/My-journal-new/internal/calendar"
	"github.com/sumalravindran/My-journal-new/internal/records"
	"github.com/sumalravindran/My-journal-new/internal/store"
)

func calendarTools(deps *Dependencies) []tool {
	return []tool{
		{
			def: mcp.NewTool("journal_create_event",
				mcp.WithDescription("Create a calendar event, optionally repeating. Daily repeats create 30 events, weekly 12 and monthly 6. Every event also appears in the task list."),
				mcp.WithString("title", mcp.Required(), mcp.Description("Event title")),
				mcp.WithString("date", mcp.Required(), mcp.Description("Date of the first occurrence (YYYY-MM-DD)")),
				mcp.WithString("start", mcp.Required(), mcp.Description("Start time (HH:MM, 24h)")),
				mcp.WithString("end", mcp.Required(), mcp.Description("End time (HH:MM, 24h); earlier than start means the next day")),
				mcp.WithString("repeat", mcp.Description("none (default), daily, weekly or monthly"), mcp.Enum("none", "daily", "weekly", "monthly")),
				mcp.WithString("description", mcp.Description("Optional notes")),
			),
			handler: deps.createEvent,
		},
		{
			def: mcp.NewTool("journal_list_events",
				mcp.WithDescription("List calendar events ordered by start time, optionally within a date range."),
				mcp.WithString("from", mcp.Description("First day to include (YYYY-MM-DD)")),
				mcp.WithString("to", mcp.Description("Last day to include (YYYY-MM-DD)")),
			),
			handler: deps.listEvents,
		},
	}
}

func (d *Dependencies) createEvent(ctx context.Context, args map[string]any) (string, error) {
	title, err := requireString(args, "title")
	if err != nil {
		return "", err
	}
	date, ok, err := dateArg(args, "date", d.location())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("date is required")
	}
	start, err := calendar.ParseTimeOfDay(stringArg(args, "start"))
	if err != nil {
		return "", err
	}
	end, err := calendar.ParseTimeOfDay(stringArg(args, "end"))
	if err != nil {
		return "", err
	}
	repeat, err := calendar.ParseRepeat(stringArg(args, "repeat"))
	if err != nil {
		return "", err
	}

	events, tasks, err := calendar.Create(ctx, d.Gateway, calendar.Input{
		Title:       title,
		Description: stringArg(args, "description"),
		Date:        date,
		Start:       start,
		End:         end,
		Repeat:      repeat,
		NewID:       d.newID,
	})
	if len(events) > 0 {
		d.changed("journal_create_event", records.KindEvents, events[0].ID,
			fmt.Sprintf("Event created: %s (%d occurrence(s))", title, len(events)))
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Created %d event(s) and %d task(s) for %q starting %s",
		len(events), len(tasks), title, events[0].StartTime.Format("Mon 2 Jan 2006 15:04")), nil
}

func (d *Dependencies) listEvents(ctx context.Context, args map[string]any) (string, error) {
	loc := d.location()
	from, hasFrom, err := dateArg(args, "from", loc)
	if err != nil {
		return "", err
	}
	to, hasTo, err := dateArg(args, "to", loc)
	if err != nil {
		return "", err
	}

	events, err := store.Load[records.CalendarEvent](ctx, d.Gateway, records.KindEvents)
	if err != nil {
		return "", fmt.Errorf("failed to load events: %w", err)
	}

	var out []records.CalendarEvent
	for _, ev := range events {
		if hasFrom && ev.StartTime.Before(from) {
			continue
		}
		if hasTo && !ev.StartTime.Before(to.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if len(out) == 0 {
		return "No events found.", nil
	}
	return toJSON(out)
}
