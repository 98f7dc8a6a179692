package extract

// responseSchema is the structured-output schema sent with every extraction
// request (OpenAPI subset understood by the model service)
var responseSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"hasContent": map[string]any{
			"type":        "BOOLEAN",
			"description": "True when the new messages contain a personal narrative worth a journal entry",
		},
		"title":   map[string]any{"type": "STRING"},
		"content": map[string]any{"type": "STRING"},
		"tags": map[string]any{
			"type":  "ARRAY",
			"items": map[string]any{"type": "STRING"},
		},
		"calendarEvents": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"title":       map[string]any{"type": "STRING"},
					"startTime":   map[string]any{"type": "STRING", "description": "ISO 8601 local date-time"},
					"endTime":     map[string]any{"type": "STRING", "description": "ISO 8601 local date-time"},
					"description": map[string]any{"type": "STRING"},
				},
				"required": []string{"title", "startTime"},
			},
		},
		"tasks": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"title":   map[string]any{"type": "STRING"},
					"dueDate": map[string]any{"type": "STRING", "description": "ISO 8601 date or date-time"},
				},
				"required": []string{"title"},
			},
		},
		"transactions": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"description": map[string]any{"type": "STRING"},
					"amount":      map[string]any{"type": "NUMBER", "description": "Positive magnitude"},
					"type":        map[string]any{"type": "STRING", "enum": []string{"income", "expense"}},
					"category":    map[string]any{"type": "STRING"},
					"date":        map[string]any{"type": "STRING", "description": "ISO 8601 date"},
				},
				"required": []string{"description", "amount", "type", "date"},
			},
		},
	},
	"required": []string{"hasContent", "tags", "calendarEvents", "tasks", "transactions"},
}

// Schema returns the extraction response schema
func Schema() map[string]any {
	return responseSchema
}
