package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/sumalravindran/My-journal-new/internal/chat"
)

const extractionSystem = `You turn a personal chat log into structured journal data.
Return ONLY JSON matching the response schema. Never invent facts that are not in the messages.`

const extractionPrompt = `CURRENT TIME: %s (%s)
Resolve relative dates ("tomorrow", "next Friday", "tonight") against the current time and
emit absolute ISO 8601 local date-times without a zone offset, e.g. 2026-10-15T18:00:00.

EARLIER MESSAGES (already processed, for context only, do not extract from these):
%s

NEW MESSAGES (extract from these only):
%s

RULES:
- hasContent: true only if the NEW MESSAGES contain a personal narrative worth keeping
  (something that happened, a feeling, a reflection). Greetings, commands, questions to the
  assistant and details already covered by EARLIER MESSAGES are false.
- title: a short headline for the journal entry. content: the narrative in first person,
  lightly cleaned up. Leave both empty when hasContent is false.
- tags: up to 5 lowercase topic words.
- calendarEvents: scheduled happenings with a concrete start time.
- tasks: things the user intends or needs to do. dueDate only if stated or implied.
- transactions: money spent or received. amount is a positive number; type is "income" or "expense";
  category is one or two words (food, transport, salary, ...).
- Records may be extracted even when hasContent is false.
- Use empty arrays when nothing applies.

JSON:`

const replySystem = `You are a warm, concise journaling companion. Reply to the user's latest message in
one to three sentences. Ask at most one gentle follow-up question. Do not output JSON.`

const replyPrompt = `CURRENT TIME: %s (%s)

CONVERSATION:
%s

assistant:`

// timeContext renders now for the model in a readable and a machine form
func timeContext(now time.Time) (string, string) {
	return now.Format("Monday, 2 January 2006 15:04 MST"), now.Format(time.RFC3339)
}

func buildExtractionPrompt(context, input []chat.Message, now time.Time) string {
	human, iso := timeContext(now)
	ctxText := chat.FormatTranscript(context)
	if strings.TrimSpace(ctxText) == "" {
		ctxText = "(none)"
	}
	return fmt.Sprintf(extractionPrompt, human, iso, ctxText, chat.FormatTranscript(input))
}

func buildReplyPrompt(history []chat.Message, now time.Time) string {
	human, iso := timeContext(now)
	return fmt.Sprintf(replyPrompt, human, iso, chat.FormatTranscript(history))
}

// tail returns at most the last n messages
func tail(msgs []chat.Message, n int) []chat.Message {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
