package llm

import (
	"strings"

	"github.com/HapppyEnd/aibot/internal/model"
)

const systemPrompt = `You are an editor for a news channel. You will receive the text of a news story.

Write a short post announcing it for the channel's audience.

Rules:
1. Open with a one-line hook that states the core fact
2. Follow with 2-3 sentences of factual detail
3. Keep all numbers, names and dates from the source
4. Neutral tone, no clickbait, no emoji walls
5. Do not invent facts that are not in the source
6. 500 characters maximum

Output the post text only, no preamble and no quotes around it.`

// BuildNewsText concatenates the generation input the way the pipeline
// feeds it to the provider: title, summary, then raw text when present.
func BuildNewsText(item *model.NewsItem) string {
	var sb strings.Builder
	sb.WriteString(item.Title)
	if item.Summary != "" {
		sb.WriteString("\n\n")
		sb.WriteString(item.Summary)
	}
	if item.RawText != "" {
		sb.WriteString("\n\n")
		sb.WriteString(item.RawText)
	}
	return sb.String()
}
