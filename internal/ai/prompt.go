// internal/ai/prompt.go

// Package ai relays voice questions to a generative model with the
// subject position as context.
package ai

import (
	"fmt"
	"strings"

	"ElephantWatchAPI/internal/models"
)

const (
	replyTag = "[REPLY]:"
	queryTag = "[QUERY]:"

	// PlaceholderQuery stands in when the model does not summarize the question.
	PlaceholderQuery = "Voice Inquiry"
)

// PromptContext is everything the assistant knows about the situation.
type PromptContext struct {
	Subject    models.Position
	User       models.Position
	DistanceKm string
}

// BuildPrompt renders the assistant persona, the situation and the reply format.
func BuildPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString("You are Chaba, a wildlife conservation officer assistant for the national park service.\n")
	fmt.Fprintf(&b, "Elephant position: Lat %v, Lng %v\n", pc.Subject.Lat, pc.Subject.Lng)
	fmt.Fprintf(&b, "User position: Lat %v, Lng %v\n", pc.User.Lat, pc.User.Lng)
	fmt.Fprintf(&b, "Distance: %s km\n", pc.DistanceKm)
	b.WriteString("Rules:\n")
	b.WriteString("  1. Only answer questions about the park and its wildlife.\n")
	fmt.Fprintf(&b, "  2. Mention the %s km distance only when asked about safety or the elephant's location, and you may judge the danger from it.\n", pc.DistanceKm)
	b.WriteString("  3. Do not use bold text or Markdown.\n")
	b.WriteString("  4. Reply in the language the user spoke.\n")
	b.WriteString("  5. Always answer in exactly this format:\n")
	b.WriteString("     " + replyTag + " (your answer)\n")
	b.WriteString("     " + queryTag + " (a short summary of what the user asked in the audio)\n")
	return b.String()
}

// ParseReply splits a tagged model answer. Without a reply tag the whole
// text is the reply and the query falls back to PlaceholderQuery.
func ParseReply(text string) (reply, query string) {
	_, after, found := strings.Cut(text, replyTag)
	if !found {
		return text, PlaceholderQuery
	}
	after, _, _ = strings.Cut(after, replyTag)

	reply, rest, hasQuery := strings.Cut(after, queryTag)
	reply = strings.TrimSpace(reply)
	if !hasQuery {
		return reply, PlaceholderQuery
	}

	rest, _, _ = strings.Cut(rest, queryTag)
	query = strings.TrimSpace(rest)
	if query == "" {
		query = PlaceholderQuery
	}
	return reply, query
}
