package devserver

import (
	"strings"

	"github.com/Jay-tech456/TamaBotchi/internal/petapi"
)

// summarize produces a deterministic summary from the conversation text.
// It stands in for the language-model summarizer the production agent
// calls, so the panel flow can be exercised offline.
func summarize(conv petapi.Conversation) petapi.Summary {
	var requirements, actionItems []string
	urgency := petapi.UrgencyLow
	sentiment := "neutral"

	for _, msg := range conv.Messages {
		lower := strings.ToLower(msg.Text)
		switch {
		case strings.Contains(lower, "urgent"), strings.Contains(lower, "asap"):
			urgency = petapi.UrgencyHigh
		case strings.Contains(lower, "?") && urgency != petapi.UrgencyHigh:
			urgency = petapi.UrgencyMedium
		}
		if strings.Contains(lower, "need") || strings.Contains(lower, "require") {
			requirements = append(requirements, msg.Text)
		}
		if strings.Contains(lower, "please") || strings.Contains(lower, "can you") {
			actionItems = append(actionItems, msg.Text)
		}
		if strings.Contains(lower, "thanks") || strings.Contains(lower, "great") {
			sentiment = "positive"
		}
		if strings.Contains(lower, "frustrated") || strings.Contains(lower, "angry") {
			sentiment = "negative"
		}
	}

	intent := "(empty conversation)"
	if len(conv.Messages) > 0 {
		intent = conv.Messages[0].Text
	}

	return petapi.Summary{
		Who:          conv.Sender,
		Intent:       intent,
		Requirements: requirements,
		Urgency:      urgency,
		Sentiment:    sentiment,
		ActionItems:  actionItems,
		OneLiner:     oneLiner(conv.Sender, intent),
	}
}

func oneLiner(sender, intent string) string {
	const max = 60
	line := sender + ": " + intent
	if len(line) > max {
		line = line[:max-3] + "..."
	}
	return line
}
