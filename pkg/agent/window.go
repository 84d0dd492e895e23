package agent

import (
	"regexp"
	"strings"

	"github.com/sipeed/slackbridge/pkg/channels"
	"github.com/sipeed/slackbridge/pkg/providers"
)

var mentionToken = regexp.MustCompile(`<@[0-9A-Za-z]+>`)

// BuildPrompt turns a thread transcript into the conversation sent to the
// model. Messages that mention botID become user turns, messages written by
// the bot become assistant turns, and everything else is dropped. Only the
// newest maxMessages turns are kept, in thread order.
func BuildPrompt(thread []channels.ThreadMessage, botID string, maxMessages int) []providers.Message {
	if maxMessages <= 0 {
		return []providers.Message{}
	}

	mention := "<@" + botID + ">"
	window := make([]providers.Message, 0, len(thread))

	for _, msg := range thread {
		content := strings.TrimSpace(mentionToken.ReplaceAllString(msg.Text, ""))
		if content == "" {
			continue
		}

		switch {
		case botID != "" && strings.Contains(msg.Text, mention):
			window = append(window, providers.Message{Role: providers.RoleUser, Content: content})
		case botID != "" && isAuthoredBy(msg, botID):
			window = append(window, providers.Message{Role: providers.RoleAssistant, Content: content})
		}
	}

	if len(window) > maxMessages {
		window = window[len(window)-maxMessages:]
	}
	return window
}

// isAuthoredBy accepts either the bot's user id or its bot id, since Slack
// reports both on messages the app posts.
func isAuthoredBy(msg channels.ThreadMessage, botID string) bool {
	return msg.User == botID || msg.BotID == botID
}
