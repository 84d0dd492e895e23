package channels

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/slack-go/slack"

	"github.com/sipeed/slackbridge/pkg/config"
	"github.com/sipeed/slackbridge/pkg/logger"
	"github.com/sipeed/slackbridge/pkg/metrics"
)

const (
	repliesPageSize = 200
	maxRepliesPages = 10
)

// ThreadMessage is one message of a Slack thread as returned by
// conversations.replies.
type ThreadMessage struct {
	User            string
	Text            string
	Timestamp       string
	ThreadTimestamp string
	BotID           string
}

type PostResult struct {
	Channel   string
	Timestamp string
}

type UpdateResult struct {
	Channel   string
	Timestamp string
	Text      string
}

// PostError is returned when chat.postMessage fails.
type PostError struct {
	Channel string
	Err     error
}

func (e *PostError) Error() string {
	return fmt.Sprintf("slack: post message to %s: %v", e.Channel, e.Err)
}

func (e *PostError) Unwrap() error { return e.Err }

// UpdateError is returned when chat.update fails.
type UpdateError struct {
	Channel   string
	Timestamp string
	Err       error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("slack: update message %s in %s: %v", e.Timestamp, e.Channel, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }

// Conversation is the subset of the Slack Web API the event handler needs.
type Conversation interface {
	// FetchReplies returns the thread rooted at threadTS, oldest first. The
	// boolean is false when Slack reported a failure; callers treat that as
	// an empty thread.
	FetchReplies(ctx context.Context, channelID, threadTS string) ([]ThreadMessage, bool)
	PostMessage(ctx context.Context, channelID, threadTS, text string) (PostResult, error)
	UpdateMessage(ctx context.Context, channelID, ts, text string) (UpdateResult, error)
}

type SlackClient struct {
	api *slack.Client
}

func NewSlackClient(cfg config.SlackConfig, httpClient *http.Client) *SlackClient {
	opts := []slack.Option{}
	if httpClient != nil {
		opts = append(opts, slack.OptionHTTPClient(httpClient))
	}
	if base := strings.TrimSpace(cfg.APIBase); base != "" {
		opts = append(opts, slack.OptionAPIURL(strings.TrimRight(base, "/")+"/"))
	}
	return &SlackClient{api: slack.New(cfg.BotToken, opts...)}
}

func (c *SlackClient) FetchReplies(ctx context.Context, channelID, threadTS string) ([]ThreadMessage, bool) {
	params := &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
		Limit:     repliesPageSize,
	}

	var thread []ThreadMessage
	for page := 0; page < maxRepliesPages; page++ {
		msgs, hasMore, nextCursor, err := c.api.GetConversationRepliesContext(ctx, params)
		observe("conversations.replies", err)
		if err != nil {
			logger.WarnCF("slack", "conversations.replies failed", map[string]interface{}{
				"channel":   channelID,
				"thread_ts": threadTS,
				"page":      page,
				"error":     err.Error(),
			})
			return nil, false
		}

		for _, m := range msgs {
			thread = append(thread, ThreadMessage{
				User:            m.User,
				Text:            m.Text,
				Timestamp:       m.Timestamp,
				ThreadTimestamp: m.ThreadTimestamp,
				BotID:           m.BotID,
			})
		}

		if !hasMore || nextCursor == "" {
			return thread, true
		}
		params.Cursor = nextCursor
	}

	logger.WarnCF("slack", "Thread truncated at page limit", map[string]interface{}{
		"channel":   channelID,
		"thread_ts": threadTS,
		"messages":  len(thread),
	})
	return thread, true
}

func (c *SlackClient) PostMessage(ctx context.Context, channelID, threadTS, text string) (PostResult, error) {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if ts := strings.TrimSpace(threadTS); ts != "" {
		opts = append(opts, slack.MsgOptionTS(ts))
	}

	ch, ts, err := c.api.PostMessageContext(ctx, channelID, opts...)
	observe("chat.postMessage", err)
	if err != nil {
		return PostResult{}, &PostError{Channel: channelID, Err: err}
	}
	return PostResult{Channel: ch, Timestamp: ts}, nil
}

func (c *SlackClient) UpdateMessage(ctx context.Context, channelID, ts, text string) (UpdateResult, error) {
	ch, newTS, newText, err := c.api.UpdateMessageContext(ctx, channelID, ts, slack.MsgOptionText(text, false))
	observe("chat.update", err)
	if err != nil {
		return UpdateResult{}, &UpdateError{Channel: channelID, Timestamp: ts, Err: err}
	}
	return UpdateResult{Channel: ch, Timestamp: newTS, Text: newText}, nil
}

func observe(method string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.SlackCallsTotal.WithLabelValues(method, outcome).Inc()
}
