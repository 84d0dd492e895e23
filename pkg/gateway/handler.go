package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/slack-go/slack/slackevents"

	"github.com/sipeed/slackbridge/pkg/agent"
	"github.com/sipeed/slackbridge/pkg/channels"
	"github.com/sipeed/slackbridge/pkg/logger"
	"github.com/sipeed/slackbridge/pkg/metrics"
	"github.com/sipeed/slackbridge/pkg/providers"
	"github.com/sipeed/slackbridge/pkg/signature"
)

const (
	headerRetryNum  = "X-Slack-Retry-Num"
	headerTimestamp = "X-Slack-Request-Timestamp"
	headerSignature = "X-Slack-Signature"

	maxBodyBytes = 1 << 20
)

// Options carries the per-deployment text and limits used when answering a
// mention.
type Options struct {
	BotID            string
	Model            string
	Prompt           string
	MaxReferMessages int
	TempMessage      string
	ErrorMessage     string
}

// EventHandler serves POST /slack/events.
type EventHandler struct {
	verifier *signature.Verifier
	conv     channels.Conversation
	llm      providers.LLMProvider
	opts     Options
}

func NewEventHandler(verifier *signature.Verifier, conv channels.Conversation, llm providers.LLMProvider, opts Options) *EventHandler {
	return &EventHandler{
		verifier: verifier,
		conv:     conv,
		llm:      llm,
		opts:     opts,
	}
}

func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := chimw.GetReqID(r.Context())

	// Slack redelivers when the first attempt takes longer than 3s. Handling
	// a mention is not idempotent, so redeliveries are acknowledged and dropped.
	if _, retry := r.Header[headerRetryNum]; retry {
		metrics.EventsTotal.WithLabelValues("retry").Inc()
		logger.InfoCF("gateway", "Ignoring Slack retry", map[string]interface{}{
			"request_id": reqID,
			"retry_num":  r.Header.Get(headerRetryNum),
		})
		writeText(w, http.StatusOK, "Retry request")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		logger.ErrorCF("gateway", "Failed to read request body", map[string]interface{}{
			"request_id": reqID,
			"error":      err.Error(),
		})
		writeText(w, http.StatusBadRequest, "Bad request")
		return
	}

	if err := h.verifier.Verify(r.Header.Get(headerTimestamp), body, r.Header.Get(headerSignature)); err != nil {
		metrics.EventsTotal.WithLabelValues("invalid").Inc()
		logger.WarnCF("gateway", "Rejected request signature", map[string]interface{}{
			"request_id": reqID,
			"reason":     err.Error(),
			"timestamp":  r.Header.Get(headerTimestamp),
		})
		writeText(w, http.StatusOK, "Invalid request")
		return
	}

	payload, err := DecodePayload(body)
	if err != nil {
		metrics.EventsTotal.WithLabelValues("malformed").Inc()
		logger.ErrorCF("gateway", "Malformed event payload", map[string]interface{}{
			"request_id": reqID,
			"error":      err.Error(),
		})
		writeText(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	switch payload.Kind {
	case Handshake:
		metrics.EventsTotal.WithLabelValues("handshake").Inc()
		logger.InfoCF("gateway", "Answered URL verification", map[string]interface{}{
			"request_id": reqID,
		})
		writeJSON(w, http.StatusOK, map[string]string{"challenge": payload.Challenge})

	case Mention:
		// Slack may drop the connection after its 3s budget. The placeholder
		// must still be resolved, so outbound calls do not inherit cancellation.
		ctx := context.WithoutCancel(r.Context())
		if err := h.handleMention(ctx, reqID, payload.Mention); err != nil {
			metrics.EventsTotal.WithLabelValues("failed").Inc()
			logger.ErrorCF("gateway", "Mention handling failed", map[string]interface{}{
				"request_id": reqID,
				"kind":       payload.Kind.String(),
				"event_id":   payload.EventID,
				"team_id":    payload.TeamID,
				"channel":    payload.Mention.Channel,
				"error":      err.Error(),
			})
			writeText(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		metrics.EventsTotal.WithLabelValues("mention").Inc()
		writeText(w, http.StatusOK, "Event received")

	default:
		metrics.EventsTotal.WithLabelValues("unrecognized").Inc()
		logger.InfoCF("gateway", "Unrecognized event payload", map[string]interface{}{
			"request_id": reqID,
			"kind":       payload.Kind.String(),
			"event_id":   payload.EventID,
			"team_id":    payload.TeamID,
		})
		writeText(w, http.StatusNotFound, "Not found")
	}
}

func (h *EventHandler) handleMention(ctx context.Context, reqID string, ev *slackevents.AppMentionEvent) error {
	placeholder, err := h.conv.PostMessage(ctx, ev.Channel, ev.TimeStamp, h.opts.TempMessage)
	if err != nil {
		return err
	}

	threadTS := ev.ThreadTimeStamp
	if threadTS == "" {
		threadTS = ev.TimeStamp
	}
	thread, ok := h.conv.FetchReplies(ctx, ev.Channel, threadTS)
	if !ok {
		logger.WarnCF("gateway", "Could not fetch thread, answering without history", map[string]interface{}{
			"request_id": reqID,
			"channel":    ev.Channel,
			"thread_ts":  threadTS,
		})
	}

	window := agent.BuildPrompt(thread, h.opts.BotID, h.opts.MaxReferMessages)
	logger.DebugCF("gateway", "Built prompt window", map[string]interface{}{
		"request_id":     reqID,
		"thread_size":    len(thread),
		"window_entries": len(window),
	})

	text := h.opts.ErrorMessage
	if reply, err := h.complete(ctx, window); err != nil {
		logger.ErrorCF("gateway", "Completion failed, posting error message", map[string]interface{}{
			"request_id": reqID,
			"provider":   h.llm.Name(),
			"model":      h.opts.Model,
			"error":      err.Error(),
		})
	} else {
		text = reply
	}

	if _, err := h.conv.UpdateMessage(ctx, ev.Channel, placeholder.Timestamp, text); err != nil {
		return err
	}

	logger.InfoCF("gateway", "Answered mention", map[string]interface{}{
		"request_id": reqID,
		"channel":    ev.Channel,
		"user":       ev.User,
		"thread_ts":  threadTS,
		"reply_ts":   placeholder.Timestamp,
	})
	return nil
}

func (h *EventHandler) complete(ctx context.Context, window []providers.Message) (string, error) {
	provider := h.llm.Name()
	vendor := providers.InferProviderFromModel(h.opts.Model)
	start := time.Now()

	resp, err := providers.Generate(ctx, h.llm, h.opts.Prompt, window, h.opts.Model)
	metrics.CompletionDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CompletionsTotal.WithLabelValues(provider, vendor, "error").Inc()
		return "", err
	}

	metrics.CompletionsTotal.WithLabelValues(provider, vendor, "ok").Inc()
	if resp.Usage != nil {
		metrics.CompletionTokens.WithLabelValues(provider, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.CompletionTokens.WithLabelValues(provider, "completion").Add(float64(resp.Usage.CompletionTokens))
	}
	return resp.Content, nil
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
