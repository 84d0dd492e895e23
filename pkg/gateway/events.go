package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/slack-go/slack/slackevents"
)

type PayloadKind int

const (
	Unrecognized PayloadKind = iota
	Handshake
	Mention
)

func (k PayloadKind) String() string {
	switch k {
	case Handshake:
		return "handshake"
	case Mention:
		return "mention"
	default:
		return "unrecognized"
	}
}

// Payload is a decoded Events API request body. Exactly one of Challenge
// (Handshake) or Mention (Mention) is meaningful, selected by Kind.
type Payload struct {
	Kind      PayloadKind
	Challenge string
	Mention   *slackevents.AppMentionEvent
	EventID   string
	TeamID    string
}

type envelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	TeamID    string          `json:"team_id"`
	EventID   string          `json:"event_id"`
	Event     json.RawMessage `json:"event"`
}

// DecodePayload classifies body. It fails only when body is not a JSON
// object; shapes it does not know decode as Unrecognized.
func DecodePayload(body []byte) (Payload, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Payload{}, fmt.Errorf("decode event payload: %w", err)
	}

	p := Payload{Kind: Unrecognized, EventID: env.EventID, TeamID: env.TeamID}

	if env.Type == slackevents.URLVerification {
		p.Kind = Handshake
		p.Challenge = env.Challenge
		return p, nil
	}

	if len(env.Event) == 0 {
		return p, nil
	}
	var inner struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(env.Event, &inner); err != nil || inner.Type != string(slackevents.AppMention) {
		return p, nil
	}

	var ev slackevents.AppMentionEvent
	if err := json.Unmarshal(env.Event, &ev); err != nil {
		return Payload{}, fmt.Errorf("decode app_mention event: %w", err)
	}
	p.Kind = Mention
	p.Mention = &ev
	return p, nil
}
