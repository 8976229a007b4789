package notify

import (
	"context"

	"github.com/slack-go/slack"
)

// Slack posts messages to a channel through the Web API.
type Slack struct {
	api     *slack.Client
	channel string
}

// NewSlack builds a Slack transport for one token and channel.
func NewSlack(token, channel string) *Slack {
	return &Slack{api: slack.New(token), channel: channel}
}

// Send posts one message to the configured channel.
func (s *Slack) Send(ctx context.Context, text string) error {
	_, _, err := s.api.PostMessageContext(ctx, s.channel, slack.MsgOptionText(text, false))
	return err
}
