package slack

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// Poster implements the orchestrator's Transport over the Slack API.
type Poster struct {
	api    BotAPI
	logger zerolog.Logger
}

// NewPoster creates a Poster.
func NewPoster(api BotAPI, logger zerolog.Logger) *Poster {
	return &Poster{
		api:    api,
		logger: logger.With().Str("component", "slack.poster").Logger(),
	}
}

// Deliver posts text to the channel, threaded when threadTS is set.
func (p *Poster) Deliver(_ context.Context, channel, threadTS, text string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	_, ts, err := p.api.PostMessage(channel, opts...)
	if err != nil {
		return fmt.Errorf("posting message: %w", err)
	}

	p.logger.Debug().Str("channel", channel).Str("ts", ts).Msg("reply delivered")
	return nil
}
