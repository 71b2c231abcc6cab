package slack

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBotAPI struct {
	channels []string
	optCount []int
	err      error
}

func (f *fakeBotAPI) PostMessage(channelID string, options ...slack.MsgOption) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.channels = append(f.channels, channelID)
	f.optCount = append(f.optCount, len(options))
	return channelID, "1724900000.000100", nil
}

func (f *fakeBotAPI) AuthTest() (*slack.AuthTestResponse, error) {
	return &slack.AuthTestResponse{UserID: "B_BOT"}, nil
}

func TestPoster_DeliverTopLevel(t *testing.T) {
	api := &fakeBotAPI{}
	p := NewPoster(api, zerolog.Nop())

	require.NoError(t, p.Deliver(context.Background(), "C1", "", "hello"))
	require.Len(t, api.channels, 1)
	assert.Equal(t, "C1", api.channels[0])
	assert.Equal(t, 1, api.optCount[0]) // text only, no thread option
}

func TestPoster_DeliverThreaded(t *testing.T) {
	api := &fakeBotAPI{}
	p := NewPoster(api, zerolog.Nop())

	require.NoError(t, p.Deliver(context.Background(), "C1", "1724899999.000001", "hello"))
	require.Len(t, api.optCount, 1)
	assert.Equal(t, 2, api.optCount[0]) // text plus thread_ts
}

func TestPoster_DeliverError(t *testing.T) {
	api := &fakeBotAPI{err: errors.New("channel_not_found")}
	p := NewPoster(api, zerolog.Nop())

	err := p.Deliver(context.Background(), "C_MISSING", "", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}
