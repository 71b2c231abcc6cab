package slack

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/p-blackswan/devteam-agent/internal/orchestrator"
)

// MessageRouter receives normalised inbound messages. The orchestrator
// implements it; handling must never block the event loop, so each message
// runs in its own goroutine.
type MessageRouter interface {
	HandleInboundMessage(ctx context.Context, msg orchestrator.InboundMessage)
}

// Handler processes Slack Socket Mode events.
type Handler struct {
	api        BotAPI
	socket     *socketmode.Client
	botUserID  string
	router     MessageRouter
	middleware *Middleware
	logger     zerolog.Logger

	mu            sync.Mutex
	activeThreads map[string]bool // channel:threadTS the bot was mentioned in
}

// NewHandler creates a new event handler. The router is attached afterwards
// via SetRouter because the orchestrator's transport needs the Slack client
// the app construction produces.
func NewHandler(middleware *Middleware, logger zerolog.Logger) *Handler {
	return &Handler{
		middleware:    middleware,
		logger:        logger.With().Str("component", "slack.handler").Logger(),
		activeThreads: make(map[string]bool),
	}
}

// SetRouter attaches the message router.
func (h *Handler) SetRouter(router MessageRouter) {
	h.router = router
}

// HandleEvent routes Socket Mode events.
func (h *Handler) HandleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeEventsAPI:
		h.handleEventsAPI(ctx, evt)
	default:
		h.logger.Debug().Str("type", string(evt.Type)).Msg("unhandled event type")
	}
}

func (h *Handler) handleEventsAPI(ctx context.Context, evt socketmode.Event) {
	// Slack requires the ack within 3 seconds
	if h.socket != nil && evt.Request != nil {
		h.socket.Ack(*evt.Request)
	}

	eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		h.logger.Warn().Str("type", string(evt.Type)).Msg("failed to cast events_api data")
		return
	}

	if eventsAPIEvent.Type == slackevents.CallbackEvent {
		h.handleCallbackEvent(ctx, eventsAPIEvent.InnerEvent)
	}
}

func (h *Handler) handleCallbackEvent(ctx context.Context, innerEvent slackevents.EventsAPIInnerEvent) {
	switch ev := innerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		h.markThreadActive(ev.Channel, threadRoot(ev.TimeStamp, ev.ThreadTimeStamp))
		h.forward(ctx, ev.Channel, ev.User, ev.Text, ev.ThreadTimeStamp)

	case *slackevents.MessageEvent:
		// Skip our own messages and message_changed/deleted subtypes
		if ev.User == "" || ev.User == h.botUserID || ev.SubType != "" || ev.BotID != "" {
			return
		}
		// A threaded mention of the bot arrives as both app_mention and
		// message; the app_mention path owns it.
		if h.botUserID != "" && strings.Contains(ev.Text, "<@"+h.botUserID+">") {
			return
		}
		if ev.ChannelType == "im" {
			h.forward(ctx, ev.Channel, ev.User, ev.Text, ev.ThreadTimeStamp)
			return
		}
		// Thread replies route without a mention, but only in threads the
		// bot was mentioned in; top-level channel chatter only routes via
		// app_mention.
		if ev.ThreadTimeStamp != "" && h.isThreadActive(ev.Channel, ev.ThreadTimeStamp) {
			h.forward(ctx, ev.Channel, ev.User, ev.Text, ev.ThreadTimeStamp)
		}

	default:
		h.logger.Debug().Str("inner_type", innerEvent.Type).Msg("unhandled callback event type")
	}
}

// forward converts the event into an InboundMessage and hands it to the
// router on its own goroutine. ExplicitMentions stays nil: the orchestrator's
// extractor owns mention parsing.
func (h *Handler) forward(ctx context.Context, channel, user, text, threadTS string) {
	if h.router == nil || !h.middleware.CheckRateLimit(user) {
		return
	}

	msg := orchestrator.InboundMessage{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		SenderID:  user,
		RawText:   text,
		Channel:   channel,
		ThreadTS:  threadTS,
	}

	h.logger.Info().
		Str("user", user).
		Str("channel", channel).
		Str("thread", threadTS).
		Msg("inbound message")

	go h.router.HandleInboundMessage(ctx, msg)
}

// markThreadActive remembers a thread the bot was addressed in, keyed by the
// thread root. A top-level mention's own timestamp becomes the root of any
// thread that forms under it.
func (h *Handler) markThreadActive(channel, threadTS string) {
	if threadTS == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activeThreads[channel+":"+threadTS] = true
}

func (h *Handler) isThreadActive(channel, threadTS string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.activeThreads[channel+":"+threadTS]
}

func threadRoot(ts, threadTS string) string {
	if threadTS != "" {
		return threadTS
	}
	return ts
}
