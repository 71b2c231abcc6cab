// Package orchestrator coordinates a message's full round trip: persona
// selection, prompt enrichment, the model tool loop, capability execution,
// workflow state updates, and reply delivery.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/devteam-agent/internal/capability"
	"github.com/p-blackswan/devteam-agent/internal/conversation"
	"github.com/p-blackswan/devteam-agent/internal/handoff"
	"github.com/p-blackswan/devteam-agent/internal/llm"
	"github.com/p-blackswan/devteam-agent/internal/mention"
	"github.com/p-blackswan/devteam-agent/internal/metrics"
	"github.com/p-blackswan/devteam-agent/internal/persona"
)

// maxToolRounds bounds the model tool loop per persona turn.
const maxToolRounds = 8

// InboundMessage is one normalised transport event. Immutable once created.
type InboundMessage struct {
	ID               string
	Timestamp        time.Time
	SenderID         string
	RawText          string
	Channel          string
	ThreadTS         string
	ExplicitMentions []string // nil when the transport did not pre-extract
}

// Transport delivers reply text back to the chat platform.
type Transport interface {
	Deliver(ctx context.Context, channel, threadTS, text string) error
}

// Orchestrator routes inbound messages through persona turns.
type Orchestrator struct {
	registry  *persona.Registry
	extractor *mention.Extractor
	history   *conversation.HistoryStore
	tracker   *conversation.Tracker
	mediator  *handoff.Mediator
	model     llm.Provider
	caps      capability.Provider
	transport Transport
	metrics   *metrics.Metrics
	lenient   bool
	logger    zerolog.Logger
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Registry  *persona.Registry
	Extractor *mention.Extractor
	History   *conversation.HistoryStore
	Tracker   *conversation.Tracker
	Mediator  *handoff.Mediator
	Model     llm.Provider
	Caps      capability.Provider
	Transport Transport
	Metrics   *metrics.Metrics

	// LenientRouting enables the mediator fallback for messages without a
	// resolvable mention. Strict mode ignores such messages.
	LenientRouting bool
}

// New creates an orchestrator.
func New(cfg Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		registry:  cfg.Registry,
		extractor: cfg.Extractor,
		history:   cfg.History,
		tracker:   cfg.Tracker,
		mediator:  cfg.Mediator,
		model:     cfg.Model,
		caps:      cfg.Caps,
		transport: cfg.Transport,
		metrics:   cfg.Metrics,
		lenient:   cfg.LenientRouting,
		logger:    logger.With().Str("component", "orchestrator").Logger(),
	}
}

// RegisterPersona adds a persona to the registry.
func (o *Orchestrator) RegisterPersona(p *persona.Persona) error {
	return o.registry.Register(p)
}

// HandleInboundMessage processes one message to completion. It never returns
// an error to the transport: every failure is caught, reported in-channel,
// and isolated to the persona whose turn failed.
func (o *Orchestrator) HandleInboundMessage(ctx context.Context, msg InboundMessage) {
	key := conversation.NewKey(msg.Channel, msg.ThreadTS)

	ext := o.extractor.Extract(msg.RawText)
	mentions := msg.ExplicitMentions
	if mentions == nil {
		mentions = ext.PersonaIDs
	}

	targets := o.resolveTargets(msg, ext, mentions)
	if len(targets) == 0 {
		o.logger.Debug().Str("conversation", key.String()).Msg("no routing target, message ignored")
		o.metrics.RecordMessage("none", "ignored")
		return
	}

	for _, p := range targets {
		start := time.Now()
		if err := o.processTurn(ctx, key, msg, ext, p); err != nil {
			o.logger.Error().Err(err).Str("persona", p.ID).Msg("persona turn failed")
			o.metrics.RecordMessage(p.ID, "error")
			o.metrics.RecordError("orchestrator", "turn")
			o.apologise(ctx, msg, p, err)
			continue
		}
		o.metrics.RecordMessage(p.ID, "ok")
		o.metrics.ObserveTurn(p.ID, time.Since(start).Seconds())
	}
	o.metrics.SetActiveConversations(float64(o.tracker.Count()))
}

// resolveTargets returns the personas to process: every resolving explicit
// mention (the broadcast case), or — in lenient mode — the mediator's single
// fallback choice when nothing resolves.
func (o *Orchestrator) resolveTargets(msg InboundMessage, ext mention.Result, mentions []string) []*persona.Persona {
	var targets []*persona.Persona
	for _, id := range mentions {
		if p, ok := o.registry.Get(id); ok {
			targets = append(targets, p)
		}
	}
	if len(targets) > 0 {
		return targets
	}

	if !o.lenient {
		return nil
	}
	if p := o.mediator.DetermineNextPersona(msg.Channel, msg.ThreadTS, nil, ext.CleanText); p != nil {
		return []*persona.Persona{p}
	}
	return nil
}

// processTurn runs one persona's full turn for the message.
func (o *Orchestrator) processTurn(ctx context.Context, key conversation.Key, msg InboundMessage, ext mention.Result, p *persona.Persona) error {
	prompt := o.buildPrompt(p, ext)

	messages := historyMessages(o.history.History(key))
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	text, results, err := o.runModelLoop(ctx, key, p, messages)
	if err != nil {
		return err
	}

	o.tracker.Update(key, conversation.Patch{LastAgentRole: p.Role})

	combined := renderReply(p, text, results)
	if err := o.transport.Deliver(ctx, msg.Channel, msg.ThreadTS, combined); err != nil {
		return fmt.Errorf("delivering reply: %w", err)
	}

	o.history.Append(key, msg.RawText, combined)
	return nil
}

// runModelLoop drives the model until it stops requesting tools, executing
// capability calls sequentially in the order requested so later calls can
// rely on earlier side effects.
func (o *Orchestrator) runModelLoop(ctx context.Context, key conversation.Key, p *persona.Persona, messages []llm.Message) (string, []capability.Result, error) {
	req := llm.CompletionRequest{
		SystemPrompt: p.SystemPrompt(),
		Tools:        capability.Schemas(p.Capabilities),
	}

	var text string
	var results []capability.Result

	for round := 0; round < maxToolRounds; round++ {
		req.Messages = messages
		resp, err := o.model.Complete(ctx, req)
		if err != nil {
			return "", nil, fmt.Errorf("model completion: %w", err)
		}
		if resp.Text != "" {
			if text != "" {
				text += "\n"
			}
			text += resp.Text
		}

		if resp.StopReason != llm.StopReasonToolUse || len(resp.ToolUses) == 0 {
			return text, results, nil
		}

		messages = append(messages, llm.Message{
			Role:     llm.RoleAssistant,
			Content:  resp.Text,
			ToolUses: resp.ToolUses,
		})

		for _, tu := range resp.ToolUses {
			res := o.invokeCapability(ctx, key, p, tu)
			results = append(results, res)

			if res.Success {
				messages = append(messages, llm.ToolResultMessage(tu.ID, res.Payload.Summary(), false))
			} else {
				messages = append(messages, llm.ToolResultMessage(tu.ID, res.Err.Error(), true))
			}
		}
	}

	return text, results, nil
}

// invokeCapability executes one requested call and, on success, advances the
// conversation's workflow state. Failures are captured in the Result and
// never advance the stage.
func (o *Orchestrator) invokeCapability(ctx context.Context, key conversation.Key, p *persona.Persona, tu llm.ToolUse) capability.Result {
	res := capability.Result{Name: tu.Name, Arguments: tu.Input}

	payload, err := o.caps.Invoke(ctx, tu.Name, tu.Input)
	if err != nil {
		res.Err = err
		o.metrics.RecordCapability(tu.Name, "error")
		return res
	}

	res.Success = true
	res.Payload = payload
	o.metrics.RecordCapability(tu.Name, "ok")
	o.applyResult(key, p, res)
	return res
}

// apologise reports a failed persona turn in-channel without propagating.
func (o *Orchestrator) apologise(ctx context.Context, msg InboundMessage, p *persona.Persona, turnErr error) {
	text := fmt.Sprintf("⚠️ %s ran into a problem handling that message: %v", p.DisplayName, turnErr)
	if err := o.transport.Deliver(ctx, msg.Channel, msg.ThreadTS, text); err != nil {
		o.logger.Error().Err(err).Msg("failed to deliver error reply")
	}
}

// historyMessages converts stored turns into model messages, oldest first.
func historyMessages(entries []conversation.HistoryEntry) []llm.Message {
	out := make([]llm.Message, 0, len(entries))
	for _, e := range entries {
		role := llm.RoleUser
		if e.Role == conversation.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: e.Text})
	}
	return out
}
