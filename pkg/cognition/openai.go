package cognition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are CineMate, a warm companion watching a movie together with an elderly user. You see periodic descriptions of the room and hear what the user says. Decide whether to speak. Speak sparingly: comment on the film or the scene only when it adds comfort or connection, always respond to distress with reassurance, and never interrupt for trivia. Keep utterances to one or two short sentences.
Respond with only a JSON object with exactly these fields:
{"should_speak": true or false, "emotion": "empathetic|cheerful|calm|concerned|neutral", "content": "what to say, empty if silent", "reasoning": "one short sentence"}`

// OpenAIReasoner makes speak/stay-silent decisions with an OpenAI
// chat model.
type OpenAIReasoner struct {
	cfg    Config
	client *openai.Client
	logger *slog.Logger
}

// NewOpenAIReasoner creates an OpenAI-backed reasoner.
func NewOpenAIReasoner(cfg Config, logger *slog.Logger) (*OpenAIReasoner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIReasoner{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: logger.With("component", "cognition", "model", cfg.Model),
	}, nil
}

// Decide runs one cognition pass.
func (r *OpenAIReasoner) Decide(ctx context.Context, req *Request) (*Decision, error) {
	if req == nil || (req.Observation == nil && req.UserUtterance == "") {
		return nil, ErrEmptyRequest
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserMessage(req)},
		},
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("cognition: chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	decision, err := ParseDecision(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("cognition pass complete",
		"trigger", req.Trigger,
		"should_speak", decision.ShouldSpeak,
		"emotion", decision.Emotion,
		"reasoning", decision.Reasoning)
	return decision, nil
}

// Name returns "openai".
func (r *OpenAIReasoner) Name() string { return "openai" }

// buildUserMessage renders the request as a compact briefing.
func buildUserMessage(req *Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Trigger: %s\n", req.Trigger)
	if req.Observation != nil {
		fmt.Fprintf(&b, "Scene: %s\n", req.Observation.Caption)
		if len(req.Observation.Tags) > 0 {
			fmt.Fprintf(&b, "Scene tags: %s\n", strings.Join(req.Observation.Tags, ", "))
		}
		fmt.Fprintf(&b, "People visible: %d\n", req.Observation.PeopleCount)
	}
	if req.UserUtterance != "" {
		fmt.Fprintf(&b, "User just said: %q\n", req.UserUtterance)
	}
	if len(req.Entities) > 0 {
		b.WriteString("Known people and characters:\n")
		for name, desc := range req.Entities {
			fmt.Fprintf(&b, "- %s: %s\n", name, desc)
		}
	}
	if len(req.History) > 0 {
		b.WriteString("Your recent utterances, oldest first:\n")
		for _, u := range req.History {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}
	return b.String()
}

var _ Reasoner = (*OpenAIReasoner)(nil)
