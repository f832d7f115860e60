// Package openai provides a decision provider backed by the OpenAI chat API.
//
// The model is asked to answer in strict JSON (response_format json_object)
// following a fixed schema. Malformed model output never fails the turn:
// missing or unparseable fields degrade to ask_clarification.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/clemgrt/rendezvox/pkg/provider/decision"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-5-nano"

const systemPrompt = "Tu es un agent de rendez-vous. Objectif: inviter l’interlocuteur au dashboard. " +
	"Pas de planification étape par étape. À chaque tour, choisis l’enregistrement (record_id) le plus utile pour progresser. " +
	"Si un email complet est détecté, propose action=do_tool avec variables.email. " +
	"Si aucun enregistrement ne convient, propose ask_clarification. " +
	"Réponds STRICTEMENT en JSON suivant le schéma demandé. " +
	"IMPORTANT: ne propose qu'un record_id appartenant à allowed_record_ids. Si la liste est vide, propose ask_clarification."

// Compile-time assertion that Provider implements decision.Provider.
var _ decision.Provider = (*Provider)(nil)

// Provider implements decision.Provider using the OpenAI chat API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	model   string
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithModel overrides the default chat model.
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI decision Provider.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}

	cfg := &config{model: DefaultModel}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Provider{client: oai.NewClient(reqOpts...), model: cfg.model}, nil
}

// promptPayload is the user message handed to the model, serialized as JSON.
type promptPayload struct {
	LastUserText     string                   `json:"last_user_text"`
	MemoryFlags      map[string]bool          `json:"memory_flags"`
	Records          []decision.RecordSummary `json:"records"`
	AllowedRecordIDs []string                 `json:"allowed_record_ids"`
	Schema           promptSchema             `json:"schema"`
}

type promptSchema struct {
	Action    string            `json:"action"`
	RecordID  string            `json:"record_id"`
	Variables map[string]string `json:"variables"`
	Reason    string            `json:"reason"`
}

// rawDecision tolerates null and missing fields in the model output.
type rawDecision struct {
	Action    string            `json:"action"`
	RecordID  *string           `json:"record_id"`
	Variables map[string]string `json:"variables"`
	Reason    string            `json:"reason"`
}

// Decide implements decision.Provider.
func (p *Provider) Decide(ctx context.Context, req decision.Request) (decision.Decision, error) {
	payload := promptPayload{
		LastUserText:     req.LastUserText,
		MemoryFlags:      req.Flags,
		Records:          req.Records,
		AllowedRecordIDs: req.AllowedRecordIDs,
		Schema: promptSchema{
			Action:    "play_record | do_tool | ask_clarification | end",
			RecordID:  "string | null",
			Variables: map[string]string{"email": "string | null"},
			Reason:    "string",
		},
	}
	if payload.MemoryFlags == nil {
		payload.MemoryFlags = map[string]bool{}
	}
	if payload.AllowedRecordIDs == nil {
		payload.AllowedRecordIDs = []string{}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return decision.Decision{}, fmt.Errorf("openai: marshal payload: %w", err)
	}

	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(string(body)),
		},
		ResponseFormat: oai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return decision.Decision{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return decision.Decision{}, fmt.Errorf("openai: empty choices in response")
	}

	return parseDecision(resp.Choices[0].Message.Content), nil
}

// parseDecision decodes model output, degrading to ask_clarification on
// anything it cannot make sense of.
func parseDecision(content string) decision.Decision {
	fallback := decision.Decision{
		Action:    decision.ActionAskClarification,
		Variables: map[string]string{},
		Reason:    "fallback",
	}
	if content == "" {
		return fallback
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return fallback
	}

	out := decision.Decision{
		Action:    decision.Action(raw.Action),
		Variables: raw.Variables,
		Reason:    raw.Reason,
	}
	if raw.RecordID != nil {
		out.RecordID = *raw.RecordID
	}
	if out.Variables == nil {
		out.Variables = map[string]string{}
	}

	switch out.Action {
	case decision.ActionPlayRecord, decision.ActionDoTool, decision.ActionAskClarification, decision.ActionEnd:
	default:
		out.Action = decision.ActionAskClarification
	}
	return out
}
