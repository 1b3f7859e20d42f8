// Package probe drives an OpenAI-compatible chat-completion API to check
// whether a model reaches for generate_lorem_ipsum, with and without the tool
// declared.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sweetpotato0/lorem-mcp/config"
	apperrors "github.com/sweetpotato0/lorem-mcp/errors"
	"github.com/sweetpotato0/lorem-mcp/lorem"
	"github.com/sweetpotato0/lorem-mcp/message"
	"github.com/sweetpotato0/lorem-mcp/pkg/logging"
	"github.com/sweetpotato0/lorem-mcp/pkg/telemetry"
	"github.com/sweetpotato0/lorem-mcp/tool"
)

const chatCompletionsSuffix = "/chat/completions"

var errNoChoices = errors.New("probe: no choices returned")

// BaseURL turns a chat-completions URL into the API base the SDK expects.
func BaseURL(endpoint string) string {
	base := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	return strings.TrimSuffix(base, chatCompletionsSuffix)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every API call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the probe logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to one model behind an OpenAI-compatible endpoint.
type Client struct {
	cfg        config.LLMConfig
	api        openai.Client
	httpClient *http.Client
	logger     *slog.Logger
}

// New validates cfg and builds a Client. Retries are disabled so that an
// unreachable endpoint fails fast.
func New(cfg config.LLMConfig, opts ...Option) (*Client, error) {
	if err := config.ValidateLLMConfig(cfg); err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}

	c := &Client{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		logger:     logging.WithComponent("probe"),
	}
	for _, opt := range opts {
		opt(c)
	}

	reqOpts := []option.RequestOption{
		option.WithBaseURL(BaseURL(cfg.URL)),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(cfg.APIKey))
	}
	c.api = openai.NewClient(reqOpts...)

	return c, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Reply is the outcome of a single completion without tool execution.
type Reply struct {
	Transcript   message.Transcript
	Content      string
	Model        string
	TotalTokens  int64
	FinishReason string
}

// MentionsTool reports whether the reply talks about the lorem tool.
func (r *Reply) MentionsTool() bool {
	if r == nil {
		return false
	}
	content := strings.ToLower(r.Content)
	return strings.Contains(content, "tool") || strings.Contains(content, lorem.ToolName)
}

// Invocation records one tool call requested by the model.
type Invocation struct {
	ID     string
	Name   string
	Args   map[string]any
	Output string
	Err    error
}

// Report is the outcome of a tool round trip.
type Report struct {
	Transcript   message.Transcript
	Calls        []Invocation
	Answer       string
	Model        string
	TotalTokens  int64
	FinishReason string
}

// ToolCalled reports whether the model requested at least one tool call.
func (r *Report) ToolCalled() bool {
	return r != nil && len(r.Calls) > 0
}

// Chat sends prompt as a lone user message.
func (c *Client) Chat(ctx context.Context, prompt string) (*Reply, error) {
	return c.reply(ctx, []*message.Message{message.NewMessage(message.RoleUser, prompt)})
}

// ChatWithHint prefixes prompt with a system message. No tool is declared, so
// the model can only talk about the tool it was told about.
func (c *Client) ChatWithHint(ctx context.Context, system, prompt string) (*Reply, error) {
	return c.reply(ctx, []*message.Message{
		message.NewMessage(message.RoleSystem, system),
		message.NewMessage(message.RoleUser, prompt),
	})
}

func (c *Client) reply(ctx context.Context, conversation []*message.Message) (*Reply, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(conversation))
	for _, m := range conversation {
		switch m.Role {
		case message.RoleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		case message.RoleUser:
			params = append(params, openai.UserMessage(m.Content))
		}
	}

	completion, err := c.complete(ctx, params, nil)
	if err != nil {
		return nil, err
	}
	choice := completion.Choices[0]

	transcript := message.Transcript(conversation)
	transcript = append(transcript, message.NewMessage(message.RoleAssistant, choice.Message.Content))

	return &Reply{
		Transcript:   transcript,
		Content:      choice.Message.Content,
		Model:        completion.Model,
		TotalTokens:  completion.Usage.TotalTokens,
		FinishReason: choice.FinishReason,
	}, nil
}

// ToolRoundTrip declares every tool in registry, executes the calls the model
// requests and sends the results back for a final answer. Tool failures are
// reported to the model as text rather than aborting the exchange.
func (c *Client) ToolRoundTrip(ctx context.Context, prompt string, registry *tool.Registry) (*Report, error) {
	if registry == nil || len(registry.List()) == 0 {
		return nil, fmt.Errorf("%w: probe needs at least one tool", apperrors.ErrInvalidInput)
	}
	declared, err := declareTools(registry.List())
	if err != nil {
		return nil, err
	}

	report := &Report{
		Transcript: message.Transcript{message.NewMessage(message.RoleUser, prompt)},
	}
	params := []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)}

	first, err := c.complete(ctx, params, declared)
	if err != nil {
		return nil, err
	}
	choice := first.Choices[0]
	report.Model = first.Model
	report.TotalTokens = first.Usage.TotalTokens
	report.FinishReason = choice.FinishReason

	if len(choice.Message.ToolCalls) == 0 {
		report.Answer = choice.Message.Content
		report.Transcript = append(report.Transcript, message.NewMessage(message.RoleAssistant, choice.Message.Content))
		return report, nil
	}

	calls := make([]message.ToolCall, 0, len(choice.Message.ToolCalls))
	responses := make([]*message.Message, 0, len(choice.Message.ToolCalls))
	params = append(params, choice.Message.ToParam())

	for _, tc := range choice.Message.ToolCalls {
		inv := Invocation{ID: tc.ID, Name: tc.Function.Name}
		inv.Args, inv.Err = decodeArguments(tc.Function.Arguments)
		if inv.Err == nil {
			inv.Output, inv.Err = registry.Execute(ctx, inv.Name, inv.Args)
		}

		output := inv.Output
		if inv.Err != nil {
			c.logger.Warn("tool call failed", "tool", inv.Name, "error", inv.Err)
			output = "error: " + inv.Err.Error()
		}

		report.Calls = append(report.Calls, inv)
		calls = append(calls, message.ToolCall{ID: inv.ID, Name: inv.Name, Args: inv.Args, Response: output})
		responses = append(responses, message.NewToolResponseMessage(inv.ID, output))
		params = append(params, openai.ToolMessage(output, inv.ID))
	}

	report.Transcript = append(report.Transcript, message.NewToolCallMessage(choice.Message.Content, calls))
	report.Transcript = append(report.Transcript, responses...)

	final, err := c.complete(ctx, params, declared)
	if err != nil {
		return nil, err
	}
	answer := final.Choices[0]
	report.Answer = answer.Message.Content
	report.TotalTokens += final.Usage.TotalTokens
	report.FinishReason = answer.FinishReason
	report.Transcript = append(report.Transcript, message.NewMessage(message.RoleAssistant, answer.Message.Content))

	return report, nil
}

// Available checks that the endpoint answers HTTP at all. Any API response,
// including an error status, counts as reachable.
func (c *Client) Available(ctx context.Context) error {
	_, err := c.api.Models.List(ctx)
	if err == nil {
		return nil
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", apperrors.ErrUnavailable, BaseURL(c.cfg.URL), err)
}

func (c *Client) complete(ctx context.Context, params []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolUnionParam) (*openai.ChatCompletion, error) {
	ctx, span := telemetry.Start(ctx, "probe.chat_completion",
		attribute.String("llm.model", c.cfg.Model),
		attribute.Int("llm.messages", len(params)),
		attribute.Int("llm.tools", len(tools)),
	)

	req := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.Model),
		Messages:    params,
		Temperature: openai.Float(c.cfg.Temperature),
		MaxTokens:   openai.Int(int64(c.cfg.MaxTokens)),
	}
	if len(tools) > 0 {
		req.Tools = tools
	}

	completion, err := c.api.Chat.Completions.New(ctx, req)
	if err == nil && len(completion.Choices) == 0 {
		err = errNoChoices
	}
	if err != nil {
		err = classify(ctx, err)
		telemetry.End(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("llm.total_tokens", completion.Usage.TotalTokens))
	telemetry.End(span, nil)
	c.logger.Debug("chat completion",
		"model", completion.Model,
		"finish_reason", completion.Choices[0].FinishReason,
		"tool_calls", len(completion.Choices[0].Message.ToolCalls),
		"total_tokens", completion.Usage.TotalTokens,
	)
	return completion, nil
}

func classify(ctx context.Context, err error) error {
	var apiErr *openai.Error
	switch {
	case errors.As(err, &apiErr):
		return fmt.Errorf("probe: chat completion: %w", err)
	case ctx.Err() != nil:
		return fmt.Errorf("probe: chat completion: %w", ctx.Err())
	case errors.Is(err, errNoChoices):
		return err
	default:
		return fmt.Errorf("%w: chat completion: %w", apperrors.ErrUnavailable, err)
	}
}

func declareTools(tools []*tool.Tool) ([]openai.ChatCompletionToolUnionParam, error) {
	declared := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema, err := t.ParametersSchema()
		if err != nil {
			return nil, fmt.Errorf("probe: declare %s: %w", t.Name, err)
		}
		declared = append(declared, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  openai.FunctionParameters(schema),
		}))
	}
	return declared, nil
}

func decodeArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: tool arguments: %w", apperrors.ErrInvalidInput, err)
	}
	return args, nil
}
