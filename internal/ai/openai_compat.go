package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// GeminiOpenAIBaseURL is Gemini's OpenAI-compatible endpoint, usable with the openai provider.
const GeminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// chatGenerator is the slice of the eino ChatModel surface this client uses.
type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// OpenAICompatClient drives any OpenAI-compatible chat endpoint through an eino ChatModel.
type OpenAICompatClient struct {
	cm    chatGenerator
	model string
}

// NewOpenAICompatClient builds the chat model. cfg.Model is the default used
// when a request leaves Model empty.
func NewOpenAICompatClient(cfg RuntimeConfig) (*OpenAICompatClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key is required for the openai provider")
	}
	cm, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return &OpenAICompatClient{cm: cm, model: cfg.Model}, nil
}

func (c *OpenAICompatClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	if req.Model == "" && c.model == "" {
		return nil, errors.New("model cannot be empty")
	}
	msgs := make([]*schema.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, &schema.Message{Role: toSchemaRole(m.Role), Content: m.Content})
	}
	var opts []model.Option
	if req.Model != "" {
		opts = append(opts, model.WithModel(req.Model))
	}
	if req.Temperature > 0 {
		opts = append(opts, model.WithTemperature(float32(req.Temperature)))
	}
	if req.TopP > 0 {
		opts = append(opts, model.WithTopP(float32(req.TopP)))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	resp, err := c.cm.Generate(ctx, msgs, opts...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, wrapCompatError(err)
	}
	out := &GenerateResponse{
		Choices: []Choice{{Message: Message{Role: "assistant", Content: resp.Content}}},
	}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		u := resp.ResponseMeta.Usage
		out.Usage = Usage{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens, TotalTokens: u.TotalTokens}
	}
	return out, nil
}

func toSchemaRole(role string) schema.RoleType {
	switch role {
	case "system":
		return schema.System
	case "assistant", "model":
		return schema.Assistant
	default:
		return schema.User
	}
}

var statusInText = regexp.MustCompile(`status code: (\d{3})`)

// wrapCompatError lifts the HTTP status out of the client's error text so the
// result classifies like a Gemini REST failure. Errors without a status pass through.
func wrapCompatError(err error) error {
	m := statusInText.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("chat completion: %w", err)
	}
	sc, _ := strconv.Atoi(m[1])
	apiErr := &APIError{StatusCode: sc, Message: err.Error()}
	return classifyAPIError(apiErr, nil)
}
