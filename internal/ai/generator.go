package ai

import (
	"context"
	"errors"
	"strings"
)

// Params are the sampling settings applied to every request a Generator sends.
type Params struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
	// System, when set, is sent as a leading system message.
	System string
}

// DefaultParams mirrors the dashboard's generation settings.
var DefaultParams = Params{Temperature: 0.7, TopP: 0.9, MaxTokens: 4096}

// Generator turns one prompt into one completion. It is what the analysis
// service consumes.
type Generator struct {
	rt     Runtime
	model  string
	params Params
	// LastUsage holds token usage of the most recent successful call.
	LastUsage Usage
}

func NewGenerator(rt Runtime, model string, params Params) *Generator {
	return &Generator{rt: rt, model: model, params: params}
}

// Model reports the model name requests are sent with.
func (g *Generator) Model() string { return g.model }

// Generate sends prompt as a single user message and returns the text of the first choice.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.rt == nil {
		return "", errors.New("no runtime configured")
	}
	var msgs []Message
	if s := strings.TrimSpace(g.params.System); s != "" {
		msgs = append(msgs, Message{Role: "system", Content: s})
	}
	msgs = append(msgs, Message{Role: "user", Content: prompt})
	resp, err := g.rt.Generate(ctx, GenerateRequest{
		Model:       g.model,
		Messages:    msgs,
		MaxTokens:   g.params.MaxTokens,
		Temperature: g.params.Temperature,
		TopP:        g.params.TopP,
	})
	if err != nil {
		return "", err
	}
	g.LastUsage = resp.Usage
	return resp.Text(), nil
}
