// Package insight runs one analysis round trip: prompt, generation, parsing.
// Failures never escape as errors; they become user-facing messages in the result.
package insight

import (
	"context"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/dashbrief-cli/internal/ai"
	"github.com/KaramelBytes/dashbrief-cli/internal/analysis"
	"github.com/KaramelBytes/dashbrief-cli/internal/logger"
	"github.com/KaramelBytes/dashbrief-cli/internal/prompt"
	"github.com/KaramelBytes/dashbrief-cli/internal/response"
)

// Generator produces text for a prompt. *ai.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is the outcome of Summarize. Error is set only on failure or empty input.
type Result struct {
	ID              string    `json:"id"`
	Summary         string    `json:"summary"`
	KeyInsights     []string  `json:"keyInsights"`
	Trends          []string  `json:"trends"`
	Recommendations []string  `json:"recommendations,omitempty"`
	Error           string    `json:"error,omitempty"`
	Model           string    `json:"model,omitempty"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// ConnectionStatus reports whether the generator answered the probe prompt.
type ConnectionStatus struct {
	Success bool   `json:"success"`
	Model   string `json:"model,omitempty"`
	Error   string `json:"error,omitempty"`
}

const (
	summaryFallbackRunes = 1000
	quickInsightBullets  = 5
)

// Fixed results for empty input and failed generation.
const (
	EmptySummary  = "No data available for analysis."
	EmptyInsight  = "No data to analyze"
	EmptyTrend    = "Insufficient data for trend analysis"
	EmptyError    = "No data provided"
	FailedInsight = "AI service encountered an error"
	FailedTrend   = "Unable to analyze trends at this time"
)

type Service struct {
	gen   Generator
	model string
	now   func() time.Time
	log   *logrus.Logger
}

type Option func(*Service)

// WithClock replaces time.Now; it drives GeneratedAt and the quick-insights month.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *logrus.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithModel sets the model name reported in results. By default it is taken
// from the generator when it exposes Model().
func WithModel(name string) Option {
	return func(s *Service) { s.model = name }
}

func New(gen Generator, opts ...Option) *Service {
	s := &Service{gen: gen, now: time.Now, log: logger.Log}
	if m, ok := gen.(interface{ Model() string }); ok {
		s.model = m.Model()
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Summarize builds the analysis prompt for rows, sends it once and parses the reply.
func (s *Service) Summarize(ctx context.Context, rows []analysis.Row, columns []analysis.Column, opt prompt.Options) *Result {
	res := &Result{ID: uuid.NewString(), Model: s.model, GeneratedAt: s.now()}
	entry := s.log.WithFields(logrus.Fields{"request_id": res.ID, "model": s.model})
	if len(rows) == 0 {
		res.Summary = EmptySummary
		res.KeyInsights = []string{EmptyInsight}
		res.Trends = []string{EmptyTrend}
		res.Error = EmptyError
		entry.Debug("no rows; skipping generation")
		return res
	}

	p := prompt.Build(rows, columns, opt)
	entry.WithFields(logrus.Fields{"rows": len(rows), "prompt_chars": len(p)}).Debug("sending analysis prompt")
	text, err := s.gen.Generate(ctx, p)
	if err != nil {
		status := ai.StatusCode(err)
		entry.WithError(err).WithField("status", status).Warn("analysis generation failed")
		res.Summary = summaryMessage(status)
		res.KeyInsights = []string{FailedInsight}
		res.Trends = []string{FailedTrend}
		res.Error = errorDetail(err, status)
		return res
	}

	parsed := response.Parse(text)
	res.Summary = parsed.Summary
	if res.Summary == "" {
		res.Summary = truncate(text, summaryFallbackRunes)
	}
	res.KeyInsights = orEmpty(parsed.KeyInsights)
	res.Trends = orEmpty(parsed.Trends)
	res.Recommendations = parsed.Recommendations
	entry.WithFields(logrus.Fields{
		"insights": len(res.KeyInsights), "trends": len(res.Trends), "recommendations": len(res.Recommendations),
	}).Debug("analysis parsed")
	return res
}

// QuickInsights asks for five bullets about the previous calendar month.
// On failure it returns a single explanatory line instead.
func (s *Service) QuickInsights(ctx context.Context, rows []analysis.Row, columns []analysis.Column, title string) []string {
	p := prompt.BuildQuickInsights(rows, columns, title, s.now())
	text, err := s.gen.Generate(ctx, p)
	if err != nil {
		status := ai.StatusCode(err)
		s.log.WithError(err).WithField("status", status).Warn("quick insights failed")
		return []string{quickMessage(status)}
	}
	return response.ExtractBullets(text, quickInsightBullets)
}

// TestConnection sends a short probe prompt.
func (s *Service) TestConnection(ctx context.Context) ConnectionStatus {
	if _, err := s.gen.Generate(ctx, prompt.ConnectionProbe); err != nil {
		s.log.WithError(err).Warn("connection test failed")
		msg := err.Error()
		if msg == "" {
			msg = "Connection failed"
		}
		return ConnectionStatus{Error: msg}
	}
	return ConnectionStatus{Success: true, Model: s.model}
}

func summaryMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Model not found. Please check the model configuration."
	case http.StatusTooManyRequests:
		return "Rate limit exceeded. Please try again in a few moments."
	case http.StatusForbidden:
		return "API access denied. Please check your API key."
	default:
		return "AI analysis temporarily unavailable. Please try again later."
	}
}

func quickMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Model configuration error - please contact support"
	case http.StatusTooManyRequests:
		return "Rate limit exceeded - please try again in a moment"
	case http.StatusForbidden:
		return "API access denied - please check configuration"
	default:
		return "Analysis unavailable at this time"
	}
}

func errorDetail(err error, status int) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	if status != 0 {
		return strconv.Itoa(status)
	}
	return "Unknown error occurred"
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
