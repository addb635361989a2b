package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/dashbrief-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/dashbrief-cli/internal/config"
	"github.com/KaramelBytes/dashbrief-cli/internal/insight"
	"github.com/KaramelBytes/dashbrief-cli/internal/logger"
	"github.com/KaramelBytes/dashbrief-cli/internal/source"
	"github.com/KaramelBytes/dashbrief-cli/internal/utils"
)

type runtimeOptions struct {
	Provider   string
	Model      string
	OllamaHost string
}

// resolveProvider normalises a provider name; the flag wins over config, gemini is the default.
func resolveProvider(c *cfgpkg.Global, flag string) string {
	name := strings.ToLower(strings.TrimSpace(flag))
	if name == "" && c != nil {
		name = strings.ToLower(strings.TrimSpace(c.DefaultProvider))
	}
	switch name {
	case "", "google", "gemini":
		return ai.ProviderGemini
	case "local", "ollama":
		return ai.ProviderOllama
	case "openai", "openai-compatible", "compat":
		return ai.ProviderOpenAI
	}
	return name
}

func selectModel(c *cfgpkg.Global, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c != nil && c.DefaultModel != "" {
		return c.DefaultModel
	}
	return ai.DefaultModel
}

// buildRuntime assembles the runtime for the chosen provider, paced by requests_per_minute.
func buildRuntime(c *cfgpkg.Global, opts runtimeOptions) (ai.Runtime, string, error) {
	if c == nil {
		c = &cfgpkg.Global{}
	}
	providerName := resolveProvider(c, opts.Provider)
	rc := ai.RuntimeConfig{
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
		Model:   selectModel(c, opts.Model),
	}
	if c.HTTPTimeoutSec > 0 {
		rc.HTTPTimeout = time.Duration(c.HTTPTimeoutSec) * time.Second
	}

	switch providerName {
	case ai.ProviderOpenAI:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			rc.APIKey = v
		}
		// a Gemini model on the openai provider goes through Gemini's compatible endpoint
		if rc.BaseURL == "" && strings.HasPrefix(rc.Model, "gemini") {
			rc.BaseURL = ai.GeminiOpenAIBaseURL
		}
	case ai.ProviderOllama:
		host := strings.TrimSpace(opts.OllamaHost)
		if host == "" {
			host = c.OllamaHost
		}
		if host == "" {
			host = ai.DefaultOllamaHost
		}
		rc.Host = host
	}

	rt, err := ai.GetRuntime(providerName, rc)
	if err != nil {
		return nil, providerName, err
	}
	logger.Log.WithFields(logrus.Fields{"provider": providerName, "model": rc.Model, "rpm": c.RequestsPerMinute}).Debug("runtime ready")
	return ai.Paced(rt, c.RequestsPerMinute), providerName, nil
}

// newGenerator builds the runtime and binds the model and sampling settings from config.
func newGenerator(c *cfgpkg.Global, opts runtimeOptions) (*ai.Generator, string, error) {
	rt, providerName, err := buildRuntime(c, opts)
	if err != nil {
		return nil, providerName, err
	}
	model := selectModel(c, opts.Model)
	if mi, ok := ai.LookupModel(model); ok && mi.Provider != providerName {
		logger.Log.Warnf("model %s is listed for provider %s, not %s", model, mi.Provider, providerName)
	}
	params := ai.DefaultParams
	if c != nil {
		if c.Temperature > 0 {
			params.Temperature = c.Temperature
		}
		if c.TopP > 0 {
			params.TopP = c.TopP
		}
		if c.MaxTokens > 0 {
			params.MaxTokens = c.MaxTokens
		}
	}
	return ai.NewGenerator(rt, model, params), providerName, nil
}

// recordingGenerator keeps the last generation error so commands can print a hint
// after the analysis service has turned it into a message.
type recordingGenerator struct {
	next insight.Generator
	err  error
}

func (r *recordingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := r.next.Generate(ctx, prompt)
	r.err = err
	return text, err
}

func (r *recordingGenerator) Model() string {
	if m, ok := r.next.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}

type tableOptions struct {
	Schema     string
	Sheet      string
	SheetIndex int
	Delimiter  string
	SQL        string
	Driver     string
	Limit      int
}

// loadTable reads a data file, or runs --sql against the DSN given as target.
// The parsed schema, if any, is returned so callers can reuse its title and context.
func loadTable(ctx context.Context, target string, o tableOptions) (*source.Table, *source.Schema, error) {
	opt := source.Options{Sheet: o.Sheet, SheetIndex: o.SheetIndex, MaxRows: o.Limit}
	if o.Delimiter != "" {
		r := []rune(o.Delimiter)
		if o.Delimiter == `\t` || o.Delimiter == "tab" {
			r = []rune{'\t'}
		}
		if len(r) != 1 {
			return nil, nil, fmt.Errorf("--delimiter must be a single character, got %q", o.Delimiter)
		}
		opt.Delimiter = r[0]
	}
	if o.Schema != "" {
		s, err := source.LoadSchema(o.Schema)
		if err != nil {
			return nil, nil, err
		}
		opt.Schema = s
	}

	if strings.TrimSpace(o.SQL) != "" {
		if o.Driver == "" {
			return nil, nil, errors.New("--driver is required with --sql (sqlite, postgres or mysql)")
		}
		t, err := source.Query(ctx, o.Driver, target, o.SQL)
		if err != nil {
			return nil, nil, err
		}
		t, err = source.Finish(t, opt)
		return t, opt.Schema, err
	}
	if _, err := os.Stat(target); err != nil {
		return nil, nil, fmt.Errorf("data file: %w", err)
	}
	t, err := source.Load(target, opt)
	if err != nil {
		if errors.Is(err, source.ErrUnsupported) {
			return nil, nil, fmt.Errorf("%w (supported: .csv, .tsv, .xlsx, .xlsm; use --sql for databases)", err)
		}
		return nil, nil, err
	}
	return t, opt.Schema, nil
}

// withTimeout bounds ctx by sec seconds; sec <= 0 leaves it unbounded.
func withTimeout(ctx context.Context, sec int) (context.Context, context.CancelFunc) {
	if sec <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(sec)*time.Second)
}

// explainError turns typed runtime errors into actionable hints.
func explainError(err error, providerName, model string) string {
	var (
		authErr *ai.AuthError
		rlErr   *ai.RateLimitError
		nfErr   *ai.ModelNotFoundError
		brErr   *ai.BadRequestError
		qErr    *ai.QuotaExceededError
		sErr    *ai.ServerError
		unreach *ai.UnreachableError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "the request timed out; raise --timeout-sec or http_timeout_sec"
	case errors.As(err, &unreach):
		return fmt.Sprintf("Ollama not reachable at %s. Ensure it is running and that ollama_host is correct", unreach.Host)
	case errors.As(err, &authErr):
		if providerName == ai.ProviderOpenAI {
			return "authentication failed: set OPENAI_API_KEY or api_key in ~/.dashbrief/config.yaml"
		}
		return "authentication failed: set GEMINI_API_KEY (or DASHBRIEF_API_KEY) or run 'dashbrief config set api_key <key>'"
	case errors.As(err, &rlErr):
		if rlErr.RetryAfter > 0 {
			return fmt.Sprintf("rate limited, try again in ~%ds or lower requests_per_minute", int(rlErr.RetryAfter.Seconds()))
		}
		return "rate limited by provider; set requests_per_minute to pace requests"
	case errors.As(err, &nfErr):
		if providerName == ai.ProviderOllama {
			return fmt.Sprintf("local model not available; install it with 'ollama pull %s'", model)
		}
		return fmt.Sprintf("model %q not found; check --model or 'dashbrief models'", model)
	case errors.As(err, &brErr):
		return "request rejected; try --max-rows or --limit to shrink the prompt"
	case errors.As(err, &qErr):
		return "quota or billing issue; check your provider account"
	case errors.As(err, &sErr):
		return "provider appears unavailable (server error); please retry later"
	}
	return ""
}

// writeOutput prints content and, when path is set, also saves it there.
func writeOutput(w io.Writer, content, path string) error {
	fmt.Fprintln(w, strings.TrimRight(content, "\n"))
	if path == "" {
		return nil
	}
	if err := utils.SafeWriteFile(path, []byte(content)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(os.Stderr, "💾 Saved output to %s\n", path)
	return nil
}
