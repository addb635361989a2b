package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const salesCSV = `Date,Member,Amount Paid,Visits
2025-01-05,Asha,"₹1,200",4
2025-01-19,Ravi,₹800,2
2025-02-02,Asha,"₹1,500",6
2025-02-20,Meera,₹950,3
2025-03-03,Ravi,₹700,1
`

const analysisReply = `1. Executive Summary
Revenue grew in February before easing in March.

2. Key Insights
- February revenue was the highest of the quarter at 2,450
- Asha is the most frequent and highest paying member
3. Trends & Patterns
- Visits per member peaked in February and dropped in March
4. Strategic Recommendations
- Offer a March reactivation discount to lapsed members
`

// resetFlags restores every flag to its default so invocations do not leak state.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

// isolate points HOME at a temp dir and clears key variables from the environment.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "VITE_GEMINI_API_KEY", "OPENAI_API_KEY",
		"DASHBRIEF_API_KEY", "DASHBRIEF_BASE_URL", "DASHBRIEF_DEFAULT_PROVIDER", "DASHBRIEF_DEFAULT_MODEL"} {
		t.Setenv(k, "")
	}
	t.Setenv("DASHBRIEF_LOG_LEVEL", "error")
	return home
}

func writeData(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

type ipv4Server struct {
	URL string
	srv *http.Server
}

func (s *ipv4Server) Close() { _ = s.srv.Close() }

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return &ipv4Server{URL: "http://" + ln.Addr().String(), srv: srv}
}

// geminiStub answers generateContent with text, or fails with status when non-zero.
func geminiStub(t *testing.T, text string, status int, calls *atomic.Int32) *ipv4Server {
	t.Helper()
	s := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("x-goog-api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":401,"message":"API key not valid","status":"UNAUTHENTICATED"}}`))
			return
		}
		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
			return
		}
		resp := map[string]any{
			"candidates": []any{map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}}},
			"usageMetadata": map[string]any{"promptTokenCount": 100, "candidatesTokenCount": 50, "totalTokenCount": 150},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(s.Close)
	return s
}

func TestCLI_StatsMarkdownAndJSON(t *testing.T) {
	home := isolate(t)
	data := writeData(t, home, "sales.csv", salesCSV)

	out := mustRun(t, "stats", data)
	for _, want := range []string{"Rows: 5", "## Numeric columns", "Amount Paid", "## Categorical columns", "## Records per month", "February 2025"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stats output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "stats", data, "--json", "--limit", "4")
	var rep statsReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("stats --json is not JSON: %v\n%s", err, out)
	}
	if rep.Statistics.TotalRows != 4 {
		t.Fatalf("total rows = %d, want 4 (--limit)", rep.Statistics.TotalRows)
	}
	if got := rep.Statistics.Numeric["amount_paid"].Sum; got != 4450 {
		t.Fatalf("amount sum = %v", got)
	}
	if len(rep.Months) != 2 {
		t.Fatalf("months = %+v", rep.Months)
	}
}

func TestCLI_StatsChart(t *testing.T) {
	home := isolate(t)
	data := writeData(t, home, "sales.csv", salesCSV)
	out := mustRun(t, "stats", data, "--chart", "--height", "4")
	if !strings.Contains(out, "Records per month, January 2025 to March 2025") {
		t.Fatalf("chart caption missing:\n%s", out)
	}
}

func TestCLI_SummarizeDryRunSendsNothing(t *testing.T) {
	home := isolate(t)
	data := writeData(t, home, "sales.csv", salesCSV)
	out := mustRun(t, "summarize", data, "--dry-run", "--title", "Gym Revenue", "--recommendations")
	for _, want := range []string{"--dry-run", "Prompt tokens≈", "Business entity: Gym Revenue", "Strategic Recommendations"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dry-run output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_SummarizeAgainstGemini(t *testing.T) {
	home := isolate(t)
	data := writeData(t, home, "sales.csv", salesCSV)
	var calls atomic.Int32
	srv := geminiStub(t, analysisReply, 0, &calls)
	t.Setenv("DASHBRIEF_API_KEY", "test-key")
	t.Setenv("DASHBRIEF_BASE_URL", srv.URL)

	outPath := filepath.Join(home, "reports", "summary.md")
	out := mustRun(t, "summarize", data, "--title", "Gym Revenue", "-o", outPath)
	if calls.Load() != 1 {
		t.Fatalf("expected one request, got %d", calls.Load())
	}
	for _, want := range []string{"# Gym Revenue", "Revenue grew in February", "February revenue was the highest", "reactivation discount"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	saved, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read saved output: %v", err)
	}
	if !strings.Contains(string(saved), "## Key Insights") {
		t.Fatalf("saved markdown:\n%s", saved)
	}

	out = mustRun(t, "summarize", data, "--json")
	var res struct {
		Summary     string   `json:"summary"`
		KeyInsights []string `json:"keyInsights"`
		Model       string   `json:"model"`
		Error       string   `json:"error"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("summarize --json: %v\n%s", err, out)
	}
	if res.Error != "" || len(res.KeyInsights) != 2 || res.Model != "gemini-flash-latest" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCLI_SummarizeRateLimitedIsReportedNotFatal(t *testing.T) {
	home := isolate(t)
	data := writeData(t, home, "sales.csv", salesCSV)
	var calls atomic.Int32
	srv := geminiStub(t, "", http.StatusTooManyRequests, &calls)
	t.Setenv("DASHBRIEF_API_KEY", "test-key")
	t.Setenv("DASHBRIEF_BASE_URL", srv.URL)

	out := mustRun(t, "summarize", data)
	if calls.Load() != 1 {
		t.Fatalf("rate limited request must not be retried, got %d calls", calls.Load())
	}
	if !strings.Contains(out, "Rate limit exceeded") {
		t.Fatalf("rate-limit message missing:\n%s", out)
	}
}

func TestCLI_InsightsAgainstGemini(t *testing.T) {
	home := isolate(t)
	data := writeData(t, home, "sales.csv", salesCSV)
	var calls atomic.Int32
	reply := "- Revenue in the previous month beat the quarterly average\n- Asha renewed twice and paid the most overall\n"
	srv := geminiStub(t, reply, 0, &calls)
	t.Setenv("DASHBRIEF_API_KEY", "test-key")
	t.Setenv("DASHBRIEF_BASE_URL", srv.URL)

	out := mustRun(t, "insights", data, "--json")
	var got struct {
		Period   string   `json:"period"`
		Insights []string `json:"insights"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("insights --json: %v\n%s", err, out)
	}
	if len(got.Insights) != 2 || got.Period == "" {
		t.Fatalf("unexpected insights %+v", got)
	}
}

func TestCLI_PingUsesConfiguredKey(t *testing.T) {
	isolate(t)
	var calls atomic.Int32
	srv := geminiStub(t, "Connection successful", 0, &calls)
	t.Setenv("DASHBRIEF_BASE_URL", srv.URL)

	t.Setenv("DASHBRIEF_API_KEY", "wrong-key")
	if _, err := runCmd(t, "ping"); err == nil {
		t.Fatal("expected ping to fail with a rejected key")
	}
	t.Setenv("DASHBRIEF_API_KEY", "test-key")
	out := mustRun(t, "ping")
	if !strings.Contains(out, "gemini-flash-latest answered") {
		t.Fatalf("ping output: %s", out)
	}
}

func TestCLI_Months(t *testing.T) {
	isolate(t)
	clock = func() time.Time { return time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC) }
	defer func() { clock = nil }()

	out := mustRun(t, "months")
	if !strings.Contains(out, "Previous month (February 2025): 2025-02-01 to 2025-02-28") {
		t.Fatalf("months output:\n%s", out)
	}
	out = mustRun(t, "months", "--back", "2")
	if !strings.Contains(out, "2025-01-01 to 2025-03-31") {
		t.Fatalf("--back output:\n%s", out)
	}
	out = mustRun(t, "months", "--standard")
	if lines := strings.Count(strings.TrimSpace(out), "\n") + 1; lines != 22 {
		t.Fatalf("--standard lines = %d", lines)
	}
	out = mustRun(t, "months", "--dynamic", "3")
	if !strings.HasPrefix(out, "2025-01") {
		t.Fatalf("--dynamic should start with the oldest month:\n%s", out)
	}
	out = mustRun(t, "months", "--parse", "2025-07-04")
	if !strings.Contains(out, "month 2025-07") {
		t.Fatalf("--parse output:\n%s", out)
	}
	if _, err := runCmd(t, "months", "--parse", "not a date"); err == nil {
		t.Fatal("expected parse failure")
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := isolate(t)
	mustRun(t, "config", "set", "api_key", "abcd1234efgh5678")
	mustRun(t, "config", "set", "default_provider", "local")
	if _, err := runCmd(t, "config", "set", "temperature", "7"); err == nil {
		t.Fatal("expected out-of-range temperature to be rejected")
	}
	if _, err := runCmd(t, "config", "set", "default_provider", "bogus"); err == nil {
		t.Fatal("expected unknown provider to be rejected")
	}

	b, err := os.ReadFile(filepath.Join(home, ".dashbrief", "config.yaml"))
	if err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	if !strings.Contains(string(b), "default_provider: ollama") {
		t.Fatalf("saved config:\n%s", b)
	}

	out := mustRun(t, "config", "show")
	if strings.Contains(out, "abcd1234efgh5678") || !strings.Contains(out, "abcd********5678") {
		t.Fatalf("api key not masked:\n%s", out)
	}
}

func TestCLI_Models(t *testing.T) {
	home := isolate(t)
	out := mustRun(t, "models", "--provider", "gemini")
	if !strings.Contains(out, "gemini-flash-latest") || strings.Contains(out, "gpt-4o") {
		t.Fatalf("models output:\n%s", out)
	}
	cat := writeData(t, home, "models.json", `{"custom-model":{"Name":"custom-model","Provider":"ollama","ContextTokens":4096}}`)
	out = mustRun(t, "models", "--catalog", cat, "--provider", "local")
	if !strings.Contains(out, "custom-model") || !strings.Contains(out, "4,096") {
		t.Fatalf("merged catalog not listed:\n%s", out)
	}
}

func TestCLI_SummarizeHelpListsEverySummaryType(t *testing.T) {
	isolate(t)
	out := mustRun(t, "summarize", "--help")
	if !strings.Contains(out, "comprehensive|insights|trends|performance|brief") {
		t.Fatalf("summary types missing from help:\n%s", out)
	}
}
