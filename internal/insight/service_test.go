package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/dashbrief-cli/internal/ai"
	"github.com/KaramelBytes/dashbrief-cli/internal/analysis"
	"github.com/KaramelBytes/dashbrief-cli/internal/logger"
	"github.com/KaramelBytes/dashbrief-cli/internal/prompt"
)

type fakeGen struct {
	text    string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGen) Generate(_ context.Context, p string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, p)
	return f.text, f.err
}

func (f *fakeGen) Model() string { return "fake-model" }

var (
	cols = []analysis.Column{
		{Key: "date", Header: "Date", Type: analysis.TypeDate},
		{Key: "amount", Header: "Amount", Type: analysis.TypeCurrency},
	}
	rows = []analysis.Row{
		{"date": "2025-01-05", "amount": 1200.0},
		{"date": "2025-02-05", "amount": 1500.0},
	}
	fixedNow = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)
)

func newService(g Generator) *Service {
	return New(g, WithClock(func() time.Time { return fixedNow }), WithLogger(logger.Discard()))
}

func TestSummarizeEmptyRows(t *testing.T) {
	g := &fakeGen{text: "unused"}
	res := newService(g).Summarize(context.Background(), nil, cols, prompt.Options{})
	if g.calls != 0 {
		t.Fatal("generator must not be called for empty input")
	}
	if res.Summary != EmptySummary || res.Error != EmptyError {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.KeyInsights) != 1 || res.KeyInsights[0] != EmptyInsight || len(res.Trends) != 1 || res.Trends[0] != EmptyTrend {
		t.Fatalf("unexpected lists %+v", res)
	}
	if res.ID == "" || !res.GeneratedAt.Equal(fixedNow) || res.Model != "fake-model" {
		t.Fatalf("metadata not populated: %+v", res)
	}
}

func TestSummarizeParsesSections(t *testing.T) {
	g := &fakeGen{text: "Executive Summary:\nRevenue grew twenty five percent.\n2. Key Insights\n- February revenue beat January by a wide margin\n3. Trends\n- Revenue is trending upward month over month\n"}
	res := newService(g).Summarize(context.Background(), rows, cols, prompt.Options{Title: "Studio"})
	if g.calls != 1 {
		t.Fatalf("calls = %d", g.calls)
	}
	if !strings.Contains(g.prompts[0], "Studio") {
		t.Fatal("prompt should carry the title")
	}
	if res.Summary != "Revenue grew twenty five percent." {
		t.Fatalf("summary = %q", res.Summary)
	}
	if len(res.KeyInsights) != 1 || res.Error != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Trends) != 1 || res.Recommendations != nil {
		t.Fatalf("unexpected trends/recommendations %+v", res)
	}
}

func TestSummarizeRawTextFallback(t *testing.T) {
	long := strings.Repeat("é", 1200)
	res := newService(&fakeGen{text: long}).Summarize(context.Background(), rows, cols, prompt.Options{})
	if got := []rune(res.Summary); len(got) != 1003 || !strings.HasSuffix(res.Summary, "...") {
		t.Fatalf("summary length = %d", len(got))
	}
	short := newService(&fakeGen{text: "brief reply"}).Summarize(context.Background(), rows, cols, prompt.Options{})
	if short.Summary != "brief reply" {
		t.Fatalf("short summary = %q", short.Summary)
	}
	if short.KeyInsights == nil || len(short.KeyInsights) != 0 || short.Recommendations != nil {
		t.Fatalf("unexpected lists %+v", short)
	}
}

func statusErr(code int) error {
	return fmt.Errorf("generate: %w", &ai.APIError{StatusCode: code, Message: "boom"})
}

func TestSummarizeFailureMessages(t *testing.T) {
	cases := []struct {
		err     error
		summary string
	}{
		{statusErr(404), "Model not found. Please check the model configuration."},
		{&ai.RateLimitError{APIError: &ai.APIError{StatusCode: 429}}, "Rate limit exceeded. Please try again in a few moments."},
		{&ai.AuthError{APIError: &ai.APIError{StatusCode: 403}}, "API access denied. Please check your API key."},
		{statusErr(500), "AI analysis temporarily unavailable. Please try again later."},
		{errors.New("dial tcp: connection refused"), "AI analysis temporarily unavailable. Please try again later."},
	}
	for _, tc := range cases {
		t.Run(tc.summary, func(t *testing.T) {
			res := newService(&fakeGen{err: tc.err}).Summarize(context.Background(), rows, cols, prompt.Options{})
			if res.Summary != tc.summary {
				t.Fatalf("summary = %q", res.Summary)
			}
			if res.Error != tc.err.Error() {
				t.Fatalf("error = %q", res.Error)
			}
			if len(res.KeyInsights) != 1 || res.KeyInsights[0] != FailedInsight || res.Trends[0] != FailedTrend {
				t.Fatalf("unexpected lists %+v", res)
			}
		})
	}
}

func TestQuickInsights(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&b, "- February: observation number %d with supporting numbers\n", i)
	}
	g := &fakeGen{text: b.String()}
	got := newService(g).QuickInsights(context.Background(), rows, cols, "Studio")
	if len(got) != 5 {
		t.Fatalf("expected 5 bullets, got %d", len(got))
	}
	if !strings.Contains(g.prompts[0], "February") {
		t.Fatal("prompt should focus on the month before the clock's month")
	}

	for code, want := range map[int]string{
		404: "Model configuration error - please contact support",
		429: "Rate limit exceeded - please try again in a moment",
		403: "API access denied - please check configuration",
		0:   "Analysis unavailable at this time",
	} {
		var err error = errors.New("offline")
		if code != 0 {
			err = statusErr(code)
		}
		got := newService(&fakeGen{err: err}).QuickInsights(context.Background(), rows, cols, "")
		if len(got) != 1 || got[0] != want {
			t.Fatalf("status %d: %q", code, got)
		}
	}
}

func TestConnection(t *testing.T) {
	g := &fakeGen{text: "Connection successful"}
	st := newService(g).TestConnection(context.Background())
	if !st.Success || st.Model != "fake-model" || g.prompts[0] != prompt.ConnectionProbe {
		t.Fatalf("unexpected status %+v", st)
	}
	st = newService(&fakeGen{err: errors.New("no route")}).TestConnection(context.Background())
	if st.Success || st.Error != "no route" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestWithModelOverride(t *testing.T) {
	s := New(&fakeGen{}, WithModel("custom"), WithLogger(logger.Discard()))
	if s.model != "custom" {
		t.Fatalf("model = %q", s.model)
	}
}
