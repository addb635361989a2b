package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/dashbrief-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/dashbrief-cli/internal/config"
	"github.com/KaramelBytes/dashbrief-cli/internal/source"
)

func TestResolveProvider(t *testing.T) {
	cases := []struct {
		cfgProvider, flag, want string
	}{
		{"", "", ai.ProviderGemini},
		{"ollama", "", ai.ProviderOllama},
		{"ollama", "Google", ai.ProviderGemini},
		{"", "local", ai.ProviderOllama},
		{"gemini", "openai", ai.ProviderOpenAI},
	}
	for _, c := range cases {
		got := resolveProvider(&cfgpkg.Global{DefaultProvider: c.cfgProvider}, c.flag)
		if got != c.want {
			t.Fatalf("resolveProvider(%q, %q) = %q, want %q", c.cfgProvider, c.flag, got, c.want)
		}
	}
}

func TestSelectModelPrecedence(t *testing.T) {
	c := &cfgpkg.Global{DefaultModel: "cfg-model"}
	if got := selectModel(c, "cli-model"); got != "cli-model" {
		t.Fatalf("expected CLI model, got %q", got)
	}
	if got := selectModel(c, ""); got != "cfg-model" {
		t.Fatalf("expected config model, got %q", got)
	}
	if got := selectModel(nil, ""); got != ai.DefaultModel {
		t.Fatalf("expected fallback model, got %q", got)
	}
}

func TestBuildRuntimeErrors(t *testing.T) {
	if _, _, err := buildRuntime(&cfgpkg.Global{}, runtimeOptions{Provider: "openrouter"}); err == nil {
		t.Fatal("expected unknown provider error")
	}
	t.Setenv("OPENAI_API_KEY", "")
	if _, _, err := buildRuntime(&cfgpkg.Global{}, runtimeOptions{Provider: "openai"}); err == nil {
		t.Fatal("openai provider without a key should fail")
	}
	rt, name, err := buildRuntime(&cfgpkg.Global{RequestsPerMinute: 30}, runtimeOptions{Provider: "local"})
	if err != nil || rt == nil || name != ai.ProviderOllama {
		t.Fatalf("ollama runtime: %v %v %q", rt, err, name)
	}
}

func TestNewGeneratorAppliesConfig(t *testing.T) {
	gen, _, err := newGenerator(&cfgpkg.Global{DefaultModel: "gemini-2.5-pro", APIKey: "k"}, runtimeOptions{})
	if err != nil {
		t.Fatalf("newGenerator: %v", err)
	}
	if gen.Model() != "gemini-2.5-pro" {
		t.Fatalf("model = %q", gen.Model())
	}
}

func TestExplainError(t *testing.T) {
	api := &ai.APIError{StatusCode: 429}
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ai.AuthError{APIError: &ai.APIError{StatusCode: 401}}, "GEMINI_API_KEY"},
		{fmt.Errorf("wrapped: %w", &ai.RateLimitError{APIError: api}), "requests_per_minute"},
		{&ai.ModelNotFoundError{APIError: &ai.APIError{StatusCode: 404}}, `model "m" not found`},
		{&ai.UnreachableError{Host: "http://127.0.0.1:1", Err: errors.New("refused")}, "127.0.0.1:1"},
		{context.DeadlineExceeded, "timed out"},
		{errors.New("plain"), ""},
	}
	for _, c := range cases {
		got := explainError(c.err, ai.ProviderGemini, "m")
		if c.want == "" && got != "" || !strings.Contains(got, c.want) {
			t.Fatalf("explainError(%v) = %q, want substring %q", c.err, got, c.want)
		}
	}
	if got := explainError(&ai.ModelNotFoundError{APIError: &ai.APIError{StatusCode: 404}}, ai.ProviderOllama, "qwen2.5:7b"); !strings.Contains(got, "ollama pull qwen2.5:7b") {
		t.Fatalf("ollama hint: %q", got)
	}
}

func TestRecordingGeneratorKeepsLastError(t *testing.T) {
	boom := errors.New("boom")
	rec := &recordingGenerator{next: ai.NewGenerator(failingRuntime{err: boom}, "m", ai.DefaultParams)}
	if _, err := rec.Generate(context.Background(), "p"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(rec.err, boom) || rec.Model() != "m" {
		t.Fatalf("recorded %v / %q", rec.err, rec.Model())
	}
}

type failingRuntime struct{ err error }

func (f failingRuntime) Generate(context.Context, ai.GenerateRequest) (*ai.GenerateResponse, error) {
	return nil, f.err
}

func TestLoadTableFromSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "shop.db")
	db, err := sql.Open(source.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, stmt := range []string{
		`create table orders (placed text, customer text, total real)`,
		`insert into orders values ('2025-01-03', 'Asha', 1200.5), ('2025-02-11', 'Ravi', 300)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	db.Close()

	tbl, _, err := loadTable(context.Background(), dsn, tableOptions{SQL: "select * from orders", Driver: "sqlite3"})
	if err != nil {
		t.Fatalf("loadTable: %v", err)
	}
	if len(tbl.Rows) != 2 || len(tbl.Columns) != 3 {
		t.Fatalf("table = %d rows, %d columns", len(tbl.Rows), len(tbl.Columns))
	}
	if _, _, err := loadTable(context.Background(), dsn, tableOptions{SQL: "select 1"}); err == nil {
		t.Fatal("--sql without --driver should fail")
	}
}

func TestLoadTableErrors(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := loadTable(context.Background(), filepath.Join(dir, "missing.csv"), tableOptions{}); err == nil {
		t.Fatal("expected missing file error")
	}
	notes := writeData(t, dir, "notes.txt", "hello")
	_, _, err := loadTable(context.Background(), notes, tableOptions{})
	if !errors.Is(err, source.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	csvPath := writeData(t, dir, "a.csv", "x;y\n1;2\n")
	if _, _, err := loadTable(context.Background(), csvPath, tableOptions{Delimiter: ";;"}); err == nil {
		t.Fatal("multi-character delimiter should be rejected")
	}
	tbl, _, err := loadTable(context.Background(), csvPath, tableOptions{Delimiter: ";"})
	if err != nil || len(tbl.Columns) != 2 {
		t.Fatalf("semicolon csv: %v %+v", err, tbl)
	}
}
