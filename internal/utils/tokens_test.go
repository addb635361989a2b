package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/dashbrief-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"short", "hi", 1},
		{"simple", "hello world", 2},
		{"long", strings.Repeat("a", 4000), 1000},
		{"runes", strings.Repeat("₹", 8), 2},
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, got, c.want)
		}
	}
}

func TestTokenBreakdown(t *testing.T) {
	prompt := "You are an analyst.\n\n[DATA CONTEXT]\n" + strings.Repeat("x", 40) + "\n[SAMPLE ROWS] (first 2 records)\n1. a\n"
	got := utils.TokenBreakdown(prompt)
	if len(got) != 3 {
		t.Fatalf("sections = %+v", got)
	}
	if got[0].Name != "preamble" || got[1].Name != "DATA CONTEXT" || got[2].Name != "SAMPLE ROWS" {
		t.Fatalf("names = %+v", got)
	}
	if got[1].Tokens < 10 {
		t.Fatalf("data context tokens = %d", got[1].Tokens)
	}
	if len(utils.TokenBreakdown("")) != 0 {
		t.Fatal("empty prompt has no sections")
	}
}

func TestSafeWriteFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out", "report.md")
	if err := utils.SafeWriteFile(p, []byte("# hi\n")); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "# hi\n" {
		t.Fatalf("read back %q, %v", b, err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}
}
