package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brogergvhs/pagedetect/internal/detect"

	"github.com/fatih/color"
)

func candidatesJSON(t *testing.T) string {
	t.Helper()

	var cands []detect.Candidate
	for i := 1; i <= 10; i++ {
		cands = append(cands, detect.Candidate{
			Src:           fmt.Sprintf("https://cdn.site.com/manga/ch-3/%03d.jpg", i),
			NaturalWidth:  800,
			NaturalHeight: 1200,
		})
	}
	cands = append(cands, detect.Candidate{URL: "https://cdn.site.com/assets/logo.png", Width: 120, Height: 40})

	b, err := json.Marshal(cands)
	if err != nil {
		t.Fatal(err)
	}

	return string(b)
}

func TestDecodeCandidates(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"bare array", `[{"url":"a.jpg"},{"src":"b.jpg"}]`, 2, false},
		{"wrapped", `  {"candidates":[{"url":"a.jpg"}]}`, 1, false},
		{"empty input", "  \n", 0, true},
		{"garbage", `candidates`, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeCandidates([]byte(tc.input))
			if (err != nil) != tc.wantErr {
				t.Fatalf("Expected error=%t, got %v", tc.wantErr, err)
			}
			if len(got) != tc.want {
				t.Errorf("Expected %d candidates, got %d", tc.want, len(got))
			}
		})
	}
}

func TestDetectCommand(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "cands.json")
	if err := os.WriteFile(path, []byte(candidatesJSON(t)), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"detect", "--ignore-config", "--json", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		flagJSON = false
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var res detect.Result
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", out.String(), err)
	}
	if len(res.Selected) != 10 {
		t.Errorf("Expected 10 pages, got %d", len(res.Selected))
	}
	if res.Debug != nil {
		t.Error("Expected no debug trail without --debug")
	}
}

func TestPrintResult_Text(t *testing.T) {
	color.NoColor = true

	cands, err := decodeCandidates([]byte(candidatesJSON(t)))
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := printResult(&out, detect.AutoDetectPages(cands, detect.Options{}), true); err != nil {
		t.Fatal(err)
	}

	s := out.String()
	for _, want := range []string{"Pages: 10", "GROUP", "DECISION", "logo.png"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
}

func TestSplitExt(t *testing.T) {
	got := strings.Join(splitExt("WEBP|.jpg, png  "), ",")
	if got != "webp,jpg,png" {
		t.Errorf("Expected webp,jpg,png, got %s", got)
	}
}
