package ui

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/brogergvhs/pagedetect/internal/detect"

	"github.com/fatih/color"
)

func sampleResult() detect.Result {
	var cands []detect.Candidate
	for i := 1; i <= 10; i++ {
		cands = append(cands, detect.Candidate{
			URL:           fmt.Sprintf("https://cdn.site.com/manga/ch-3/%03d.jpg", i),
			NaturalWidth:  800,
			NaturalHeight: 1200,
		})
	}
	cands = append(cands, detect.Candidate{URL: "https://site.com/static/logo.png", NaturalWidth: 120, NaturalHeight: 40})

	return detect.AutoDetectPages(cands, detect.Options{})
}

func TestPrintResult(t *testing.T) {
	color.NoColor = true
	res := sampleResult()

	var buf bytes.Buffer
	PrintResult(&buf, res)
	out := buf.String()

	if !strings.Contains(out, "Reason: best group cdn.site.com/manga/ch-3|800|1200") {
		t.Errorf("Expected reason line, got:\n%s", out)
	}
	if !strings.Contains(out, "Pages: 10") {
		t.Errorf("Expected 10 pages, got:\n%s", out)
	}
	if strings.Contains(out, "logo.png") {
		t.Errorf("Expected logo to be absent from the page list, got:\n%s", out)
	}
}

func TestPrintAudit(t *testing.T) {
	color.NoColor = true
	res := sampleResult()

	var buf bytes.Buffer
	if err := PrintAudit(&buf, res); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// summary + header + one row per candidate
	if len(lines) != 2+11 {
		t.Fatalf("Expected 13 lines, got %d:\n%s", len(lines), buf.String())
	}

	last := lines[len(lines)-1]
	if !strings.Contains(last, "120x40") || !strings.HasSuffix(strings.TrimSpace(last), detect.ReasonJunk) {
		t.Errorf("Expected logo row marked junk, got %q", last)
	}
}

func TestPrintGroups(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	if err := PrintGroups(&buf, sampleResult()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), "cdn.site.com/manga/ch-3|800|1200") {
		t.Errorf("Expected winning group row, got:\n%s", buf.String())
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, false)

	log.Debugf("hidden %d", 1)
	log.With("chapter", "12").Infof("found %d pages\n", 20)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected debug record to be filtered, got %q", out)
	}
	if !strings.Contains(out, `msg="found 20 pages"`) || !strings.Contains(out, "chapter=12") {
		t.Errorf("Expected structured info record, got %q", out)
	}

	var nilLogger *Logger
	nilLogger.Infof("no panic")
}
