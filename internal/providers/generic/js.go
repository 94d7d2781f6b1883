package generic

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reJSVar  = regexp.MustCompile(`(?m)(?:var|let|const)\s+([A-Za-z0-9_]+)\s*=\s*["']?([\w\-\/\.]+)["']?;`)
	reJSPath = regexp.MustCompile(`["'](\/[A-Za-z0-9\/\-\._]+)["']`)
	reJSCall = regexp.MustCompile(`(?:fetch|axios|post|get)\s*\(\s*["']([^"']+)["']`)
	reNuxt   = regexp.MustCompile(`window\.__NUXT__\s*=\s*(\{.*?});`)
)

func looksLikeHTML(s string) bool {
	for _, tag := range []string{"<img", "<a ", "<div", "<picture", "<source"} {
		if strings.Contains(s, tag) {
			return true
		}
	}

	return false
}

// scriptHints is what inline scripts reveal about endpoints that may return
// the page list.
type scriptHints struct {
	Vars  map[string]string
	Paths []string
	Calls []string
}

func analyzeScripts(doc *goquery.Document) scriptHints {
	var code strings.Builder
	doc.Find("script").Each(func(_ int, sc *goquery.Selection) {
		if t := sc.Text(); strings.TrimSpace(t) != "" {
			code.WriteString(t)
			code.WriteString("\n")
		}
	})

	return extractScriptHints(code.String())
}

func extractScriptHints(js string) scriptHints {
	h := scriptHints{Vars: map[string]string{}}

	for _, m := range reJSVar.FindAllStringSubmatch(js, -1) {
		h.Vars[m[1]] = m[2]
	}
	for _, m := range reJSPath.FindAllStringSubmatch(js, -1) {
		h.Paths = append(h.Paths, m[1])
	}
	for _, m := range reJSCall.FindAllStringSubmatch(js, -1) {
		h.Calls = append(h.Calls, m[1])
	}

	return h
}

// endpoints combines chapter-ish base paths with id-like variables and adds
// every literal fetch/axios target, without duplicates.
func (h scriptHints) endpoints() []string {
	keys := make([]string, 0, len(h.Vars))
	for k := range h.Vars {
		if strings.Contains(strings.ToLower(k), "id") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out []string
	seen := map[string]bool{}
	push := func(u string) {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}

	for _, base := range h.Paths {
		if strings.Contains(base, "chap") && strings.HasSuffix(base, "/") {
			for _, k := range keys {
				push(base + h.Vars[k])
			}
		}
	}
	for _, c := range h.Calls {
		push(c)
	}

	return out
}
