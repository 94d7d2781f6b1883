package generic

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/brogergvhs/pagedetect/internal/providers"
)

var (
	reTitleChapter = regexp.MustCompile(`(?i)(?:vol(?:ume)?[_\-\s]*\d+[_\-\s]*)?(?:chapter|ch)[_\-\s]*0*([0-9]+)(?:[_\-\s]*([.\-])[_\-\s]*([0-9]+))?`)
	reHrefChapter  = regexp.MustCompile(`chapter[_\-]?0*([0-9]+)[_\-]?([0-9]+)?`)
	reHrefShortCh  = regexp.MustCompile(`(?:^|[/\-_])ch[_\-]?(\d+(?:\.\d+)?)`)
	reHrefVolume   = regexp.MustCompile(`vol[_\-]?(\d+)[/_\-]ch[_\-]?(\d+(?:\.\d+)?)`)
	reHrefNumber   = regexp.MustCompile(`[/\-](\d+(?:\.\d+)?)(?:$|[/\-_])`)
	reTitleNumber  = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*[.\- ]`)

	reLikelyChapter = regexp.MustCompile(`(?i)(?:^|[-_/])(?:ch|chapter)[-_]?\d+`)
)

// chapterLabel is the parsed numbering of a chapter link: 12, 12.5 or 12-2.
type chapterLabel struct {
	main       int
	suffixType string
	suffixNum  int
	label      string
}

func plainLabel(n int) chapterLabel {
	return chapterLabel{main: n, label: strconv.Itoa(n)}
}

// decimalLabel parses "12" or "12.5".
func decimalLabel(s string) chapterLabel {
	whole, frac, ok := strings.Cut(s, ".")
	main, _ := strconv.Atoi(whole)
	if !ok {
		return plainLabel(main)
	}

	sub, _ := strconv.Atoi(frac)

	return chapterLabel{main: main, suffixType: ".", suffixNum: sub, label: fmt.Sprintf("%d.%d", main, sub)}
}

// labelMatchers are tried in order; href matchers get the lowercased href,
// title matchers the raw link text.
var labelMatchers = []func(href, title string) (chapterLabel, bool){
	func(href, _ string) (chapterLabel, bool) {
		m := reHrefChapter.FindStringSubmatch(href)
		if m == nil {
			return chapterLabel{}, false
		}
		main, _ := strconv.Atoi(m[1])
		if m[2] == "" {
			return plainLabel(main), true
		}
		sub, _ := strconv.Atoi(m[2])

		return chapterLabel{main: main, suffixType: "-", suffixNum: sub, label: fmt.Sprintf("%d-%d", main, sub)}, true
	},
	func(href, _ string) (chapterLabel, bool) {
		m := reHrefVolume.FindStringSubmatch(href)
		if m == nil {
			return chapterLabel{}, false
		}
		vol, _ := strconv.Atoi(m[1])
		l := decimalLabel(m[2])

		return chapterLabel{main: l.main, suffixType: ".", suffixNum: vol, label: fmt.Sprintf("%d.%s", vol, m[2])}, true
	},
	func(href, _ string) (chapterLabel, bool) {
		if m := reHrefShortCh.FindStringSubmatch(href); m != nil {
			return decimalLabel(m[1]), true
		}
		return chapterLabel{}, false
	},
	func(href, _ string) (chapterLabel, bool) {
		if m := reHrefNumber.FindStringSubmatch(href); m != nil {
			l := decimalLabel(m[1])
			l.label = m[1]
			return l, true
		}
		return chapterLabel{}, false
	},
	func(_, title string) (chapterLabel, bool) {
		if m := reTitleNumber.FindStringSubmatch(title); m != nil {
			l := decimalLabel(m[1])
			l.label = m[1]
			return l, true
		}
		return chapterLabel{}, false
	},
	func(_, title string) (chapterLabel, bool) {
		m := reTitleChapter.FindStringSubmatch(title)
		if m == nil {
			return chapterLabel{}, false
		}
		main, _ := strconv.Atoi(m[1])
		if m[2] == "" {
			return plainLabel(main), true
		}
		sub, _ := strconv.Atoi(m[3])

		return chapterLabel{main: main, suffixType: m[2], suffixNum: sub, label: fmt.Sprintf("%d%s%d", main, m[2], sub)}, true
	},
}

func parseChapterLabel(href, title string) (chapterLabel, bool) {
	h := strings.ToLower(href)
	t := strings.ToLower(title)

	hasKeyword := false
	for _, kw := range []string{"ch", "vol"} {
		hasKeyword = hasKeyword || strings.Contains(h, kw) || strings.Contains(t, kw)
	}
	if !hasKeyword || strings.Contains(h, "/u/") || strings.Contains(h, "batolists") {
		return chapterLabel{}, false
	}

	for _, match := range labelMatchers {
		if l, ok := match(h, title); ok {
			return l, true
		}
	}

	return chapterLabel{}, false
}

func looksLikeChapterLink(href, title string) bool {
	h := strings.ToLower(href)
	if reLikelyChapter.MatchString(h) || reHrefVolume.MatchString(h) || reHrefShortCh.MatchString(h) {
		return true
	}

	t := strings.ToLower(strings.TrimSpace(title))

	return strings.HasPrefix(t, "ch ") || strings.HasPrefix(t, "chapter ")
}

func lessChapter(a, b providers.Chapter) bool {
	if a.NumMain != b.NumMain {
		return a.NumMain < b.NumMain
	}
	if a.SuffixType != b.SuffixType {
		return a.SuffixType < b.SuffixType
	}

	return a.SuffixNum < b.SuffixNum
}
