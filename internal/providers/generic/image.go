package generic

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/brogergvhs/pagedetect/internal/detect"

	"github.com/PuerkitoBio/goquery"
)

var (
	reImageURL = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|avif)$`)

	reSizeSuffix = regexp.MustCompile(`[-_]\d{2,5}x\d{2,5}`)
	reParseSize  = regexp.MustCompile(`[-_](\d{2,5})x(\d{2,5})(?:\.[A-Za-z0-9]+)?$`)

	reBackgroundURL = regexp.MustCompile(`url\((?:["']?)([^"')]+)(?:["']?)\)`)
	reLooseURLs     = regexp.MustCompile(`https?://[^\s"'<>\\]+`)
)

var lazyAttrs = []string{"data-src", "data-lazy-src", "data-original", "data-url"}

// imageRef is one image reference found in the markup. aliases are other
// locators of the same element (placeholders, other srcset widths) that must
// not surface later as separate candidates.
type imageRef struct {
	url     string
	aliases []string
	index   int
	width   int
	height  int
	alt     string
}

type collectedItem struct {
	url    string
	index  int // data-index, -1 if none
	order  int // discovery order
	width  int
	height int
	alt    string
}

func (it *collectedItem) merge(ref imageRef) {
	if it.width == 0 || it.height == 0 {
		it.width, it.height = ref.width, ref.height
	}
	if it.index < 0 {
		it.index = ref.index
	}
	if it.alt == "" {
		it.alt = ref.alt
	}
}

type imageCollector struct {
	allowed *regexp.Regexp
	items   []*collectedItem
	byURL   map[string]*collectedItem
}

func newImageCollector(allowed *regexp.Regexp) *imageCollector {
	return &imageCollector{
		allowed: allowed,
		items:   make([]*collectedItem, 0, 64),
		byURL:   make(map[string]*collectedItem),
	}
}

// accept applies structural filtering only: scheme and extension.
func (c *imageCollector) accept(u string) bool {
	lu := strings.ToLower(strings.TrimSpace(u))

	switch {
	case lu == "", strings.HasPrefix(lu, "javascript:"), strings.HasPrefix(lu, "about:"):
		return false
	case strings.HasPrefix(lu, "data:"):
		return strings.HasPrefix(lu, "data:image/")
	case strings.HasPrefix(lu, "blob:"):
		return true
	}

	if i := strings.IndexAny(lu, "?#"); i >= 0 {
		lu = lu[:i]
	}

	return c.allowed.MatchString(lu)
}

func (c *imageCollector) add(ref imageRef) {
	if !c.accept(ref.url) {
		return
	}

	if it, ok := c.byURL[ref.url]; ok {
		it.merge(ref)
		return
	}

	it := &collectedItem{
		url:    ref.url,
		index:  ref.index,
		order:  len(c.items) + 1,
		width:  ref.width,
		height: ref.height,
		alt:    ref.alt,
	}
	c.items = append(c.items, it)
	c.byURL[ref.url] = it

	for _, a := range ref.aliases {
		if _, ok := c.byURL[a]; !ok {
			c.byURL[a] = it
		}
	}
}

func normalizeExtList(list []string) []string {
	out := []string{}
	for _, ext := range list {
		ext = strings.ToLower(strings.TrimSpace(ext))
		ext = strings.TrimPrefix(ext, ".")
		if ext != "" {
			out = append(out, regexp.QuoteMeta(ext))
		}
	}

	return out
}

func buildExtRegex(exts []string) *regexp.Regexp {
	if len(exts) == 0 {
		return reImageURL
	}

	return regexp.MustCompile(`(?i)\.(` + strings.Join(exts, "|") + `)$`)
}

func resolve(pageURL, raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(raw), "data:") {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.IsAbs() {
		return u.String()
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return raw
	}

	return base.ResolveReference(u).String()
}

func attr(sel *goquery.Selection, name string) string {
	v, _ := sel.Attr(name)
	return strings.TrimSpace(v)
}

func atoiAttr(sel *goquery.Selection, name string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(attr(sel, name), "px"))
	if err != nil || n < 0 {
		return 0
	}

	return n
}

// declaredSize reads width/height attributes, falling back to the data-*
// variants lazy loaders use.
func declaredSize(sel *goquery.Selection) (int, int) {
	w, h := atoiAttr(sel, "width"), atoiAttr(sel, "height")
	if w > 0 && h > 0 {
		return w, h
	}

	return atoiAttr(sel, "data-width"), atoiAttr(sel, "data-height")
}

// variantKey identifies size variants of one image (page-01-300x450.jpg and
// page-01.jpg share a key).
func variantKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "data" || u.Scheme == "blob" {
		return raw
	}

	ext := path.Ext(u.Path)
	base := strings.TrimSuffix(u.Path, ext)
	base = reSizeSuffix.ReplaceAllString(base, "")
	base = strings.TrimRight(base, "-_")

	key := strings.ToLower(u.Host) + base + ext
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}

	return key
}

func parseWxH(u string) (int, int) {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}

	m := reParseSize.FindStringSubmatch(u)
	if m == nil {
		return 0, 0
	}

	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])

	return w, h
}

type srcsetEntry struct {
	url   string
	width int
}

// parseSrcset returns the entries of a srcset attribute. Density descriptors
// (2x) and missing descriptors give width 0.
func parseSrcset(ss, pageURL string) []srcsetEntry {
	var out []srcsetEntry
	for p := range strings.SplitSeq(ss, ",") {
		parts := strings.Fields(strings.TrimSpace(p))
		if len(parts) == 0 {
			continue
		}

		e := srcsetEntry{url: resolve(pageURL, parts[0])}
		if len(parts) > 1 && strings.HasSuffix(parts[1], "w") {
			e.width, _ = strconv.Atoi(strings.TrimSuffix(parts[1], "w"))
		}
		out = append(out, e)
	}

	return out
}

func largest(entries []srcsetEntry) (srcsetEntry, bool) {
	if len(entries) == 0 {
		return srcsetEntry{}, false
	}

	best := entries[len(entries)-1]
	for _, e := range entries {
		if e.width > best.width {
			best = e
		}
	}

	return best, true
}

func getIndexFor(sel *goquery.Selection) int {
	for _, s := range []*goquery.Selection{sel, sel.ParentsFiltered("[data-index]").First()} {
		if v, ok := s.Attr("data-index"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}

	return -1
}

// imgRef picks one locator per <img>: lazy-load attributes first, then the
// widest srcset entry, then src.
func imgRef(img *goquery.Selection, pageURL string) imageRef {
	ref := imageRef{index: getIndexFor(img), alt: attr(img, "alt")}
	ref.width, ref.height = declaredSize(img)

	var locs []string
	for _, k := range lazyAttrs {
		if v := attr(img, k); v != "" {
			locs = append(locs, resolve(pageURL, v))
		}
	}

	entries := parseSrcset(attr(img, "srcset")+","+attr(img, "data-srcset"), pageURL)
	img.ParentsFiltered("picture").First().Find("source[srcset]").Each(func(_ int, s *goquery.Selection) {
		entries = append(entries, parseSrcset(attr(s, "srcset"), pageURL)...)
	})

	best, hasSrcset := largest(entries)
	if hasSrcset {
		locs = append(locs, best.url)
	}
	if v := attr(img, "src"); v != "" {
		locs = append(locs, resolve(pageURL, v))
	}
	for _, e := range entries {
		locs = append(locs, e.url)
	}

	if len(locs) == 0 {
		return ref
	}

	ref.url = locs[0]
	for _, l := range locs {
		if !strings.HasPrefix(strings.ToLower(l), "data:") {
			ref.url = l
			break
		}
	}
	for _, l := range locs {
		if l != ref.url {
			ref.aliases = append(ref.aliases, l)
		}
	}

	if hasSrcset && ref.url == best.url && best.width > 0 && ref.width > 0 && ref.height > 0 {
		ref.height = best.width * ref.height / ref.width
		ref.width = best.width
	}

	return ref
}

func (c *imageCollector) ScanIMGTags(doc *goquery.Document, pageURL string) int {
	before := len(c.items)
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		c.add(imgRef(img, pageURL))
	})

	return len(c.items) - before
}

// ScanPictureSources handles <picture> elements without an <img> fallback.
func (c *imageCollector) ScanPictureSources(doc *goquery.Document, pageURL string) int {
	before := len(c.items)
	doc.Find("picture").Each(func(_ int, pic *goquery.Selection) {
		if pic.Find("img").Length() > 0 {
			return
		}

		var entries []srcsetEntry
		pic.Find("source[srcset]").Each(func(_ int, s *goquery.Selection) {
			entries = append(entries, parseSrcset(attr(s, "srcset"), pageURL)...)
		})

		best, ok := largest(entries)
		if !ok {
			return
		}

		ref := imageRef{url: best.url, index: getIndexFor(pic)}
		for _, e := range entries {
			if e.url != best.url {
				ref.aliases = append(ref.aliases, e.url)
			}
		}
		c.add(ref)
	})

	return len(c.items) - before
}

func (c *imageCollector) ScanBackgroundImages(doc *goquery.Document, pageURL string) int {
	before := len(c.items)
	doc.Find("[style]").Each(func(_ int, el *goquery.Selection) {
		style := attr(el, "style")
		if !strings.Contains(strings.ToLower(style), "background") {
			return
		}

		idx := getIndexFor(el)
		w, h := declaredSize(el)
		for _, m := range reBackgroundURL.FindAllStringSubmatch(style, -1) {
			if u := strings.TrimSpace(m[1]); u != "" {
				c.add(imageRef{url: resolve(pageURL, u), index: idx, width: w, height: h})
			}
		}
	})

	return len(c.items) - before
}

func (c *imageCollector) ScanAnchorImages(doc *goquery.Document, pageURL string) int {
	before := len(c.items)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := attr(a, "href")
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		c.add(imageRef{url: resolve(pageURL, href), index: getIndexFor(a)})
	})

	return len(c.items) - before
}

// ScanEmbeddedJSON walks decoded SSR state (Nuxt and similar) for image URLs
// and HTML fragments. Object keys are visited in sorted order so candidate
// order is stable.
func (c *imageCollector) ScanEmbeddedJSON(root any, pageURL string) {
	var walk func(v any)

	walk = func(v any) {
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			ls := strings.ToLower(s)
			if strings.HasPrefix(ls, "http://") || strings.HasPrefix(ls, "https://") || strings.HasPrefix(ls, "/") {
				c.add(imageRef{url: resolve(pageURL, s), index: -1})
				return
			}
			if looksLikeHTML(s) {
				if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
					c.scanDocument(doc, pageURL)
				}
			}
		case []any:
			for _, x := range t {
				walk(x)
			}
		case map[string]any:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(t[k])
			}
		}
	}

	walk(root)
}

func (c *imageCollector) ScanLooseURLs(body string) int {
	before := len(c.items)
	for _, u := range reLooseURLs.FindAllString(body, -1) {
		c.add(imageRef{url: strings.TrimRight(u, ".,;)"), index: -1})
	}

	return len(c.items) - before
}

// scanDocument runs every DOM-based scan and returns the per-scan counts.
func (c *imageCollector) scanDocument(doc *goquery.Document, pageURL string) map[string]int {
	return map[string]int{
		"img":        c.ScanIMGTags(doc, pageURL),
		"picture":    c.ScanPictureSources(doc, pageURL),
		"background": c.ScanBackgroundImages(doc, pageURL),
		"anchor":     c.ScanAnchorImages(doc, pageURL),
	}
}

// Finalize collapses size variants of the same image and returns the
// candidates in page order: explicit data-index first, then discovery order.
func (c *imageCollector) Finalize() []detect.Candidate {
	if len(c.items) == 0 {
		return nil
	}

	var keys []string
	groups := map[string][]*collectedItem{}
	for _, it := range c.items {
		k := variantKey(it.url)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], it)
	}

	chosen := make([]collectedItem, 0, len(keys))
	for _, k := range keys {
		chosen = append(chosen, pickVariant(groups[k]))
	}

	sort.SliceStable(chosen, func(i, j int) bool {
		ai, aj := chosen[i].index, chosen[j].index
		switch {
		case ai >= 0 && aj >= 0 && ai != aj:
			return ai < aj
		case ai >= 0 && aj < 0:
			return true
		case ai < 0 && aj >= 0:
			return false
		}

		return chosen[i].order < chosen[j].order
	})

	out := make([]detect.Candidate, len(chosen))
	for i, it := range chosen {
		out[i] = detect.Candidate{URL: it.url, Width: it.width, Height: it.height, Alt: it.alt}
	}

	return out
}

// pickVariant keeps the unsuffixed original when present, else the largest
// -WxH variant. The result inherits the smallest index and earliest order of
// its group.
func pickVariant(items []*collectedItem) collectedItem {
	var best *collectedItem
	bestArea := 0

	for _, it := range items {
		w, h := parseWxH(it.url)
		if w == 0 || h == 0 {
			best = it
			break
		}
		if best == nil || w*h > bestArea {
			best, bestArea = it, w*h
		}
	}

	picked := *best
	if picked.width == 0 || picked.height == 0 {
		picked.width, picked.height = parseWxH(picked.url)
	}

	for _, it := range items {
		if it.index >= 0 && (picked.index < 0 || it.index < picked.index) {
			picked.index = it.index
		}
		picked.order = min(picked.order, it.order)
	}

	return picked
}
