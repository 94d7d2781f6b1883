package detect

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// InlineSig is the signature shared by inline payloads and unparseable locators.
const InlineSig = "data"

// NoSizeBucket marks candidates without usable dimensions.
const NoSizeBucket = "none"

const prefixSegments = 3

var (
	reImageExt  = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)
	reDigitRun  = regexp.MustCompile(`\d+`)
	reAllDigits = regexp.MustCompile(`^\d+$`)
	reHex       = regexp.MustCompile(`^[0-9a-fA-F]+$`)
)

// Signature is the structural fingerprint of a locator. Candidates with the
// same PrefixSig belong to the same lineage.
type Signature struct {
	PrefixSig    string   `json:"prefixSig"`
	FullSig      string   `json:"fullSig"`
	Depth        int      `json:"depth"`
	Ext          string   `json:"ext"`
	PathSegments []string `json:"pathSegments"`
	BasePattern  string   `json:"basePattern"`
	FileNum      *int     `json:"fileNum"`
}

func inlineSignature() Signature {
	return Signature{
		PrefixSig:    InlineSig,
		FullSig:      InlineSig,
		PathSegments: []string{},
	}
}

// BuildSignature derives the lineage signature of a locator. Numeric path
// segments become {n}, UUIDs {uuid}, long hex strings {h} and long mixed
// letter/digit tokens {id}, so per-resource names in one folder structure
// collapse into one prefix.
func BuildSignature(locator string, t Tuning) Signature {
	if locator == "" || isInline(locator) {
		return inlineSignature()
	}

	u, err := url.Parse(strings.TrimSpace(locator))
	if err != nil || u.Host == "" {
		return inlineSignature()
	}

	host := strings.ToLower(u.Hostname())

	var raw []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			raw = append(raw, s)
		}
	}

	segs := make([]string, len(raw))
	for i, s := range raw {
		segs[i] = classifySegment(s, t)
	}

	var dirs []string
	file := ""
	if len(raw) > 0 {
		dirs = segs[:len(segs)-1]
		file = raw[len(raw)-1]
	}

	ext := ""
	if m := reImageExt.FindStringSubmatch(file); m != nil {
		ext = strings.ToLower(m[1])
	}

	stem := strings.TrimSuffix(file, path.Ext(file))
	base := basePattern(stem)

	prefix := dirs
	if len(prefix) > prefixSegments {
		prefix = prefix[:prefixSegments]
	}
	prefixSig := host + "/" + strings.Join(prefix, "/")

	full := prefixSig
	if len(prefix) > 0 {
		full += "/"
	}
	full += base
	if ext != "" {
		full += "." + ext
	}

	return Signature{
		PrefixSig:    prefixSig,
		FullSig:      full,
		Depth:        len(raw),
		Ext:          ext,
		PathSegments: segs,
		BasePattern:  base,
		FileNum:      lastNumber(stem),
	}
}

func classifySegment(seg string, t Tuning) string {
	switch {
	case reAllDigits.MatchString(seg):
		return "{n}"
	case len(seg) == 36 && isUUID(seg):
		return "{uuid}"
	case len(seg) >= t.HexMinLen && reHex.MatchString(seg):
		return "{h}"
	case isOpaqueID(seg, t.OpaqueIDMinLen):
		return "{id}"
	}

	return seg
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// isOpaqueID reports long ASCII tokens mixing letters and digits, such as
// CDN object keys. Non-ASCII segments are never treated as opaque.
func isOpaqueID(seg string, minLen int) bool {
	if len(seg) < minLen {
		return false
	}

	var letters, digits bool
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			letters = true
		case c == '-' || c == '_':
		default:
			return false
		}
	}

	return letters && digits
}

// basePattern is the file stem with every digit run replaced by {n}:
// page_034 -> page_{n}.
func basePattern(stem string) string {
	return reDigitRun.ReplaceAllString(stem, "{n}")
}

// lastNumber returns the rightmost digit run of a file stem, which is most
// often the page index (chapter-12-page-034 -> 34).
func lastNumber(stem string) *int {
	runs := reDigitRun.FindAllString(stem, -1)
	if len(runs) == 0 {
		return nil
	}

	n, err := strconv.Atoi(runs[len(runs)-1])
	if err != nil {
		return nil
	}

	return &n
}

// SizeBucket returns the orientation-invariant size key of a candidate. The
// smaller and larger sides are binned independently, so a portrait page and
// a same-scale landscape spread share a bucket.
func SizeBucket(w, h, step int) string {
	if w <= 0 || h <= 0 || step <= 0 {
		return NoSizeBucket
	}

	lo, hi := min(w, h), max(w, h)

	return strconv.Itoa(lo/step*step) + "|" + strconv.Itoa(hi/step*step)
}
