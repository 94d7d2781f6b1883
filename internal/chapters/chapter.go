package chapters

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/brogergvhs/pagedetect/internal/providers"
	"github.com/brogergvhs/pagedetect/internal/util"
)

var (
	separators   = strings.NewReplacer("•", "_", "-", "_", "—", "_", "–", "_", "/", "_", "\\", "_", ".", "_", " ", "_")
	reUnderscore = regexp.MustCompile(`_+`)
)

// Chapter is a listed chapter with the file naming used on disk.
type Chapter struct {
	providers.Chapter
}

func Wrap(list []providers.Chapter) []Chapter {
	out := make([]Chapter, len(list))
	for i, c := range list {
		out[i] = Chapter{Chapter: c}
	}

	return out
}

func sanitize(s string) string {
	s = separators.Replace(strings.ToLower(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, s)

	return strings.Trim(reUnderscore.ReplaceAllString(s, "_"), "_")
}

// BaseName is "<label>_<title>", or just the label when the title adds
// nothing. Chapters without a label fall back to the title.
func (c Chapter) BaseName() string {
	lbl, title := sanitize(c.Label), sanitize(c.Title)

	switch {
	case lbl == "":
		return title
	case title == "", title == lbl, strings.TrimPrefix(title, "chapter_") == lbl:
		return lbl
	}

	return lbl + "_" + title
}

// FolderName is the work folder pages are downloaded into before packing.
func (c Chapter) FolderName() string {
	return c.BaseName() + util.TempSuffix
}

func (c Chapter) OutputCBZ() string {
	return c.BaseName() + ".cbz"
}

func (c Chapter) OutputCBZPath(out string) string {
	return filepath.Join(out, c.OutputCBZ())
}
