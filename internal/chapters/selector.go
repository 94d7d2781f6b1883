package chapters

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrNoMatch = errors.New("no chapters matched")

// Selection picks chapters out of a sorted listing. At most one field is
// used, in field order. Indices are 1-based.
type Selection struct {
	// Chapter matches a label first ("12.5"), then an index.
	Chapter string
	// Range is "start-end"; an empty end runs to the last chapter.
	Range string
	// List is a comma separated list of indices.
	List string
}

func (s Selection) IsZero() bool {
	return s.Chapter == "" && s.Range == "" && s.List == ""
}

// Select applies sel to all. An empty selection returns all chapters.
func Select(all []Chapter, sel Selection) ([]Chapter, error) {
	var (
		out []Chapter
		err error
	)

	switch {
	case sel.Chapter != "":
		out = selectOne(all, strings.TrimSpace(sel.Chapter))
	case sel.Range != "":
		out, err = selectRange(all, sel.Range)
	case sel.List != "":
		out, err = selectList(all, sel.List)
	default:
		return all, nil
	}

	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoMatch
	}

	return out, nil
}

func selectOne(all []Chapter, key string) []Chapter {
	var out []Chapter
	for _, ch := range all {
		if ch.Label == key {
			out = append(out, ch)
		}
	}
	if len(out) > 0 {
		return out
	}

	if idx, err := strconv.Atoi(key); err == nil && idx > 0 && idx <= len(all) {
		return []Chapter{all[idx-1]}
	}

	return nil
}

func selectRange(all []Chapter, rng string) ([]Chapter, error) {
	from, to, ok := strings.Cut(rng, "-")
	if !ok {
		return nil, fmt.Errorf("invalid range %q: expected start-end", rng)
	}

	start, err := atoi(from)
	if err != nil {
		return nil, fmt.Errorf("invalid range start %q: %w", from, err)
	}

	end := len(all)
	if strings.TrimSpace(to) != "" {
		if end, err = atoi(to); err != nil {
			return nil, fmt.Errorf("invalid range end %q: %w", to, err)
		}
	}

	if start <= 0 || start > end {
		return nil, fmt.Errorf("invalid range %q", rng)
	}
	if end > len(all) {
		return nil, fmt.Errorf("range %q exceeds %d chapters", rng, len(all))
	}

	return all[start-1 : end], nil
}

func selectList(all []Chapter, list string) ([]Chapter, error) {
	var out []Chapter
	seen := map[int]bool{}

	for n := range strings.SplitSeq(list, ",") {
		if strings.TrimSpace(n) == "" {
			continue
		}

		idx, err := atoi(n)
		if err != nil {
			return nil, fmt.Errorf("invalid list entry %q: %w", n, err)
		}
		if idx <= 0 || idx > len(all) || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, all[idx-1])
	}

	return out, nil
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
