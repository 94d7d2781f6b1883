package ui

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/brogergvhs/pagedetect/internal/util"
)

type Stats struct {
	TotalImages   atomic.Int64
	TotalBytes    atomic.Int64
	TotalChapters atomic.Int64

	// chapters whose detection was too weak to trust
	SkippedChapters atomic.Int64
	FailedChapters  atomic.Int64
}

func (s *Stats) Print(w io.Writer, elapsed time.Duration) {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, headerStyle.Sprint("Download Summary:"))
	_, _ = fmt.Fprintf(w, "Chapters: %d\n", s.TotalChapters.Load())
	if n := s.SkippedChapters.Load(); n > 0 {
		_, _ = fmt.Fprintf(w, "Skipped:  %s\n", warnStyle.Sprintf("%d (low confidence)", n))
	}
	if n := s.FailedChapters.Load(); n > 0 {
		_, _ = fmt.Fprintf(w, "Failed:   %s\n", junkStyle.Sprintf("%d", n))
	}
	_, _ = fmt.Fprintf(w, "Images:   %d\n", s.TotalImages.Load())
	_, _ = fmt.Fprintf(w, "Data:     %s\n", util.Human(s.TotalBytes.Load()))
	_, _ = fmt.Fprintf(w, "Time:     %s\n", elapsed.Round(time.Second))
}
