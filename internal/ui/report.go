package ui

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/brogergvhs/pagedetect/internal/detect"

	"github.com/fatih/color"
)

var (
	headerStyle   = color.New(color.Bold, color.FgHiWhite)
	selectedStyle = color.New(color.FgHiGreen)
	spreadStyle   = color.New(color.FgHiCyan)
	mutedStyle    = color.New(color.FgHiBlack)
	junkStyle     = color.New(color.FgHiRed)
	warnStyle     = color.New(color.FgHiYellow)
)

// PrintResult writes the decision, the confidence and the selected page
// locators.
func PrintResult(w io.Writer, res detect.Result) {
	conf := selectedStyle
	if res.Confidence < 0.5 {
		conf = warnStyle
	}

	_, _ = fmt.Fprintf(w, "%s %s\n", headerStyle.Sprint("Reason:"), res.Reason)
	_, _ = fmt.Fprintf(w, "%s %s\n", headerStyle.Sprint("Confidence:"), conf.Sprintf("%.2f", res.Confidence))
	_, _ = fmt.Fprintf(w, "%s %d\n", headerStyle.Sprint("Pages:"), len(res.Selected))

	for i, loc := range res.SelectedLocators() {
		_, _ = fmt.Fprintf(w, "%4d  %s\n", i+1, loc)
	}
	for _, r := range res.SimilarityIncludedReasons {
		_, _ = fmt.Fprintf(w, "  %s %s\n", spreadStyle.Sprint("similarity:"), r)
	}
}

// PrintGroups lists every competing group, most confident first.
func PrintGroups(w io.Writer, res detect.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "GROUP\tCOUNT\tCONF\tCOHESION\tSEQ\tMEDIAN_W\tJUNK")

	for _, g := range res.Groups {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.0f\t%.2f\n",
			g.Key, g.Count, g.Confidence, g.URLCohesion, g.NumericSequenceStrength, g.MedianWidth, g.JunkRate)
	}

	return tw.Flush()
}

// PrintAudit writes one row per input candidate with its scores and the
// reason it was kept or dropped.
func PrintAudit(w io.Writer, res detect.Result) error {
	if res.Debug == nil {
		return nil
	}

	d := res.Debug
	_, _ = fmt.Fprintf(w, "winner=%q runnerUp=%q rawConfidence=%.2f penalized=%t postPass=%t\n",
		d.WinningGroupKey, d.RunnerUpGroupKey, d.RawConfidence, d.AmbiguityPenalized, d.PostPassRan)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tSIZE\tSCORE\tEFF\tSIM\tGROUP\tURL\tDECISION")

	for _, e := range d.Candidates {
		size := "-"
		if e.Width > 0 && e.Height > 0 {
			size = fmt.Sprintf("%dx%d", e.Width, e.Height)
		}

		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.2f\t%s\t%s\t%s\n",
			e.Index, size, e.PerImageScore, e.EffectiveScore, e.SimilarityToWinner,
			orDash(e.GroupKey), truncate(e.RawURL, 80), decision(e))
	}

	return tw.Flush()
}

func decision(e detect.DebugEntry) string {
	switch e.ExclusionReason {
	case detect.ReasonSelected:
		if e.IncludedBy != "" && e.IncludedBy != detect.IncludedByGroup {
			return spreadStyle.Sprint("selected (" + e.IncludedBy + ")")
		}
		return selectedStyle.Sprint(e.ExclusionReason)
	case detect.ReasonJunk:
		return junkStyle.Sprint(e.ExclusionReason)
	}

	return mutedStyle.Sprint(e.ExclusionReason)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n-3] + "..."
}
