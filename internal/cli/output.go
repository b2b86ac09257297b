package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/orderrecon/internal/api/dto"
	"github.com/eshaffer321/orderrecon/internal/application/service"
)

// WriteJSON writes v as indented JSON. Results are written in the same
// shape the HTTP API returns.
func WriteJSON(w io.Writer, v any) error {
	if res, ok := v.(*service.Result); ok {
		v = dto.ReconcileResponse{RunID: res.RunID, Outcome: res.Outcome}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintSummary prints a short human readable result.
func PrintSummary(w io.Writer, res *service.Result) {
	out := res.Outcome
	fmt.Fprintf(w, "run %s: %s vs %s\n", res.RunID, res.Run.POSType, res.Run.SourceType)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Records:   POS=%d Source=%d\n", out.TotalPOSRecords, out.TotalSourceRecords)
	fmt.Fprintf(w, "Exact:     %d\n", len(out.MatchedValues))
	fmt.Fprintf(w, "Probable:  %d\n", len(out.ProbableMatches))
	fmt.Fprintf(w, "Grouped:   %d\n", len(out.CombinedProbableMatches))
	fmt.Fprintf(w, "Midnight:  %d\n", len(out.MidnightMatches))
	fmt.Fprintf(w, "Unmatched: POS=%d Source=%d\n", len(out.UnmatchedInPos), len(out.UnmatchedInSource))

	if n := len(out.Diagnostics.Issues); n > 0 {
		fmt.Fprintf(w, "\nSkipped %d malformed row(s):\n", n)
		for _, issue := range out.Diagnostics.Issues {
			fmt.Fprintf(w, "  - %v\n", issue)
		}
	}

	if len(out.UnmatchedInSource) > 0 {
		fmt.Fprintln(w, "\nUnmatched source orders:")
		for _, v := range out.UnmatchedInSource {
			fmt.Fprintf(w, "  %s  %s\n", v.Date, v.Amount.StringFixed(2))
		}
	}
}
