package main

import (
	"fmt"
	"os"

	"github.com/eluisluzquadros/cogniticy/pkg/envelope"
	"github.com/eluisluzquadros/cogniticy/pkg/pipeline"
	"github.com/eluisluzquadros/cogniticy/pkg/validation"
)

func printValidationReport(r *validation.Report) {
	printFindings("ERRORS", r.Errors(), true)
	printFindings("WARNINGS", r.Warnings(), true)
	printFindings("NOTES", r.Notes(), false)

	if r.Valid() {
		fmt.Printf("Result: VALID (%s)\n", r)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r)
	}
}

func printFindings(title string, fs []validation.Finding, detail bool) {
	if len(fs) == 0 {
		return
	}
	fmt.Printf("%s (%d):\n", title, len(fs))
	for _, f := range fs {
		fmt.Printf("  [%s]%s %s\n", f.Stage, parcelTag(f.Parcel), f.Message)
		if !detail {
			continue
		}
		if f.Field != "" {
			fmt.Printf("    -> %s = %v\n", f.Field, f.Got)
		}
		if f.Want != "" {
			fmt.Printf("    expected: %s\n", f.Want)
		}
		if f.Hint != "" {
			fmt.Printf("    * %s\n", f.Hint)
		}
	}
	fmt.Println()
}

func parcelTag(id string) string {
	if id == "" {
		return ""
	}
	return " " + id + ":"
}

type envelopeRow struct {
	ID         string
	ParcelArea float64
	Edges      string
	Result     envelope.Result
	Err        error
}

func printEnvelopeTable(rows []envelopeRow) {
	fmt.Printf("%-12s %10s %10s %-10s %-18s %s\n",
		"Parcel", "Area", "Envelope", "Path", "Setbacks f/b/s", "Edges")
	fmt.Printf("%-12s %10s %10s %-10s %-18s %s\n",
		"------------", "----------", "----------", "----------", "------------------", "-----")
	for _, r := range rows {
		if r.Err != nil {
			fmt.Printf("%-12s %10.2f %10s %-10s %s\n", r.ID, r.ParcelArea, "-", "error", r.Err)
			continue
		}
		sb := r.Result.Setbacks
		fmt.Printf("%-12s %10.2f %10.2f %-10s %-18s %s\n",
			r.ID, r.ParcelArea, r.Result.Area(), r.Result.Path,
			fmt.Sprintf("%.1f/%.1f/%.1f", sb.Front, sb.Back, sb.Side), r.Edges)
	}
}

func printSolveTable(runID string, results []*pipeline.Result) {
	fmt.Printf("Run %s\n\n", runID)
	fmt.Printf("%-12s %-15s %-26s %6s %8s %7s %9s %s\n",
		"Parcel", "Status", "Shape", "Floors", "Height", "FAR", "Score", "Compliant")
	fmt.Printf("%-12s %-15s %-26s %6s %8s %7s %9s %s\n",
		"------------", "---------------", "--------------------------", "------", "--------", "-------", "---------", "---------")

	counts := map[pipeline.Status]int{}
	for _, r := range results {
		s := r.Summary
		counts[s.Status]++
		status := string(s.Status)
		if r.Resumed {
			status += "*"
		}
		if s.Status != pipeline.StatusProcessed {
			fmt.Printf("%-12s %-15s %s\n", s.ParcelID, status, s.Reason)
			continue
		}
		fmt.Printf("%-12s %-15s %-26s %6d %8.2f %7.3f %9.2f %v\n",
			s.ParcelID, status, s.BestShape, s.BestFloors, s.BestHeight, s.BestFAR, s.BestScore, s.BestCompliant)
	}

	fmt.Println()
	fmt.Printf("processed: %d  skipped: %d  envelope_empty: %d  failed: %d\n",
		counts[pipeline.StatusProcessed], counts[pipeline.StatusSkipped],
		counts[pipeline.StatusEnvelopeEmpty], counts[pipeline.StatusFailed])
}

func printBatchErrors(errs []error) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\nPARCEL ERRORS (%d):\n", len(errs))
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "  %v\n", err)
	}
}
