package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
	"github.com/eluisluzquadros/cogniticy/pkg/pipeline"
	"github.com/eluisluzquadros/cogniticy/pkg/zoning"
)

// SummarySheet is the worksheet name of the XLSX summary.
const SummarySheet = "Summary"

type column struct {
	name  string
	value func(s pipeline.Summary) any
}

var columns = []column{
	{"run_id", func(s pipeline.Summary) any { return s.RunID }},
	{"numlote", func(s pipeline.Summary) any { return s.ParcelID }},
	{"zot", func(s pipeline.Summary) any { return s.Zone }},
	{"status", func(s pipeline.Summary) any { return string(s.Status) }},
	{"reason", func(s pipeline.Summary) any { return s.Reason }},
	{"parcel_area", func(s pipeline.Summary) any { return s.Area }},
	{"envelope_path", func(s pipeline.Summary) any { return s.EnvelopePath }},
	{"envelope_area", func(s pipeline.Summary) any { return s.EnvelopeArea }},
	{"baseline_shape", func(s pipeline.Summary) any { return s.BaselineShape }},
	{"baseline_morphology", func(s pipeline.Summary) any { return s.BaselineMorphology }},
	{"baseline_floors", func(s pipeline.Summary) any { return s.BaselineFloors }},
	{"baseline_height", func(s pipeline.Summary) any { return s.BaselineHeight }},
	{"baseline_built_area", func(s pipeline.Summary) any { return s.BaselineBuiltArea }},
	{"baseline_far", func(s pipeline.Summary) any { return s.BaselineFAR }},
	{"baseline_coverage", func(s pipeline.Summary) any { return s.BaselineCoverage }},
	{"baseline_compliant", func(s pipeline.Summary) any { return s.BaselineCompliant }},
	{"baseline_violations", func(s pipeline.Summary) any { return s.BaselineViolations }},
	{"best_shape", func(s pipeline.Summary) any { return s.BestShape }},
	{"best_morphology", func(s pipeline.Summary) any { return s.BestMorphology }},
	{"best_floors", func(s pipeline.Summary) any { return s.BestFloors }},
	{"best_height", func(s pipeline.Summary) any { return s.BestHeight }},
	{"best_built_area", func(s pipeline.Summary) any { return s.BestBuiltArea }},
	{"best_far", func(s pipeline.Summary) any { return s.BestFAR }},
	{"best_coverage", func(s pipeline.Summary) any { return s.BestCoverage }},
	{"best_compliant", func(s pipeline.Summary) any { return s.BestCompliant }},
	{"best_violations", func(s pipeline.Summary) any { return s.BestViolations }},
	{"best_score", func(s pipeline.Summary) any { return s.BestScore }},
	{"best_params", func(s pipeline.Summary) any { return s.BestParams }},
	{"candidates", func(s pipeline.Summary) any { return s.Candidates }},
}

// SummaryHeader returns the summary column names.
func SummaryHeader() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.name
	}
	return out
}

// SummaryRow returns the typed cell values of one summary.
func SummaryRow(s pipeline.Summary) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = c.value(s)
	}
	return out
}

// Summaries collects the summaries of results in order.
func Summaries(results []*pipeline.Result) []pipeline.Summary {
	out := make([]pipeline.Summary, len(results))
	for i, r := range results {
		out[i] = r.Summary
	}
	return out
}

// Summary writes "<project>_summary.<format>" and returns its path.
func (w *Writer) Summary(summaries []pipeline.Summary, format string) (string, error) {
	if format == "" {
		format = zoning.SummaryCSV
	}
	path := filepath.Join(w.dir, fmt.Sprintf("%s_summary.%s", sanitize(w.project), format))
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", cerrors.Wrapf(cerrors.KindIO, err, "creating %s", w.dir)
	}

	var err error
	switch format {
	case zoning.SummaryCSV:
		err = writeCSV(path, summaries)
	case zoning.SummaryXLSX:
		err = writeXLSX(path, summaries)
	default:
		return "", cerrors.Configuration("unsupported summary format %q", format)
	}
	if err != nil {
		return "", err
	}
	w.logger.Info("summary written", zap.String("path", path), zap.Int("rows", len(summaries)))
	return path, nil
}

func writeCSV(path string, summaries []pipeline.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return cerrors.Wrapf(cerrors.KindIO, err, "creating %s", path)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(SummaryHeader()); err != nil {
		return cerrors.Wrapf(cerrors.KindIO, err, "writing %s", path)
	}
	for _, s := range summaries {
		row := SummaryRow(s)
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = cell(v)
		}
		if err := cw.Write(rec); err != nil {
			return cerrors.Wrapf(cerrors.KindIO, err, "writing %s", path)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return cerrors.Wrapf(cerrors.KindIO, err, "writing %s", path)
	}
	return f.Close()
}

func cell(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

func writeXLSX(path string, summaries []pipeline.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return cerrors.Wrap(cerrors.KindIO, "naming summary sheet", err)
	}
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c.name
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return cerrors.Wrap(cerrors.KindIO, "writing summary header", err)
	}
	for i, s := range summaries {
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return cerrors.Wrap(cerrors.KindIO, "summary cell", err)
		}
		row := SummaryRow(s)
		if err := f.SetSheetRow(SummarySheet, ref, &row); err != nil {
			return cerrors.Wrapf(cerrors.KindIO, err, "writing summary row %d", i+1)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return cerrors.Wrapf(cerrors.KindIO, err, "writing %s", path)
	}
	return nil
}
