// Package export writes scored datasets as spreadsheets for human review.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/wealth-dataset/internal/dataset"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Scored Samples"

const listSep = "; "

// Header is the column order shared by every export format.
var Header = []string{
	"rank",
	"overall_score",
	"tone_confidence",
	"hsbc_values",
	"actionability",
	"empathy_warmth",
	"market_specificity",
	"tier_appropriateness",
	"instruction",
	"response",
	"explanation",
	"strengths",
	"improvements",
}

// Row is one exported record.
type Row struct {
	Rank   int
	Scores [7]float64
	Record dataset.Record
}

// Rows ranks records by descending overall score and keeps those scoring at
// least minScore. Unscored records are dropped.
func Rows(records []dataset.Record, minScore float64) []Row {
	sorted := make([]dataset.Record, 0, len(records))
	for _, r := range records {
		if r.QualityScores != nil && r.QualityScores.OverallScore >= minScore {
			sorted = append(sorted, r)
		}
	}
	dataset.SortByScore(sorted)

	rows := make([]Row, len(sorted))
	for i, r := range sorted {
		q := r.QualityScores
		rows[i] = Row{
			Rank: i + 1,
			Scores: [7]float64{
				q.OverallScore,
				q.ToneConfidence,
				q.HSBCValues,
				q.Actionability,
				q.EmpathyWarmth,
				q.MarketSpecificity,
				q.TierAppropriateness,
			},
			Record: r,
		}
	}
	return rows
}

func (r Row) text() []string {
	q := r.Record.QualityScores
	return []string{
		r.Record.Instruction,
		r.Record.Response,
		q.Explanation,
		strings.Join(q.Strengths, listSep),
		strings.Join(q.Improvements, listSep),
	}
}

// WriteCSV writes rows to w with a header line.
func WriteCSV(rows []Row, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, r := range rows {
		rec := make([]string, 0, len(Header))
		rec = append(rec, strconv.Itoa(r.Rank))
		for _, s := range r.Scores {
			rec = append(rec, strconv.FormatFloat(s, 'f', -1, 64))
		}
		rec = append(rec, r.text()...)
		if err := cw.Write(rec); err != nil {
			return eris.Wrapf(err, "export: write csv row %d", r.Rank)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX saves rows as a single-sheet workbook at path.
func WriteXLSX(rows []Row, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.Rank)
		for _, s := range r.Scores {
			row.AddCell().SetFloat(s)
		}
		for _, s := range r.text() {
			row.AddCell().SetString(s)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
