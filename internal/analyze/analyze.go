// Package analyze summarizes a dataset file: sizes, lengths, the ages and
// incomes mentioned in instructions, keyword frequency and, for scored files,
// the judge's quality statistics.
package analyze

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/wealth-dataset/internal/dataset"
)

// PlaceholderMarker identifies responses that were never filled in.
const PlaceholderMarker = "[This would be generated"

// Incomes outside this open interval are treated as non-income amounts.
const (
	minIncome = 10_000
	maxIncome = 500_000
)

var (
	ageRe    = regexp.MustCompile(`(\d+)(?:-year-old| years old)`)
	incomeRe = regexp.MustCompile(`\$(\d+(?:,\d+)*)`)
)

// keywordGroups maps each reported keyword to the substrings counted for it.
var keywordGroups = []struct {
	label string
	terms []string
}{
	{"retirement", []string{"retirement"}},
	{"savings", []string{"savings"}},
	{"investment", []string{"investment", "invest"}},
	{"debt", []string{"debt"}},
	{"college/education", []string{"college", "education"}},
	{"mortgage", []string{"mortgage"}},
	{"insurance", []string{"insurance"}},
}

// LengthStats describes rune lengths of one field across the dataset.
type LengthStats struct {
	Min, Max int
	Average  float64
}

// KeywordCount is one keyword and its number of occurrences.
type KeywordCount struct {
	Keyword string
	Count   int
}

// Report is the analysis of one dataset file.
type Report struct {
	Path         string
	SizeBytes    int64
	Records      []dataset.Record
	Instructions LengthStats
	Responses    LengthStats
	WithContext  int
	Ages         []int
	Incomes      []int
	Placeholders int
	Failed       int
	Keywords     []KeywordCount
	Scores       dataset.ScoreStats
}

// File analyzes the dataset at path. An empty dataset is an error.
func File(path string) (*Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Errorf("analyze: file not found: %s", path)
		}
		return nil, eris.Wrapf(err, "analyze: stat %s", path)
	}

	records, err := dataset.ReadFile[dataset.Record](path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, eris.Errorf("analyze: dataset %s is empty", path)
	}

	r := Analyze(records)
	r.Path = path
	r.SizeBytes = info.Size()
	return r, nil
}

// Analyze computes a report for records. records must not be empty.
func Analyze(records []dataset.Record) *Report {
	r := &Report{Records: records}

	instrLens := make([]int, len(records))
	respLens := make([]int, len(records))
	var all strings.Builder
	for i, rec := range records {
		instrLens[i] = utf8.RuneCountInString(rec.Instruction)
		respLens[i] = utf8.RuneCountInString(rec.Response)

		if strings.TrimSpace(rec.Context) != "" {
			r.WithContext++
		}
		for _, m := range ageRe.FindAllStringSubmatch(rec.Instruction, -1) {
			if age, err := strconv.Atoi(m[1]); err == nil {
				r.Ages = append(r.Ages, age)
			}
		}
		if m := incomeRe.FindStringSubmatch(rec.Instruction); m != nil {
			income, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
			if err == nil && income > minIncome && income < maxIncome {
				r.Incomes = append(r.Incomes, income)
			}
		}
		if strings.Contains(rec.Response, PlaceholderMarker) {
			r.Placeholders++
		}
		if rec.Failed() {
			r.Failed++
		}

		if i > 0 {
			all.WriteByte(' ')
		}
		all.WriteString(strings.ToLower(rec.Instruction))
	}

	r.Instructions = lengthStats(instrLens)
	r.Responses = lengthStats(respLens)
	r.Keywords = countKeywords(all.String())
	r.Scores = dataset.ComputeScoreStats(records)
	return r
}

func lengthStats(lens []int) LengthStats {
	if len(lens) == 0 {
		return LengthStats{}
	}
	sum := 0
	for _, n := range lens {
		sum += n
	}
	return LengthStats{
		Min:     slices.Min(lens),
		Max:     slices.Max(lens),
		Average: float64(sum) / float64(len(lens)),
	}
}

// countKeywords returns every keyword group ordered by descending count.
// Equal counts keep their declaration order.
func countKeywords(text string) []KeywordCount {
	out := make([]KeywordCount, 0, len(keywordGroups))
	for _, g := range keywordGroups {
		n := 0
		for _, term := range g.terms {
			n += strings.Count(text, term)
		}
		out = append(out, KeywordCount{Keyword: g.label, Count: n})
	}
	slices.SortStableFunc(out, func(a, b KeywordCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out
}

func mean(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

// Print writes the human-readable report to w.
func (r *Report) Print(w io.Writer) {
	p := message.NewPrinter(language.English)
	rule := strings.Repeat("=", 80)
	n := len(r.Records)

	fmt.Fprintf(w, "\n%s\nDATASET ANALYSIS: %s\n%s\n\n", rule, r.Path, rule)

	fmt.Fprintf(w, "Basic Statistics:\n")
	fmt.Fprintf(w, "   Total samples: %d\n", n)
	fmt.Fprintf(w, "   File size: %.2f KB\n\n", float64(r.SizeBytes)/1024)

	printLengths(w, "Instruction Analysis", r.Instructions)
	printLengths(w, "Response Analysis", r.Responses)

	fmt.Fprintf(w, "Context Field:\n")
	fmt.Fprintf(w, "   Samples with context: %d\n", r.WithContext)
	fmt.Fprintf(w, "   Samples without context: %d\n\n", n-r.WithContext)

	if len(r.Ages) > 0 {
		fmt.Fprintf(w, "Age Distribution (from instructions):\n")
		fmt.Fprintf(w, "   Total ages mentioned: %d\n", len(r.Ages))
		fmt.Fprintf(w, "   Age range: %d - %d\n", slices.Min(r.Ages), slices.Max(r.Ages))
		fmt.Fprintf(w, "   Average age: %.1f\n\n", mean(r.Ages))
	}

	if len(r.Incomes) > 0 {
		fmt.Fprintf(w, "Income Distribution (from instructions):\n")
		fmt.Fprintf(w, "   Samples with income: %d\n", len(r.Incomes))
		p.Fprintf(w, "   Average income: $%.0f\n", mean(r.Incomes))
		p.Fprintf(w, "   Income range: $%d - $%d\n\n", slices.Min(r.Incomes), slices.Max(r.Incomes))
	}

	if r.Placeholders > 0 {
		complete := n - r.Placeholders
		fmt.Fprintf(w, "Quality Check:\n")
		fmt.Fprintf(w, "   Placeholder responses: %d\n", r.Placeholders)
		fmt.Fprintf(w, "   Complete responses: %d\n", complete)
		fmt.Fprintf(w, "   Completion rate: %.1f%%\n\n", float64(complete)/float64(n)*100)
	} else {
		fmt.Fprintf(w, "Quality Check:\n   All responses are complete (no placeholders)\n\n")
	}

	if r.Failed > 0 {
		fmt.Fprintf(w, "Failed Generations:\n")
		fmt.Fprintf(w, "   Records with generation errors: %d\n\n", r.Failed)
	}

	fmt.Fprintf(w, "Keyword Frequency:\n")
	for _, kc := range r.Keywords {
		if kc.Count > 0 {
			fmt.Fprintf(w, "   %s: %d\n", kc.Keyword, kc.Count)
		}
	}

	if r.Scores.Count > 0 {
		fmt.Fprintf(w, "\nJudge Scores (%d scored):\n", r.Scores.Count)
		fmt.Fprintf(w, "   Average score: %.2f/10\n", r.Scores.Average)
		fmt.Fprintf(w, "   Highest score: %.1f/10\n", r.Scores.Highest)
		fmt.Fprintf(w, "   Lowest score: %.1f/10\n", r.Scores.Lowest)
		fmt.Fprintf(w, "   Samples >= 8.0: %d\n", r.Scores.AtLeast8)
		fmt.Fprintf(w, "   Samples >= 7.0: %d\n", r.Scores.AtLeast7)
	}

	fmt.Fprintf(w, "\n%s\n\n", rule)
}

func printLengths(w io.Writer, title string, s LengthStats) {
	fmt.Fprintf(w, "%s:\n", title)
	fmt.Fprintf(w, "   Average length: %.0f characters\n", s.Average)
	fmt.Fprintf(w, "   Min length: %d characters\n", s.Min)
	fmt.Fprintf(w, "   Max length: %d characters\n\n", s.Max)
}

// PrintSample writes the record at index i of the dataset at path.
func PrintSample(w io.Writer, path string, i int) error {
	if _, err := os.Stat(path); err != nil {
		return eris.Errorf("analyze: file not found: %s", path)
	}
	records, err := dataset.ReadFile[dataset.Record](path)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(records) {
		return eris.Errorf("analyze: index %d out of range (dataset has %d samples)", i, len(records))
	}

	rec := records[i]
	rule := strings.Repeat("=", 80)
	ctx := rec.Context
	if ctx == "" {
		ctx = "(empty)"
	}
	fmt.Fprintf(w, "\n%s\nSAMPLE #%d\n%s\n\n", rule, i+1, rule)
	fmt.Fprintf(w, "Instruction:\n%s\n\n", rec.Instruction)
	fmt.Fprintf(w, "Context:\n%s\n\n", ctx)
	fmt.Fprintf(w, "Response:\n%s\n\n", rec.Response)
	if rec.QualityScores != nil {
		fmt.Fprintf(w, "Overall Score: %.1f/10\n%s\n\n", rec.QualityScores.OverallScore, rec.QualityScores.Explanation)
	}
	fmt.Fprintf(w, "%s\n\n", rule)
	return nil
}
