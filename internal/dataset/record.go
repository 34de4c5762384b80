// Package dataset defines the JSON Lines records the pipeline stages read
// and write.
package dataset

import (
	"bytes"
	"encoding/json"
	"maps"
	"path/filepath"
	"slices"
	"strings"
)

// errorMarkerPrefix opens the response text of a record whose generation
// failed. Kept for files produced before generation_error existed.
const errorMarkerPrefix = "[Error generating response: "

// Instruction is a stage 1 record.
type Instruction struct {
	Instruction string `json:"instruction"`
}

// Record is a stage 2/3 record. QualityScores is set by the scoring stage.
// Keys the pipeline does not know are kept in Extra and written back after
// the known fields, sorted by key.
type Record struct {
	Instruction     string                     `json:"instruction"`
	Context         string                     `json:"context"`
	Response        string                     `json:"response"`
	GenerationError string                     `json:"generation_error,omitempty"`
	QualityScores   *QualityScores             `json:"quality_scores,omitempty"`
	Extra           map[string]json.RawMessage `json:"-"`
}

// recordFields has Record's layout without its JSON methods.
type recordFields Record

var recordKeys = []string{"instruction", "context", "response", "generation_error", "quality_scores"}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
func (r *Record) UnmarshalJSON(b []byte) error {
	var known recordFields
	if err := json.Unmarshal(b, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	// encoding/json matches struct keys case-insensitively.
	maps.DeleteFunc(all, func(k string, _ json.RawMessage) bool {
		return slices.ContainsFunc(recordKeys, func(known string) bool { return strings.EqualFold(k, known) })
	})
	if len(all) > 0 {
		known.Extra = all
	}
	*r = Record(known)
	return nil
}

// MarshalJSON writes the known fields followed by Extra.
func (r Record) MarshalJSON() ([]byte, error) {
	b, err := encodeCompact(recordFields(r))
	if err != nil || len(r.Extra) == 0 {
		return b, err
	}

	var buf bytes.Buffer
	buf.Write(b[:len(b)-1])
	for _, k := range slices.Sorted(maps.Keys(r.Extra)) {
		kb, err := encodeCompact(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(r.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// QualityScores is the judge's evaluation of one response. Scores are on a
// 1-10 scale; all zero means the evaluation failed.
type QualityScores struct {
	OverallScore        float64  `json:"overall_score"`
	ToneConfidence      float64  `json:"tone_confidence"`
	HSBCValues          float64  `json:"hsbc_values"`
	Actionability       float64  `json:"actionability"`
	EmpathyWarmth       float64  `json:"empathy_warmth"`
	MarketSpecificity   float64  `json:"market_specificity"`
	TierAppropriateness float64  `json:"tier_appropriateness"`
	Explanation         string   `json:"explanation"`
	Strengths           []string `json:"strengths"`
	Improvements        []string `json:"improvements"`
}

// ErrorMarker returns the response text written in place of a failed
// generation.
func ErrorMarker(msg string) string {
	return errorMarkerPrefix + msg + "]"
}

// Failed reports whether the record's response was never generated.
func (r Record) Failed() bool {
	if r.GenerationError != "" {
		return true
	}
	return strings.HasPrefix(r.Response, errorMarkerPrefix) && strings.HasSuffix(r.Response, "]")
}

// Score returns the overall score, or 0 for unscored records.
func (r Record) Score() float64 {
	if r.QualityScores == nil {
		return 0
	}
	return r.QualityScores.OverallScore
}

// SortByScore orders records by descending overall score. Ties keep their
// input order.
func SortByScore(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		switch sa, sb := a.Score(), b.Score(); {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		default:
			return 0
		}
	})
}

// SortedPath returns the path of the sorted copy of a scored file:
// "scored.jsonl" becomes "scored_sorted.jsonl".
func SortedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_sorted" + ext
}
