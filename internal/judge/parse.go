package judge

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/wealth-dataset/internal/dataset"
)

type rawScores struct {
	OverallScore        *float64 `json:"overall_score"`
	ToneConfidence      *float64 `json:"tone_confidence"`
	HSBCValues          *float64 `json:"hsbc_values"`
	Actionability       *float64 `json:"actionability"`
	EmpathyWarmth       *float64 `json:"empathy_warmth"`
	MarketSpecificity   *float64 `json:"market_specificity"`
	TierAppropriateness *float64 `json:"tier_appropriateness"`
	Explanation         string   `json:"explanation"`
	Strengths           []string `json:"strengths"`
	Improvements        []string `json:"improvements"`
}

// ParseScores decodes an evaluation, tolerating a Markdown code fence and
// text around the JSON object. All seven numeric scores are required.
func ParseScores(text string) (*dataset.QualityScores, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, eris.New("judge: empty evaluation")
	}

	var raw rawScores
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, eris.Wrap(err, "judge: decode evaluation")
	}

	fields := []struct {
		name string
		val  *float64
	}{
		{"overall_score", raw.OverallScore},
		{"tone_confidence", raw.ToneConfidence},
		{"hsbc_values", raw.HSBCValues},
		{"actionability", raw.Actionability},
		{"empathy_warmth", raw.EmpathyWarmth},
		{"market_specificity", raw.MarketSpecificity},
		{"tier_appropriateness", raw.TierAppropriateness},
	}
	for _, f := range fields {
		if f.val == nil {
			return nil, eris.Errorf("judge: evaluation missing %s", f.name)
		}
	}

	if raw.Strengths == nil {
		raw.Strengths = []string{}
	}
	if raw.Improvements == nil {
		raw.Improvements = []string{}
	}

	return &dataset.QualityScores{
		OverallScore:        *raw.OverallScore,
		ToneConfidence:      *raw.ToneConfidence,
		HSBCValues:          *raw.HSBCValues,
		Actionability:       *raw.Actionability,
		EmpathyWarmth:       *raw.EmpathyWarmth,
		MarketSpecificity:   *raw.MarketSpecificity,
		TierAppropriateness: *raw.TierAppropriateness,
		Explanation:         raw.Explanation,
		Strengths:           raw.Strengths,
		Improvements:        raw.Improvements,
	}, nil
}

// cleanJSON strips a leading ```json or ``` fence and its closing fence, then
// narrows to the outermost {...}.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
