package dataset

// ScoreStats summarises overall scores across scored records.
type ScoreStats struct {
	Count    int
	Average  float64
	Highest  float64
	Lowest   float64
	AtLeast8 int
	AtLeast7 int
}

// ComputeScoreStats summarises the records that carry quality scores.
// Unscored records are ignored.
func ComputeScoreStats(records []Record) ScoreStats {
	var st ScoreStats
	sum := 0.0
	for _, r := range records {
		if r.QualityScores == nil {
			continue
		}
		s := r.QualityScores.OverallScore
		if st.Count == 0 || s > st.Highest {
			st.Highest = s
		}
		if st.Count == 0 || s < st.Lowest {
			st.Lowest = s
		}
		if s >= 8 {
			st.AtLeast8++
		}
		if s >= 7 {
			st.AtLeast7++
		}
		sum += s
		st.Count++
	}
	if st.Count > 0 {
		st.Average = sum / float64(st.Count)
	}
	return st
}
