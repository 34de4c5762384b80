package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/wealth-dataset/internal/dataset"
)

func scored(instr string, overall float64) dataset.Record {
	return dataset.Record{
		Instruction: instr,
		Response:    "Dear client, " + instr,
		QualityScores: &dataset.QualityScores{
			OverallScore:        overall,
			ToneConfidence:      9,
			HSBCValues:          8,
			Actionability:       7,
			EmpathyWarmth:       6,
			MarketSpecificity:   5,
			TierAppropriateness: 4,
			Explanation:         "ok",
			Strengths:           []string{"warm", "clear"},
			Improvements:        []string{},
		},
	}
}

func fixture() []dataset.Record {
	return []dataset.Record{
		scored("low", 5.5),
		{Instruction: "unscored"},
		scored("high", 9),
		scored("mid", 7.5),
	}
}

func TestRows(t *testing.T) {
	rows := Rows(fixture(), 0)
	require.Len(t, rows, 3)
	assert.Equal(t, "high", rows[0].Record.Instruction)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "low", rows[2].Record.Instruction)
	assert.Equal(t, [7]float64{9, 9, 8, 7, 6, 5, 4}, rows[0].Scores)

	rows = Rows(fixture(), 7.5)
	require.Len(t, rows, 2)
	assert.Equal(t, "mid", rows[1].Record.Instruction)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(Rows(fixture(), 0), &buf))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, Header, recs[0])
	assert.Equal(t, []string{
		"1", "9", "9", "8", "7", "6", "5", "4",
		"high", "Dear client, high", "ok", "warm; clear", "",
	}, recs[1])
	assert.Equal(t, "7.5", recs[2][1])
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.xlsx")
	require.NoError(t, WriteXLSX(Rows(fixture(), 0), path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 4)

	assert.Equal(t, "overall_score", sheet.Rows[0].Cells[1].String())
	top := sheet.Rows[1].Cells
	rank, err := top[0].Int()
	require.NoError(t, err)
	assert.Equal(t, 1, rank)
	overall, err := top[1].Float()
	require.NoError(t, err)
	assert.InDelta(t, 9, overall, 1e-9)
	assert.Equal(t, "high", top[8].String())
	assert.Equal(t, "warm; clear", top[11].String())
}
