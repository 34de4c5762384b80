package pipeline

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/sells-group/wealth-dataset/internal/catalog"
	"github.com/sells-group/wealth-dataset/internal/composer"
	"github.com/sells-group/wealth-dataset/internal/dataset"
	"github.com/sells-group/wealth-dataset/internal/judge"
	"github.com/sells-group/wealth-dataset/internal/llm"
	"github.com/sells-group/wealth-dataset/internal/llm/mocks"
	"github.com/sells-group/wealth-dataset/internal/responder"
)

func TestMain(m *testing.M) {
	zap.ReplaceGlobals(zap.NewNop())
	// genai imports opencensus, whose stats worker starts in init and never exits.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

const goodEval = `{"overall_score": 8.5, "tone_confidence": 9, "hsbc_values": 8,
"actionability": 8, "empathy_warmth": 9, "market_specificity": 7,
"tier_appropriateness": 8, "explanation": "Solid.", "strengths": ["warm"],
"improvements": []}`

func newEmitter(seed uint64) *Emitter {
	rng := rand.New(rand.NewPCG(seed, seed))
	cat := catalog.Default()
	return NewEmitter(composer.New(cat, rng), cat.Personas, rng)
}

func writeInstructions(t *testing.T, dir string, instr ...string) string {
	t.Helper()
	recs := make([]dataset.Instruction, len(instr))
	for i, s := range instr {
		recs[i] = dataset.Instruction{Instruction: s}
	}
	path := filepath.Join(dir, "instructions.jsonl")
	require.NoError(t, dataset.WriteFile(path, recs))
	return path
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...", truncate("abc", 2))
	assert.Equal(t, "€€...", truncate("€€€", 2))
}

func TestRequireFile(t *testing.T) {
	dir := t.TempDir()
	err := requireFile(filepath.Join(dir, "missing.jsonl"), "instructions")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instructions file not found")

	path := writeInstructions(t, dir, "x")
	assert.NoError(t, requireFile(path, "instructions"))
}

func TestNewPacer(t *testing.T) {
	ctx := context.Background()
	p := newPacer(0)
	for range 5 {
		require.NoError(t, p.Wait(ctx))
	}

	p = newPacer(time.Hour)
	require.NoError(t, p.Wait(ctx))
	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Wait(short))
}

func TestEmitter_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	_, err := newEmitter(42).Emit(&a, 25, &bytes.Buffer{})
	require.NoError(t, err)
	_, err = newEmitter(42).Emit(&b, 25, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())

	var c bytes.Buffer
	_, err = newEmitter(43).Emit(&c, 25, &bytes.Buffer{})
	require.NoError(t, err)
	assert.NotEqual(t, a.String(), c.String())
}

func TestEmitter_EmitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	var progress bytes.Buffer

	n, err := newEmitter(7).EmitFile(path, 23, &progress)
	require.NoError(t, err)
	assert.Equal(t, 23, n)

	recs, err := dataset.ReadFile[dataset.Instruction](path)
	require.NoError(t, err)
	require.Len(t, recs, 23)
	for _, r := range recs {
		assert.NotEmpty(t, r.Instruction)
	}
	assert.Contains(t, progress.String(), "Generated 10/23 instructions...")
	assert.Contains(t, progress.String(), "Generated 20/23 instructions...")
	assert.NotContains(t, progress.String(), "Generated 23/23")
	assert.Contains(t, progress.String(), "Instructions saved to "+path)
}

func TestEmitter_PreviewMatchesEmit(t *testing.T) {
	var preview bytes.Buffer
	newEmitter(9).Preview(&preview, 3)

	e := newEmitter(9)
	for i := range 3 {
		p, instruction := e.Next()
		assert.Contains(t, preview.String(), "Persona: "+p.Name, "sample %d", i)
		assert.Contains(t, preview.String(), "Instruction: "+instruction, "sample %d", i)
	}
	assert.Contains(t, preview.String(), "PREVIEW SAMPLES")
	assert.Contains(t, preview.String(), "Sample 3:")
}

func TestResponseStage_Run(t *testing.T) {
	dir := t.TempDir()
	in := writeInstructions(t, dir, "first brief", "second brief", "third brief")
	out := filepath.Join(dir, "dataset.jsonl")

	m := mocks.NewMockCompleter(t)
	m.On("Model").Return("claude-test").Maybe()
	m.On("Complete", mock.Anything, mock.MatchedBy(func(p llm.Prompt) bool { return p.User == "first brief" })).
		Return(&llm.Completion{Text: "Dear client, one.", Model: "claude-test", CostUSD: 0.01}, nil).Once()
	m.On("Complete", mock.Anything, mock.MatchedBy(func(p llm.Prompt) bool { return p.User == "second brief" })).
		Return(nil, errors.New("upstream exploded")).Once()
	m.On("Complete", mock.Anything, mock.MatchedBy(func(p llm.Prompt) bool { return p.User == "third brief" })).
		Return(&llm.Completion{Text: "Dear client, three.", Model: "claude-test", CostUSD: 0.02}, nil).Once()

	var buf bytes.Buffer
	stage := &ResponseStage{
		Responder: responder.New(m, responder.Options{}),
		Input:     in,
		Output:    out,
		Out:       &buf,
	}
	sum, err := stage.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Generated)
	assert.Equal(t, 1, sum.Failed)
	assert.InDelta(t, 0.03, sum.CostUSD, 1e-9)
	assert.NotEmpty(t, sum.RunID)

	recs, err := dataset.ReadFile[dataset.Record](out)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "Dear client, one.", recs[0].Response)
	assert.Equal(t, "", recs[0].Context)
	assert.True(t, recs[1].Failed())
	assert.Equal(t, "[Error generating response: upstream exploded]", recs[1].Response)
	assert.Equal(t, "upstream exploded", recs[1].GenerationError)
	assert.Equal(t, "third brief", recs[2].Instruction)

	assert.Contains(t, buf.String(), "[2/3] Generating response...")
	assert.Contains(t, buf.String(), "Total samples: 3")
}

func TestResponseStage_AppendsAndCaps(t *testing.T) {
	dir := t.TempDir()
	in := writeInstructions(t, dir, "a", "b", "c", "d")
	out := filepath.Join(dir, "dataset.jsonl")
	require.NoError(t, dataset.WriteFile(out, []dataset.Record{{Instruction: "existing", Response: "kept"}}))

	m := mocks.NewMockCompleter(t)
	m.On("Complete", mock.Anything, mock.Anything).
		Return(&llm.Completion{Text: "ok", Model: "claude-test"}, nil).Times(2)

	stage := &ResponseStage{
		Responder:  responder.New(m, responder.Options{}),
		Input:      in,
		Output:     out,
		MaxSamples: 2,
		Out:        &bytes.Buffer{},
	}
	sum, err := stage.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)

	recs, err := dataset.ReadFile[dataset.Record](out)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "existing", recs[0].Instruction)
	assert.Equal(t, "a", recs[1].Instruction)
	assert.Equal(t, "b", recs[2].Instruction)
}

func TestResponseStage_MissingInput(t *testing.T) {
	dir := t.TempDir()
	stage := &ResponseStage{
		Responder: responder.New(mocks.NewMockCompleter(t), responder.Options{}),
		Input:     filepath.Join(dir, "nope.jsonl"),
		Output:    filepath.Join(dir, "out.jsonl"),
		Out:       &bytes.Buffer{},
	}
	_, err := stage.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, statErr := os.Stat(stage.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestResponseStage_Cancelled(t *testing.T) {
	dir := t.TempDir()
	in := writeInstructions(t, dir, "a", "b")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stage := &ResponseStage{
		Responder: responder.New(mocks.NewMockCompleter(t), responder.Options{}),
		Input:     in,
		Output:    filepath.Join(dir, "out.jsonl"),
		Out:       &bytes.Buffer{},
	}
	_, err := stage.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
}

func TestResponseStage_Preview(t *testing.T) {
	dir := t.TempDir()
	in := writeInstructions(t, dir, "first brief", "second brief")
	out := filepath.Join(dir, "dataset.jsonl")

	m := mocks.NewMockCompleter(t)
	m.On("Complete", mock.Anything, mock.MatchedBy(func(p llm.Prompt) bool { return p.User == "first brief" })).
		Return(&llm.Completion{Text: "Dear client.", Model: "claude-test"}, nil).Once()

	var buf bytes.Buffer
	stage := &ResponseStage{Responder: responder.New(m, responder.Options{}), Input: in, Output: out, Out: &buf}
	require.NoError(t, stage.Preview(context.Background()))
	assert.Contains(t, buf.String(), "first brief")
	assert.Contains(t, buf.String(), "Dear client.")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestScoreStage_Run(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "dataset.jsonl")
	require.NoError(t, dataset.WriteFile(in, []dataset.Record{
		{Instruction: "good", Response: "A fine letter."},
		{Instruction: "broken", Response: dataset.ErrorMarker("timeout"), GenerationError: "timeout"},
		{Instruction: "garbled", Response: "Another letter."},
		{Instruction: "great", Response: "An excellent letter."},
	}))
	out := filepath.Join(dir, "scored.jsonl")

	m := mocks.NewMockCompleter(t)
	m.On("Complete", mock.Anything, mock.MatchedBy(func(p llm.Prompt) bool { return strings.Contains(p.User, "A fine letter.") })).
		Return(&llm.Completion{Text: goodEval, CostUSD: 0.001}, nil).Once()
	m.On("Complete", mock.Anything, mock.MatchedBy(func(p llm.Prompt) bool { return strings.Contains(p.User, "Another letter.") })).
		Return(&llm.Completion{Text: "not json at all"}, nil).Once()
	m.On("Complete", mock.Anything, mock.MatchedBy(func(p llm.Prompt) bool { return strings.Contains(p.User, "An excellent letter.") })).
		Return(&llm.Completion{Text: strings.Replace(goodEval, "8.5", "9.5", 1)}, nil).Once()

	var buf bytes.Buffer
	stage := &ScoreStage{Judge: judge.New(m, judge.Options{}), Input: in, Output: out, Out: &buf}
	sum, err := stage.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.Scored)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, filepath.Join(dir, "scored_sorted.jsonl"), sum.SortedPath)

	scored, err := dataset.ReadFile[dataset.Record](out)
	require.NoError(t, err)
	require.Len(t, scored, 4)
	assert.Equal(t, "good", scored[0].Instruction)
	require.NotNil(t, scored[1].QualityScores)
	assert.Equal(t, judge.SkippedExplanation, scored[1].QualityScores.Explanation)
	assert.Equal(t, judge.ParseFailureExplanation, scored[2].QualityScores.Explanation)

	sorted, err := dataset.ReadFile[dataset.Record](sum.SortedPath)
	require.NoError(t, err)
	require.Len(t, sorted, 4)
	assert.Equal(t, "great", sorted[0].Instruction)
	assert.Equal(t, "good", sorted[1].Instruction)
	assert.Equal(t, "broken", sorted[2].Instruction)
	assert.Equal(t, "garbled", sorted[3].Instruction)

	assert.Equal(t, 4, sum.Stats.Count)
	assert.InDelta(t, 9.5, sum.Stats.Highest, 1e-9)
	assert.InDelta(t, 0, sum.Stats.Lowest, 1e-9)
	assert.Equal(t, 2, sum.Stats.AtLeast8)
	assert.Contains(t, buf.String(), "Overall Score: 8.5/10")
	assert.Contains(t, buf.String(), "Average score: 4.50/10")
}

func TestScoreStage_OverwritesOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "dataset.jsonl")
	require.NoError(t, dataset.WriteFile(in, []dataset.Record{{Instruction: "x", Response: "y"}}))
	out := filepath.Join(dir, "scored.jsonl")
	require.NoError(t, dataset.WriteFile(out, []dataset.Record{{Instruction: "stale"}, {Instruction: "stale"}}))

	m := mocks.NewMockCompleter(t)
	m.On("Complete", mock.Anything, mock.Anything).Return(&llm.Completion{Text: goodEval}, nil).Once()

	stage := &ScoreStage{Judge: judge.New(m, judge.Options{}), Input: in, Output: out, Out: &bytes.Buffer{}}
	_, err := stage.Run(context.Background())
	require.NoError(t, err)

	recs, err := dataset.ReadFile[dataset.Record](out)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "x", recs[0].Instruction)
}

func TestScoreStage_KeepsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "scored_old.jsonl")
	line := `{"instruction":"x","context":"","response":"y","quality_scores":{"overall_score":2},"source":"crm","tags":["hk","jade"]}` + "\n"
	require.NoError(t, os.WriteFile(in, []byte(line), 0o644))
	out := filepath.Join(dir, "scored.jsonl")

	m := mocks.NewMockCompleter(t)
	m.On("Complete", mock.Anything, mock.Anything).Return(&llm.Completion{Text: goodEval}, nil).Once()

	stage := &ScoreStage{Judge: judge.New(m, judge.Options{}), Input: in, Output: out, Out: &bytes.Buffer{}}
	_, err := stage.Run(context.Background())
	require.NoError(t, err)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `,"source":"crm","tags":["hk","jade"]}`)
	assert.NotContains(t, string(raw), `"overall_score":2,`)

	recs, err := dataset.ReadFile[dataset.Record](out)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, 8.5, recs[0].Score(), 1e-9)
	assert.JSONEq(t, `"crm"`, string(recs[0].Extra["source"]))
}
