package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/wealth-dataset/internal/catalog"
	"github.com/sells-group/wealth-dataset/internal/composer"
	"github.com/sells-group/wealth-dataset/internal/dataset"
)

// progressEvery is how often the emitter reports progress.
const progressEvery = 10

// Emitter produces instructions by drawing a persona uniformly and composing
// a scenario for it. The persona draw and the composer share one generator.
type Emitter struct {
	comp     *composer.Composer
	personas []catalog.Persona
	rng      *rand.Rand
}

// NewEmitter creates an Emitter. comp must be built on the same rng.
func NewEmitter(comp *composer.Composer, personas []catalog.Persona, rng *rand.Rand) *Emitter {
	return &Emitter{comp: comp, personas: personas, rng: rng}
}

// Next returns the next persona and its instruction.
func (e *Emitter) Next() (catalog.Persona, string) {
	p := e.personas[e.rng.IntN(len(e.personas))]
	return p, e.comp.Compose(p)
}

// Preview prints n sample instructions. It advances the generator exactly
// like Emit would.
func (e *Emitter) Preview(out io.Writer, n int) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(out, "\n%s\nPREVIEW SAMPLES\n%s\n\n", rule, rule)
	for i := range n {
		p, instruction := e.Next()
		fmt.Fprintf(out, "Sample %d:\n", i+1)
		fmt.Fprintf(out, "Persona: %s\n", p.Name)
		fmt.Fprintf(out, "Instruction: %s\n", instruction)
		fmt.Fprintf(out, "%s\n\n", strings.Repeat("-", 80))
	}
}

// Emit writes n instructions to w, one JSON object per line, and reports
// progress to progress every ten instructions.
func (e *Emitter) Emit(w io.Writer, n int, progress io.Writer) (int, error) {
	enc := dataset.NewEncoder(w)
	for i := range n {
		_, instruction := e.Next()
		if err := enc.Encode(dataset.Instruction{Instruction: instruction}); err != nil {
			return i, eris.Wrap(err, "pipeline: write instruction")
		}
		if (i+1)%progressEvery == 0 {
			fmt.Fprintf(progress, "  Generated %d/%d instructions...\n", i+1, n)
		}
	}
	return n, nil
}

// EmitFile creates or overwrites path with n instructions.
func (e *Emitter) EmitFile(path string, n int, progress io.Writer) (int, error) {
	f, err := os.Create(path) //nolint:gosec // user-supplied output path
	if err != nil {
		return 0, eris.Wrapf(err, "pipeline: create %s", path)
	}

	fmt.Fprintf(progress, "Generating %d advisor instruction prompts...\n", n)
	bw := bufio.NewWriter(f)
	written, err := e.Emit(bw, n, progress)
	if err == nil {
		err = eris.Wrapf(bw.Flush(), "pipeline: flush %s", path)
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = eris.Wrapf(cerr, "pipeline: close %s", path)
	}
	if err != nil {
		return written, err
	}

	zap.L().Info("pipeline: instructions written",
		zap.String("path", path),
		zap.Int("count", written),
	)
	fmt.Fprintf(progress, "\nInstructions saved to %s\n  Total instructions: %d\n", path, written)
	return written, nil
}
