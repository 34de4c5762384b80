package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// maxLineSize bounds a single JSONL line. Responses run to a few KB.
const maxLineSize = 16 * 1024 * 1024

// Read decodes one T per non-blank line.
func Read[T any](r io.Reader) ([]T, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var out []T
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, eris.Wrapf(err, "dataset: decode line %d", line)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "dataset: scan")
	}
	return out, nil
}

// ReadFile reads every record in path. A missing file yields an error that
// matches fs.ErrNotExist.
func ReadFile[T any](path string) ([]T, error) {
	f, err := os.Open(path) //nolint:gosec // user-supplied dataset path
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	out, err := Read[T](f)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	return out, nil
}

// Writer appends JSON objects, one per line, flushing each to disk.
type Writer struct {
	f   *os.File
	enc *json.Encoder
}

// Create truncates or creates path for writing.
func Create(path string) (*Writer, error) {
	return open(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY)
}

// Append opens path for appending, creating it if needed.
func Append(path string) (*Writer, error) {
	return open(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY)
}

func open(path string, flag int) (*Writer, error) {
	f, err := os.OpenFile(path, flag, 0o644) //nolint:gosec // user-supplied dataset path
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	return &Writer{f: f, enc: NewEncoder(f)}, nil
}

// NewEncoder returns a JSON encoder that leaves <, > and & unescaped.
func NewEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// Write encodes v as one line and syncs it so a crash loses at most the
// record in flight.
func (w *Writer) Write(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return eris.Wrapf(err, "dataset: write %s", w.f.Name())
	}
	if err := w.f.Sync(); err != nil {
		return eris.Wrapf(err, "dataset: sync %s", w.f.Name())
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	if err := w.f.Close(); err != nil {
		return eris.Wrapf(err, "dataset: close %s", w.f.Name())
	}
	return nil
}

// WriteFile replaces path with records.
func WriteFile[T any](path string, records []T) (err error) {
	w, err := Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(w.f)
	enc := NewEncoder(bw)
	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return eris.Wrapf(err, "dataset: write %s", path)
		}
	}
	if err := bw.Flush(); err != nil {
		return eris.Wrapf(err, "dataset: flush %s", path)
	}
	return nil
}
