// Package pipeline drives the three dataset stages: instruction generation,
// response generation and quality scoring. Stages run one record at a time
// and write each result as soon as it exists.
package pipeline

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// newPacer spaces model calls at least delay apart. The first call is not
// delayed.
func newPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func newRunID() string {
	return uuid.New().String()
}

// requireFile returns a readable error when path does not exist.
func requireFile(path, what string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return eris.Errorf("pipeline: %s file not found: %s", what, path)
		}
		return eris.Wrapf(err, "pipeline: stat %s", path)
	}
	return nil
}

// truncate shortens s to n runes, appending "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
