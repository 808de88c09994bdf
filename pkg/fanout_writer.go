package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// FanOutWriter writes each chunk to all of its writers.
// A failing writer does not stop the others.
type FanOutWriter struct {
	writers []io.Writer
}

func NewFanOutWriter(writers ...io.Writer) *FanOutWriter {
	fw := &FanOutWriter{}
	for _, w := range writers {
		if w != nil {
			fw.writers = append(fw.writers, w)
		}
	}
	return fw
}

// Write reports len(p) if at least one writer took the whole chunk.
// Errors of all failing writers are combined.
func (fw *FanOutWriter) Write(p []byte) (int, error) {
	var errs error
	delivered := false
	for _, w := range fw.writers {
		n, err := w.Write(p)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if n == len(p) {
			delivered = true
		}
	}

	if delivered {
		return len(p), errs
	}
	if errs == nil {
		errs = io.ErrShortWrite
	}
	return 0, errs
}
