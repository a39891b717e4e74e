package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter tees every Write to all underlying writers. A failing
// writer does not stop the others; their errors are combined and n is
// the total written across all of them.
type CombinedWriter struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{writers: writers}
}

func (cw *CombinedWriter) Write(p []byte) (n int, err error) {
	for _, w := range cw.writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		n += written
	}
	return n, err
}
