package executor

import (
	"io"
	"sync"
)

// ConsoleWriter forwards live output to a pair of writers. The CLI points
// both at stderr so stdout stays reserved for the JSON result.
type ConsoleWriter struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

// NewConsoleWriter creates a ConsoleWriter
func NewConsoleWriter(stdout, stderr io.Writer) *ConsoleWriter {
	return &ConsoleWriter{stdout: stdout, stderr: stderr}
}

// Write implements OutputWriter
func (w *ConsoleWriter) Write(stream string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dst := w.stdout
	if stream == StderrStream {
		dst = w.stderr
	}
	_, err := dst.Write(data)
	return err
}
