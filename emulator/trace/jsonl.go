package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
)

// JSONLWriter writes Step records as JSON Lines. It is safe for concurrent
// use so a CLI may flush it from a signal handler while the engine runs.
type JSONLWriter struct {
	mu     sync.Mutex
	enc    *json.Encoder
	buf    *bufio.Writer
	closer io.Closer // set only when we own the underlying writer
	closed bool
}

// ErrWriterClosed is returned when WriteStep or Flush is called after Close.
var ErrWriterClosed = errors.New("jsonl trace writer is closed")

// NewJSONLWriter wraps w. Close flushes but never closes w.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return newWriter(w, nil, 64*1024)
}

// NewJSONLWriterFile creates (or truncates) path; Close closes the file.
func NewJSONLWriterFile(path string) (*JSONLWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return newWriter(f, f, 64*1024), nil
}

// NewJSONLWriterStdout uses a small buffer so output shows up promptly.
func NewJSONLWriterStdout() *JSONLWriter {
	return newWriter(os.Stdout, nil, 4*1024)
}

func newWriter(w io.Writer, closer io.Closer, size int) *JSONLWriter {
	buf := bufio.NewWriterSize(w, size)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &JSONLWriter{enc: enc, buf: buf, closer: closer}
}

func (w *JSONLWriter) WriteStep(step *Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}
	return w.enc.Encode(step)
}

func (w *JSONLWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}
	return w.buf.Flush()
}

// Close flushes and, for file writers, closes the file. Closing twice is a no-op.
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.buf.Flush(); err != nil {
		if w.closer != nil {
			_ = w.closer.Close()
		}
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
