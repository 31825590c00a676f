package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-scripts/connections/internal/types"
)

// FileWriter appends scraped connections to a CSV file, one flushed row at a time
type FileWriter struct {
	file    io.Closer
	csv     *csv.Writer
	written int
	mu      sync.Mutex
}

// New creates the output file (truncating any previous export) and writes the header row
func New(path string) (*FileWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	w, err := NewWriter(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	w.file = file
	return w, nil
}

// NewWriter wraps an arbitrary destination. The header is written immediately.
func NewWriter(dst io.Writer) (*FileWriter, error) {
	w := &FileWriter{csv: csv.NewWriter(dst)}
	if c, ok := dst.(io.Closer); ok {
		w.file = c
	}

	if err := w.csv.Write(types.Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return w, nil
}

// WriteConnection writes one row and flushes it so that rows already written
// survive a failure later in the run
func (w *FileWriter) WriteConnection(c types.Connection) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.csv.Write(c.Record()); err != nil {
		return fmt.Errorf("failed to write row for %s: %w", c.Link, err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush row for %s: %w", c.Link, err)
	}

	w.written++
	return nil
}

// Written returns the number of rows written after the header
func (w *FileWriter) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Close flushes any buffered data and closes the underlying file
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.csv.Flush()
	err := w.csv.Error()
	if w.file != nil {
		if cerr := w.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		w.file = nil
	}
	if err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}
