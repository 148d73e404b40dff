package bridge

import (
	"os"
	"sync"
)

// Sink receives serialized payload text. The primary sink and the
// optional mirror receive byte-identical text on every publish.
type Sink interface {
	// Name identifies the sink for diagnostics.
	Name() string

	// Write stores the serialized payload.
	Write(text string) error
}

// MemorySink is an in-memory sink, used for tests and as the default
// host attribute store.
type MemorySink struct {
	mu     sync.Mutex
	name   string
	text   string
	writes int
}

// NewMemorySink creates a named in-memory sink.
func NewMemorySink(name string) *MemorySink {
	return &MemorySink{name: name}
}

// Name returns the sink name.
func (s *MemorySink) Name() string { return s.name }

// Write stores the payload text.
func (s *MemorySink) Write(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.writes++
	return nil
}

// Text returns the last written payload.
func (s *MemorySink) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Writes returns the number of writes received.
func (s *MemorySink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// FileSink persists the payload to a file on every publish.
type FileSink struct {
	name string
	path string
}

// NewFileSink creates a sink writing to the given path.
func NewFileSink(name, path string) *FileSink {
	return &FileSink{name: name, path: path}
}

// Name returns the sink name.
func (s *FileSink) Name() string { return s.name }

// Path returns the backing file path.
func (s *FileSink) Path() string { return s.path }

// Write stores the payload text to the backing file.
func (s *FileSink) Write(text string) error {
	return os.WriteFile(s.path, []byte(text), 0o644)
}

// ReadText returns the current file contents, or ("", false) when the
// file does not exist yet.
func (s *FileSink) ReadText() (string, bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}
