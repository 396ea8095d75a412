package display

import (
	"fmt"
	"io"
	"os"
	"sync"

	"sunburst/pkg/usage"
)

// consoleSink prints the dataset as a tree.
// Mutable
type consoleSink struct {
	mu    sync.Mutex
	out   io.Writer
	theme *Theme
}

// NewConsole creates a Sink that writes to standard output.
func NewConsole() Sink {
	return NewWriterSink(os.Stdout)
}

// NewWriterSink creates a Sink that writes to the provided io.Writer.
func NewWriterSink(w io.Writer) Sink {
	return &consoleSink{
		out:   w,
		theme: DefaultTheme(),
	}
}

func (s *consoleSink) Create(ds usage.Dataset, layout Layout) error {
	return s.draw("Disk usage", ds)
}

func (s *consoleSink) Update(ds usage.Dataset, layout Layout) error {
	return s.draw("Disk usage (updated)", ds)
}

func (s *consoleSink) draw(title string, ds usage.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	header := fmt.Sprintf("%s %s  %s\n", s.theme.IconDisk,
		s.theme.Styled(s.theme.Bold, title),
		s.theme.Styled(s.theme.Dim, fmt.Sprintf("%d entries", len(ds.Points))))
	if _, err := fmt.Fprint(s.out, header); err != nil {
		return err
	}
	_, err := fmt.Fprint(s.out, renderTree(ds, s.theme))
	return err
}
