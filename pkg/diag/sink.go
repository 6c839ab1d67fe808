package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Sink receives diagnostics as they are reported. Implementations must be
// safe for concurrent use.
type Sink interface {
	Report(d Diagnostic)
}

// NoopSink discards all diagnostics.
type NoopSink struct{}

// Report discards d.
func (NoopSink) Report(Diagnostic) {}

// WriterSink prints one diagnostic per line.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink returns a sink printing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Report prints d.
func (s *WriterSink) Report(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, d.String())
}

// SlogSink forwards diagnostics to an slog.Logger. Warnings log at Warn and
// errors at Error.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink returns a sink writing to logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Report logs d.
func (s *SlogSink) Report(d Diagnostic) {
	level := slog.LevelWarn
	if d.Severity == SeverityError {
		level = slog.LevelError
	}
	attrs := []slog.Attr{
		slog.String("code", string(d.Code)),
		slog.String("pos", d.Pos.String()),
	}
	if d.Pos.Line > 0 {
		attrs = append(attrs, slog.Int("line", d.Pos.Line))
	}
	s.logger.LogAttrs(context.Background(), level, d.Message, attrs...)
}

// MultiSink sends diagnostics to several sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink returns a sink reporting to each of sinks in order.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Report sends d to every sink.
func (m *MultiSink) Report(d Diagnostic) {
	for _, s := range m.sinks {
		s.Report(d)
	}
}

// ReportAll sends every entry of l to sink.
func ReportAll(sink Sink, l List) {
	for _, d := range l {
		sink.Report(d)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Sink = NoopSink{}
	_ Sink = (*WriterSink)(nil)
	_ Sink = (*SlogSink)(nil)
	_ Sink = (*MultiSink)(nil)
)
