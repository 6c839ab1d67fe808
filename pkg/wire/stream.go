package wire

import (
	"errors"
	"io"
)

// Stream wraps an io.Reader and tracks how many bytes were consumed, so
// that ShortBuffer errors report the stream offset.
type Stream struct {
	r      io.Reader
	offset int
}

// NewStream returns a Stream reading from r.
func NewStream(r io.Reader) *Stream {
	if s, ok := r.(*Stream); ok {
		return s
	}
	return &Stream{r: r}
}

// Offset returns the number of bytes consumed so far.
func (s *Stream) Offset() int {
	return s.offset
}

// Read implements io.Reader.
func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.offset += n
	return n, err
}

// Next consumes exactly n bytes and returns them in a new slice. A stream
// that ends early fails with ShortBuffer.
func (s *Stream) Next(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(s.r, buf)
	start := s.offset
	s.offset += got
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ShortBuffer("", start, n, got)
		}
		return nil, err
	}
	return buf, nil
}

// ReadStream consumes exactly n bytes from r.
func ReadStream(r io.Reader, n int) ([]byte, error) {
	return NewStream(r).Next(n)
}

// StreamOffset returns the consumed byte count of r when it is a *Stream and
// zero otherwise. Decoders reading several records from one reader report
// positions in the stream only when it is wrapped with NewStream.
func StreamOffset(r io.Reader) int {
	if s, ok := r.(*Stream); ok {
		return s.offset
	}
	return 0
}
