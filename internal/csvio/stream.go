package csvio

// stream.go provides the reader chain applied to every import:
//
//   - sizeLimitReader: fails with ErrFileTooLarge past a byte limit
//   - sanitizingReader: skips a leading UTF-8 BOM and replaces invalid
//     UTF-8 sequences with '?'
//
// Use wrapReader to apply both in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sanitizingReader decodes the underlying stream rune by rune. A rune that
// needs more room than p has left is held back for the next call.
type sanitizingReader struct {
	r          *bufio.Reader
	bomChecked bool
	pending    []byte
	scratch    [utf8.UTFMax]byte
}

func newSanitizingReader(r io.Reader) *sanitizingReader {
	return &sanitizingReader{r: bufio.NewReader(r)}
}

func (s *sanitizingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !s.bomChecked {
		s.bomChecked = true
		if head, _ := s.r.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
			s.r.Discard(len(utf8BOM))
		}
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]

	for n < len(p) {
		// Only block on the underlying reader when nothing was produced yet.
		if n > 0 && s.r.Buffered() == 0 {
			break
		}
		r, size, err := s.r.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}

		var enc []byte
		if r == utf8.RuneError && size == 1 {
			enc = []byte{'?'}
		} else {
			w := utf8.EncodeRune(s.scratch[:], r)
			enc = s.scratch[:w]
		}

		c := copy(p[n:], enc)
		n += c
		if c < len(enc) {
			s.pending = append(s.pending[:0], enc[c:]...)
			break
		}
	}
	return n, nil
}

// sizeLimitReader reads at most limit bytes; one more fails the read.
type sizeLimitReader struct {
	r     io.Reader
	limit int64
	read  int64
}

func (l *sizeLimitReader) Read(p []byte) (int, error) {
	if l.read > l.limit {
		return 0, ErrFileTooLarge
	}
	if max := l.limit - l.read + 1; int64(len(p)) > max {
		p = p[:max]
	}
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.read > l.limit {
		return 0, ErrFileTooLarge
	}
	return n, err
}

// wrapReader applies the size limit to the raw bytes, then sanitizes.
// A limit of zero or less disables the size check.
func wrapReader(r io.Reader, limit int64) io.Reader {
	if limit > 0 {
		r = &sizeLimitReader{r: r, limit: limit}
	}
	return newSanitizingReader(r)
}
