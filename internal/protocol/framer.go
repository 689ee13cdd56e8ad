package protocol

import (
	"bytes"
	"errors"
	"io"
)

// ErrFrameTooLarge is returned when a frame exceeds the reader's limit.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

const readChunk = 4096

// FrameReader splits a byte stream into newline-terminated frames.
//
// Bytes after the last newline are kept across calls, including calls that
// fail with a deadline error, so a connection can keep reading after an
// idle timeout without losing a partially received frame.
type FrameReader struct {
	r     io.Reader
	max   int
	buf   []byte
	chunk []byte
	err   error
}

// NewFrameReader wraps r. max bounds a single frame, excluding the newline.
func NewFrameReader(r io.Reader, max int) *FrameReader {
	return &FrameReader{
		r:     r,
		max:   max,
		chunk: make([]byte, readChunk),
	}
}

// ReadFrame returns the next frame without its trailing newline.
// Read errors are reported only once every buffered complete frame has been returned.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	for {
		if i := bytes.IndexByte(f.buf, '\n'); i >= 0 {
			if i > f.max {
				return nil, ErrFrameTooLarge
			}
			frame := make([]byte, i)
			copy(frame, f.buf[:i])
			n := copy(f.buf, f.buf[i+1:])
			f.buf = f.buf[:n]
			return frame, nil
		}
		if len(f.buf) > f.max {
			return nil, ErrFrameTooLarge
		}
		if f.err != nil {
			err := f.err
			f.err = nil
			return nil, err
		}

		n, err := f.r.Read(f.chunk)
		f.buf = append(f.buf, f.chunk[:n]...)
		f.err = err
	}
}

// Buffered reports how many bytes of an incomplete frame are held.
func (f *FrameReader) Buffered() int {
	return len(f.buf)
}
