package protocol

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader hands out scripted reads, each optionally paired with an error.
type chunkReader struct {
	steps []step
}

type step struct {
	data string
	err  error
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.steps) == 0 {
		return 0, io.EOF
	}
	s := c.steps[0]
	c.steps = c.steps[1:]
	n := copy(p, s.data)
	return n, s.err
}

func TestFrameReaderSplitsFrames(t *testing.T) {
	fr := NewFrameReader(strings.NewReader("{\"a\":1}\n\n{\"b\":2}\npartial"), 1024)

	f, err := fr.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(f))

	f, err = fr.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "", string(f))

	f, err = fr.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(f))

	_, err = fr.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, len("partial"), fr.Buffered())
}

func TestFrameReaderKeepsPartialAcrossTimeout(t *testing.T) {
	r := &chunkReader{steps: []step{
		{data: `{"action":`},
		{err: os.ErrDeadlineExceeded},
		{data: "\"ping\"}\n"},
	}}
	fr := NewFrameReader(r, 1024)

	_, err := fr.ReadFrame()
	require.True(t, errors.Is(err, os.ErrDeadlineExceeded))
	assert.Equal(t, len(`{"action":`), fr.Buffered())

	f, err := fr.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, `{"action":"ping"}`, string(f))
}

func TestFrameReaderDataWithError(t *testing.T) {
	r := &chunkReader{steps: []step{{data: "one\ntwo\n", err: io.EOF}}}
	fr := NewFrameReader(r, 1024)

	f, err := fr.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "one", string(f))
	f, err = fr.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "two", string(f))
	_, err = fr.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrameReaderTooLarge(t *testing.T) {
	fr := NewFrameReader(strings.NewReader(strings.Repeat("x", 64)+"\n"), 16)
	_, err := fr.ReadFrame()
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	fr = NewFrameReader(strings.NewReader(strings.Repeat("y", 10)+"\n"), 10)
	f, err := fr.ReadFrame()
	require.NoError(t, err)
	assert.Len(t, f, 10)
}
