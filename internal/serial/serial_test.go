package serial

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterSinkTerminatesLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf)

	require.NoError(t, s.WriteLine("X:512 Y:512 Z:512 Motion:NO"))
	require.NoError(t, s.WriteLine("Orientation: LEVEL"))

	assert.Equal(t, "X:512 Y:512 Z:512 Motion:NO\r\nOrientation: LEVEL\r\n", buf.String())
	assert.NoError(t, s.Close())
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tty")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteLine("hello"))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\r\n", string(data))
}

func TestOpenStdout(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	assert.Nil(t, s.c, "stdout is never closed")
}

func TestFakeSink(t *testing.T) {
	f := NewFakeSink()
	require.NoError(t, f.WriteLine("a"))
	assert.Equal(t, []string{"a"}, f.Lines)

	f.Error = errors.New("uart overrun")
	assert.Error(t, f.WriteLine("b"))
	assert.Len(t, f.Lines, 1)
}
