package pkg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type faultyWriter struct {
	err error
}

func (fw *faultyWriter) Write(_ []byte) (int, error) {
	return 0, fw.err
}

type shortWriter struct{}

func (sw *shortWriter) Write(p []byte) (int, error) {
	return len(p) / 2, nil
}

func TestCombinedWriter_Write(t *testing.T) {
	sb1 := &strings.Builder{}
	sb1.WriteString("already-here|")
	sb2 := &strings.Builder{}

	cw := NewCombinedWriter(sb1, nil, sb2)
	require.NotNil(t, cw)
	assert.Equal(t, 2, cw.Len())

	for _, msg := range []string{"a message|", "another message here"} {
		n, err := cw.Write([]byte(msg))
		require.NoError(t, err)
		assert.Equal(t, len(msg), n)
	}

	assert.Equal(t, "already-here|a message|another message here", sb1.String())
	assert.Equal(t, "a message|another message here", sb2.String())
}

func TestCombinedWriter_Write_WithErrors(t *testing.T) {
	errDiskFull := errors.New("disk full")
	sb := &strings.Builder{}

	cw := NewCombinedWriter(&faultyWriter{err: errDiskFull}, sb, &shortWriter{})

	msg := "a message"
	n, err := cw.Write([]byte(msg))
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Len(t, multierr.Errors(err), 2)

	// still delivered to the string builder
	assert.Equal(t, len(msg), n)
	assert.Equal(t, msg, sb.String())
}

func TestCombinedWriter_Write_AllFailing(t *testing.T) {
	cw := NewCombinedWriter(&faultyWriter{err: errors.New("a")}, &faultyWriter{err: errors.New("b")})

	n, err := cw.Write([]byte("lost"))
	assert.Equal(t, 0, n)
	assert.EqualError(t, err, "a; b")
}
