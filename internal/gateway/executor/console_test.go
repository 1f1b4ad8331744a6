package executor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleWriter_RoutesStreams(t *testing.T) {
	var out, errOut bytes.Buffer
	w := NewConsoleWriter(&out, &errOut)

	require.NoError(t, w.Write(StdoutStream, []byte("hello\n")))
	require.NoError(t, w.Write(StderrStream, []byte("warning\n")))

	assert.Equal(t, "hello\n", out.String())
	assert.Equal(t, "warning\n", errOut.String())
}

func TestConsoleWriter_SharedTarget(t *testing.T) {
	var both bytes.Buffer
	w := NewConsoleWriter(&both, &both)

	require.NoError(t, w.Write(StdoutStream, []byte("a")))
	require.NoError(t, w.Write(StderrStream, []byte("b")))

	assert.Equal(t, "ab", both.String())
}
