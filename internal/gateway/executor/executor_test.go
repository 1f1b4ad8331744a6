//go:build unix

package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv() map[string]string {
	return map[string]string{"PATH": os.Getenv("PATH")}
}

func TestDefaultExecutor_Execute(t *testing.T) {
	tests := []struct {
		name         string
		command      string
		env          map[string]string
		wantExitCode int
		wantStdout   string
		wantStderr   string
	}{
		{
			name:         "echo marker",
			command:      "echo marker-123",
			wantExitCode: 0,
			wantStdout:   "marker-123\n",
		},
		{
			name:         "non-zero exit",
			command:      "echo boom >&2; exit 3",
			wantExitCode: 3,
			wantStderr:   "boom\n",
		},
		{
			name:         "pipeline",
			command:      "printf 'a\\nb\\n' | wc -l | tr -d ' '",
			wantExitCode: 0,
			wantStdout:   "2\n",
		},
		{
			name:         "environment passed through",
			command:      `echo "$LUNA_TEST_VALUE"`,
			env:          map[string]string{"LUNA_TEST_VALUE": "overlaid"},
			wantExitCode: 0,
			wantStdout:   "overlaid\n",
		},
	}

	exec := NewDefaultExecutor("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testEnv()
			for k, v := range tt.env {
				env[k] = v
			}

			result, err := exec.Execute(context.Background(), tt.command, env, 10*time.Second)

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantExitCode, result.ExitCode)
			assert.Equal(t, tt.wantStdout, result.Stdout)
			assert.Equal(t, tt.wantStderr, result.Stderr)
		})
	}
}

func TestDefaultExecutor_OnlyGivenEnvironment(t *testing.T) {
	t.Setenv("LUNA_HOST_ONLY", "leaked")

	result, err := NewDefaultExecutor("").Execute(context.Background(),
		`echo "[$LUNA_HOST_ONLY]"`, testEnv(), 10*time.Second)

	require.NoError(t, err)
	assert.Equal(t, "[]\n", result.Stdout)
}

func TestDefaultExecutor_Timeout(t *testing.T) {
	start := time.Now()
	result, err := NewDefaultExecutor("").Execute(context.Background(), "sleep 30", testEnv(), time.Second)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "command timed out after 1 second")
	require.NotNil(t, result)
	assert.Equal(t, ExitCodeUnknown, result.ExitCode)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestDefaultExecutor_TimeoutKillsDescendants(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "survivor")

	// The background child would create the marker if it outlived the group kill.
	_, err := NewDefaultExecutor("").Execute(context.Background(),
		"(sleep 2; touch "+marker+") & sleep 30", testEnv(), 500*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	time.Sleep(3 * time.Second)
	assert.NoFileExists(t, marker)
}

func TestDefaultExecutor_Errors(t *testing.T) {
	exec := NewDefaultExecutor("")

	_, err := exec.Execute(context.Background(), "   ", testEnv(), time.Second)
	assert.ErrorIs(t, err, ErrEmptyCommand)

	_, err = exec.Execute(context.Background(), "echo hi", testEnv(), 0)
	assert.ErrorIs(t, err, ErrExecutionFault)

	missing := NewDefaultExecutor(filepath.Join(t.TempDir(), "no-such-shell"))
	_, err = missing.Execute(context.Background(), "echo hi", testEnv(), time.Second)
	assert.ErrorIs(t, err, ErrExecutionFault)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestDefaultExecutor_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	_, err := NewDefaultExecutor("").Execute(ctx, "sleep 30", testEnv(), 30*time.Second)

	assert.ErrorIs(t, err, ErrExecutionFault)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

type recordingWriter struct {
	mu     sync.Mutex
	chunks map[string]string
}

func (w *recordingWriter) Write(stream string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.chunks == nil {
		w.chunks = make(map[string]string)
	}
	w.chunks[stream] += string(data)
	return nil
}

func TestDefaultExecutor_LiveOutput(t *testing.T) {
	out := &recordingWriter{}
	exec := &DefaultExecutor{Out: out}

	result, err := exec.Execute(context.Background(), "echo out; echo err >&2", testEnv(), 10*time.Second)

	require.NoError(t, err)
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "out\n", out.chunks[StdoutStream])
	assert.Equal(t, "err\n", out.chunks[StderrStream])
}

func TestDefaultExecutor_OutputLimit(t *testing.T) {
	out := &recordingWriter{}
	exec := NewDefaultExecutor("")
	exec.Out = out
	exec.OutputLimit = 10

	result, err := exec.Execute(context.Background(), "yes | head -c 1000; echo err >&2", testEnv(), 10*time.Second)

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "y\ny\ny\ny\ny\n"+fmt.Sprintf(TruncationMarker, 10), result.Stdout)
	assert.Equal(t, "err\n", result.Stderr, "streams are capped independently")
	assert.Len(t, out.chunks[StdoutStream], 1000, "live output is not capped")
}

func TestDefaultExecutor_DefaultOutputLimit(t *testing.T) {
	assert.Equal(t, DefaultOutputSizeLimit, NewDefaultExecutor("").OutputLimit)

	unlimited := &DefaultExecutor{}
	result, err := unlimited.Execute(context.Background(), "yes | head -c 100000", testEnv(), 10*time.Second)
	require.NoError(t, err)
	assert.Len(t, result.Stdout, 100000)
}

func TestFormatTimeout(t *testing.T) {
	assert.Equal(t, "1 second", FormatTimeout(time.Second))
	assert.Equal(t, "300 seconds", FormatTimeout(300*time.Second))
	assert.Equal(t, "1.5s", FormatTimeout(1500*time.Millisecond))
}

func TestToolInstalled(t *testing.T) {
	assert.True(t, ToolInstalled("sh"))
	assert.False(t, ToolInstalled("luna-definitely-not-a-tool"))
	assert.False(t, ToolInstalled(""))
}
