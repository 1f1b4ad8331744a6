package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunOutcome(t *testing.T) {
	tests := []struct {
		name      string
		stop      stopReason
		runErr    error
		callerErr error
		exitCode  int
		wantErr   error
		wantNil   bool
	}{
		{
			name:    "clean exit",
			stop:    stopNone,
			wantNil: true,
		},
		{
			name:     "non-zero exit",
			stop:     stopNone,
			runErr:   &exec.ExitError{},
			exitCode: 2,
			wantNil:  true,
		},
		{
			name:    "killed at the deadline",
			stop:    stopTimeout,
			runErr:  &exec.ExitError{},
			wantErr: ErrTimeout,
		},
		{
			name:      "killed for caller cancellation",
			stop:      stopCancelled,
			runErr:    &exec.ExitError{},
			callerErr: context.Canceled,
			wantErr:   context.Canceled,
		},
		{
			name:    "context ended before start",
			stop:    stopNone,
			runErr:  context.DeadlineExceeded,
			wantErr: ErrTimeout,
		},
		{
			name:    "shell missing",
			stop:    stopNone,
			runErr:  fs.ErrNotExist,
			wantErr: ErrExecutionFault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exitCode := tt.exitCode
			if tt.stop != stopNone {
				exitCode = ExitCodeUnknown
			}
			err := runOutcome(tt.stop, tt.runErr, tt.callerErr, time.Second, exitCode)
			if tt.wantNil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRunOutcome_CancelledIsNotTimeout(t *testing.T) {
	err := runOutcome(stopCancelled, &exec.ExitError{}, context.Canceled, time.Second, ExitCodeUnknown)

	assert.ErrorIs(t, err, ErrExecutionFault)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestOutputWrapper_Limit(t *testing.T) {
	tests := []struct {
		name   string
		limit  int64
		writes []string
		want   string
	}{
		{
			name:   "unlimited",
			writes: []string{"abc", "def"},
			want:   "abcdef",
		},
		{
			name:   "exactly at the limit",
			limit:  6,
			writes: []string{"abc", "def"},
			want:   "abcdef",
		},
		{
			name:   "write crosses the limit",
			limit:  4,
			writes: []string{"abc", "def"},
			want:   "abcd" + fmt.Sprintf(TruncationMarker, 4),
		},
		{
			name:   "writes after the limit",
			limit:  3,
			writes: []string{"abc", "d", "e"},
			want:   "abc" + fmt.Sprintf(TruncationMarker, 3),
		},
		{
			name:   "empty write at the limit",
			limit:  3,
			writes: []string{"abc", ""},
			want:   "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &outputWrapper{stream: StdoutStream, limit: tt.limit}
			for _, s := range tt.writes {
				n, err := w.Write([]byte(s))
				assert.NoError(t, err)
				assert.Equal(t, len(s), n)
			}
			assert.Equal(t, tt.want, w.String())
		})
	}
}

func TestRunOutcome_WrapsCause(t *testing.T) {
	cause := errors.New("exec format error")
	err := runOutcome(stopNone, cause, nil, time.Second, ExitCodeUnknown)

	assert.ErrorIs(t, err, ErrExecutionFault)
	assert.ErrorIs(t, err, cause)
}
