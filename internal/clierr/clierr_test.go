package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeOf(t *testing.T) {
	cause := errors.New("open input: permission denied")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", cause, 1},
		{"gate", New(CodeGate, "checks failed"), 255},
		{"wrapped twice", fmt.Errorf("aggregate: %w", Wrap(CodeFatal, "list jobs", cause)), 2},
		{"non-positive normalized", New(0, "x"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeOf(tt.err))
		})
	}
}

func TestWrap_Unwraps(t *testing.T) {
	cause := errors.New("boom")
	err := Wrapf(CodeFatal, cause, "read %s", "root")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "read root: boom", err.Error())
	assert.Equal(t, "msg", Wrap(CodeFatal, "msg", nil).Error())
}
