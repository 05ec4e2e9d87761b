package scoring

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"timeout", NewTimeoutError("deadline exceeded"), ErrTimeout},
		{"unreachable", NewUnreachableError("connection refused"), ErrUnreachable},
		{"bad response", NewBadResponseError(502, "bad gateway"), ErrBadResponse},
		{"parse", NewParseError("unexpected token", "{"), ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			wrapped := fmt.Errorf("scoring prod-1: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
		})
	}
}

func TestTypedErrorsDoNotCrossMatch(t *testing.T) {
	assert.False(t, errors.Is(NewTimeoutError(), ErrUnreachable))
	assert.False(t, errors.Is(NewBadResponseError(500, ""), ErrParse))
}

func TestBadResponseErrorExcerptsBody(t *testing.T) {
	long := strings.Repeat("x", 2000)
	var badResp *BadResponseError
	assert.ErrorAs(t, NewBadResponseError(500, long), &badResp)
	assert.Len(t, badResp.Body, maxExcerptLen+3)
	assert.True(t, strings.HasSuffix(badResp.Body, "..."))
}

func TestTimeoutErrorDefaultMessage(t *testing.T) {
	assert.Equal(t, "scoring service timed out", NewTimeoutError().Error())
	assert.Equal(t, "custom", NewTimeoutError("custom").Error())
}
