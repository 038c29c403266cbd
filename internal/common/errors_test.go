package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "validation",
			err:  ValidationError("start_date", "invalid date format: %s", "2023-01-01"),
			want: "invalid date format: 2023-01-01 (field=start_date)",
		},
		{
			name: "not found with symbol",
			err:  &Error{Kind: KindNotFound, Op: "find fundamentals", Symbol: "999999", Msg: "no fundamentals data found for symbol 999999"},
			want: "find fundamentals: no fundamentals data found for symbol 999999 (symbol=999999)",
		},
		{
			name: "wrapped",
			err:  UpstreamError("fetch history", "000001", errors.New("timeout")),
			want: "fetch history: upstream fetch failed (symbol=000001): timeout",
		},
		{
			name: "kind only",
			err:  &Error{Kind: KindRendering},
			want: "rendering",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf_UnwrapsChain(t *testing.T) {
	inner := ParseError("业绩报表_20211231.csv", errors.New("line 3: expected 10 fields, saw 12"))
	wrapped := fmt.Errorf("screen: %w", inner)

	assert.Equal(t, KindParse, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindParse))
	assert.False(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(nil, KindUnknown))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Contains(t, inner.Error(), "file=业绩报表_20211231.csv")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("bad png")
	err := RenderingError("render histogram", cause)
	assert.ErrorIs(t, err, cause)
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "upstream_fetch", KindUpstreamFetch.String())
	assert.Equal(t, "parse", KindParse.String())
	assert.Equal(t, "rendering", KindRendering.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
