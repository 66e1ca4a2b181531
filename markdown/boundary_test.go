package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeBoundary(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"unterminated line", "still typing", 0},
		{"paragraph then blank", "done.\n\n", 7},
		{"blank then partial", "done.\n\npartial", 7},
		{"two paragraphs", "one.\n\ntwo.\n\ntail", 12},
		{"open fence blocks boundary", "a.\n\n```\ncode\n\nmore\n", 4},
		{"closed fence then blank", "```\ncode\n```\n\n", 14},
		{"tilde fence", "~~~\nx\n~~~\n\n", 11},
		{"list single blank not safe", "- a\n- b\n\nnext", 0},
		{"list double blank safe", "- a\n- b\n\n\nnext", 10},
		{"leading blanks", "\n\nhello", 2},
		{"blank only", "\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, safeBoundary(tt.input))
		})
	}
}

func TestSafeBoundary_MonotonicUnderAppend(t *testing.T) {
	full := "# T\n\npara.\n\n```go\nx := 1\n```\n\n- a\n- b\n\n\nend.\n\n"
	prev := 0
	for i := 0; i <= len(full); i++ {
		b := safeBoundary(full[:i])
		assert.GreaterOrEqual(t, b, prev, "boundary regressed at %d", i)
		assert.LessOrEqual(t, b, i)
		prev = b
	}
}

func TestIsListMarker(t *testing.T) {
	assert.True(t, isListMarker("- item"))
	assert.True(t, isListMarker("* item"))
	assert.True(t, isListMarker("+ item"))
	assert.True(t, isListMarker("1. item"))
	assert.True(t, isListMarker("12) item"))
	assert.False(t, isListMarker("-no space"))
	assert.False(t, isListMarker("1.no space"))
	assert.False(t, isListMarker("plain text"))
	assert.False(t, isListMarker(""))
}
