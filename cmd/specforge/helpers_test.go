package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Password reset flow", "password-reset-flow"},
		{"  Mixed CASE  idea!  ", "mixed-case-idea"},
		{"already-kebab", "already-kebab"},
		{"???", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), "input %q", tt.in)
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "GIVEN no registered users.", firstLine("GIVEN no registered users.\nWHEN more follows.\n"))
	assert.Equal(t, "single", firstLine("single"))
	assert.Equal(t, "", firstLine(""))
}
