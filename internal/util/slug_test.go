package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTagSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"React", "react"},
		{"Next.js", "next-js"},
		{"Tailwind CSS", "tailwind-css"},
		{"server_components", "server-components"},
		{"Sci-Fi/Fantasy", "sci-fi-fantasy"},
		{"Café", "cafe"},
		{"  --API--  ", "api"},
		{"🐉 Dragons!", "dragons"},
		{"🐉", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTagSlug(tt.input))
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"React", "next.js", "react", "  ", "Next JS", "API"})
	assert.Equal(t, []string{"react", "next-js", "api"}, got)

	assert.Empty(t, NormalizeTags(nil))
}
