package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBaseURL(t *testing.T) {
	cases := map[string]string{
		"https://relay.example":       "https://relay.example/v1",
		"https://relay.example/":      "https://relay.example/v1",
		"https://relay.example/v1":    "https://relay.example/v1",
		"https://relay.example/v1/":   "https://relay.example/v1",
		"https://relay.example/v1///": "https://relay.example/v1",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeBaseURL(in), "input %q", in)
	}
}
