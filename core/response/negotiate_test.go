package response_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/chainmux/core/response"
)

func TestNegotiate(t *testing.T) {
	t.Parallel()

	produces := []string{"text/plain", "application/json"}

	tests := []struct {
		name     string
		accept   string
		produces []string
		want     string
	}{
		{"exact match", "application/json", produces, "application/json"},
		{"wildcard picks first declared", "*/*", produces, "text/plain"},
		{"missing accept picks first declared", "", produces, "text/plain"},
		{"type wildcard", "application/*", produces, "application/json"},
		{"quality ordering", "text/plain;q=0.2, application/json;q=0.9", produces, "application/json"},
		{"header order for equal quality", "application/json, text/plain", produces, "application/json"},
		{"q zero excluded", "application/json;q=0, */*;q=0.1", produces, "text/plain"},
		{"no match falls back to first", "image/png", produces, "text/plain"},
		{"nothing declared defaults to text", "application/json", nil, "text/plain"},
		{"params on produced type", "application/json", []string{"application/json; charset=utf-8"}, "application/json; charset=utf-8"},
		{"case insensitive", "Application/JSON", produces, "application/json"},
		{"bare star", "*", []string{"application/xml"}, "application/xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, response.Negotiate(tt.accept, tt.produces))
		})
	}
}

func TestParseAccept(t *testing.T) {
	t.Parallel()

	ranges := response.ParseAccept("text/html, application/xml;q=0.9, */*;q=0.8, bogus;;")
	assert.Equal(t, []response.MediaRange{
		{Type: "text/html", Quality: 1},
		{Type: "application/xml", Quality: 0.9},
		{Type: "*/*", Quality: 0.8},
	}, ranges)
}
