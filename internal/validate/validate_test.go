// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/litmap/pkg/types"
)

// cleanText returns a rule-conforming description of valid length.
func cleanText() string {
	return strings.Repeat("study of antibiotic resistance ", 3)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Issue
	}{
		{
			name: "clean description passes",
			text: cleanText(),
			want: nil,
		},
		{
			name: "short input",
			text: strings.Repeat("x", 30),
			want: []Issue{IssueLength},
		},
		{
			name: "long input",
			text: strings.Repeat("x", 301),
			want: []Issue{IssueLength},
		},
		{
			name: "boundary lengths accepted",
			text: strings.Repeat("x", 50),
			want: nil,
		},
		{
			name: "two newlines allowed",
			text: cleanText() + "\na\nb",
			want: nil,
		},
		{
			name: "three newlines rejected",
			text: cleanText() + "\na\nb\nc",
			want: []Issue{IssueTooManyLines},
		},
		{
			name: "html tag",
			text: cleanText() + " <b>bold</b>",
			want: []Issue{IssueHTML},
		},
		{
			name: "markdown link and bare url",
			text: cleanText() + " [see here](http://example.com)",
			want: []Issue{IssueLink, IssueURL},
		},
		{
			name: "www token",
			text: cleanText() + " www.example.com",
			want: []Issue{IssueURL},
		},
		{
			name: "email address",
			text: cleanText() + " contact me at a.b@example.org",
			want: []Issue{IssueEmail},
		},
		{
			name: "all rules reported together",
			text: "<i>x</i> [y](z) http://a www.b c@d.com\n\n\n",
			want: []Issue{IssueLength, IssueTooManyLines, IssueHTML, IssueLink, IssueURL, IssueEmail},
		},
	}

	cfg := types.ValidationConfig{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.text, cfg))
		})
	}
}

// TestValidatePure verifies repeated calls return identical results.
func TestValidatePure(t *testing.T) {
	text := cleanText() + " [a](b) www.c.org"
	cfg := types.ValidationConfig{}

	first := Validate(text, cfg)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Validate(text, cfg))
	}
}

func TestValidateCustomLimits(t *testing.T) {
	cfg := types.ValidationConfig{MinLength: 5, MaxLength: 10, MaxNewlines: 1}

	assert.Nil(t, Validate("abcdefg", cfg))
	assert.Equal(t, []Issue{IssueLength}, Validate("abc", cfg))
	assert.Equal(t, []Issue{IssueTooManyLines}, Validate("ab\ncd\nef", cfg))
}

func TestStrings(t *testing.T) {
	got := Strings([]Issue{IssueLength, IssueURL})
	assert.Equal(t, []string{"length", "url"}, got)
}
