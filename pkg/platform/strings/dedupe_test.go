package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{name: "trims and drops blanks", input: []string{" kafka:9092 ", "", "  "}, expected: []string{"kafka:9092"}},
		{name: "keeps first occurrence", input: []string{"b:1", "a:1", "b:1"}, expected: []string{"b:1", "a:1"}},
		{name: "preserves case", input: []string{"Foo", "foo"}, expected: []string{"Foo", "foo"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	got := DedupeAndTrimLower([]string{"Application/PDF", " image/png", "application/pdf", "IMAGE/PNG "})
	assert.Equal(t, []string{"application/pdf", "image/png"}, got)
}
