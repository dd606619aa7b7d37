package format

import (
	"testing"

	"github.com/phil-mansfield/refmask/lib/eq"
)

func TestIsSequenceFormatToken(t *testing.T) {
	tests := []struct{
		tok string
		valid bool
	} {
		{"", false},
		{"1", true},
		{"a", false},
		{"1..30", true},
		{"a..30", false},
		{"1..a", false},
		{"30..1", false},
		{"1..30..60", false},
		{"0..65535", true},
		{"0..65536", false},
		{"0..2000000000", false},
		{"5..9223372036854775807", false},
	}

	for i := range tests {
		err := isSequenceFormatToken(tests[i].tok)
		if tests[i].valid && err != nil {
			t.Errorf("%d) Expected token '%s' to be valid, but got error '%s'.",
				i, tests[i].tok, err.Error())
		} else if !tests[i].valid && err == nil {
			t.Errorf("%d) Expected token '%s' to be invalid, but got no error.",
				i, tests[i].tok)
		}
	}
}

func TestTokeniseSequenceFormat(t *testing.T) {
	tests := []struct{
		format string
		tok []string
		valid bool
	} {
		{"", nil, false},
		{"   ", nil, false},
		{"0", []string{"0"}, true},
		{"10..20", []string{"10..20"}, true},
		{"0+1", []string{"0", "+", "1"}, true},
		{"0 - 1", []string{"0", "-", "1"}, true},
		{"  0+       1    ", []string{"0", "+", "1"}, true},
		{"-0..3 + 0..5-2", []string{"-", "0..3", "+", "0..5", "-", "2"}, true},
	}

	for i := range tests {
		tok, err := tokeniseSequenceFormat(tests[i].format)
		if tests[i].valid && err != nil {
			t.Errorf("%d) Expected '%s' to be valid, but got error '%s'.",
				i, tests[i].format, err.Error())
		} else if !tests[i].valid && err == nil {
			t.Errorf("%d) Expected '%s' to be invalid, but got no error.",
				i, tests[i].format)
		} else if tests[i].valid && !stringsEq(tok, tests[i].tok) {
			t.Errorf("%d) Expected '%s' to tokenize to %s, got %s.",
				i, tests[i].format, tests[i].tok, tok)
		}
	}
}

func TestExpandSequenceFormat(t *testing.T) {
	tests := []struct{
		format string
		n []int
		valid bool
	} {
		{"", nil, false},
		{"a", nil, false},
		{"1", []int{1}, true},
		{"0..3", []int{0, 1, 2, 3}, true},
		{"+ 1..3", []int{1, 2, 3}, true},
		{"-1", nil, false},
		{"1 + 1", nil, false},
		{"3..5 + 1", []int{1, 3, 4, 5}, true},
		{"0..10 - 2..9", []int{0, 1, 10}, true},
		{"3..5 - 1", nil, false},
		{"3..5 - 4 - 4", nil, false},
		{"3..5 + 6+", nil, false},
		{"1 2", nil, false},
		{"1 * 2", nil, false},
	}

	for i := range tests {
		n, err := ExpandSequenceFormat(tests[i].format)
		if tests[i].valid && err != nil {
			t.Errorf("%d) Expected '%s' could be expanded, got error '%s'",
				i, tests[i].format, err.Error())
		} else if !tests[i].valid && err == nil {
			t.Errorf("%d) Expected '%s' should fail, but got no error.",
				i, tests[i].format)
		} else if tests[i].valid && !eq.Ints(n, tests[i].n) {
			t.Errorf("%d) Expected '%s' to expand to %d, got %d",
				i, tests[i].format, tests[i].n, n)
		}
	}
}

func TestExpandLevels(t *testing.T) {
	tests := []struct{
		format string
		min, max int
		levels []int
		valid bool
	} {
		{"", 0, 3, []int{0, 1, 2, 3}, true},
		{"  ", 2, 2, []int{2}, true},
		{"1..2", 0, 3, []int{1, 2}, true},
		{"0..3 - 1", 0, 3, []int{0, 2, 3}, true},
		{"0..4", 0, 3, nil, false},
		{"0", 1, 3, nil, false},
		{"x", 0, 3, nil, false},
		{"0..2000000000", 0, 3, nil, false},
		{"0..3 + 4..50000000", 0, 3, nil, false},
	}

	for i := range tests {
		levels, err := ExpandLevels(tests[i].format, tests[i].min, tests[i].max)
		if tests[i].valid && err != nil {
			t.Errorf("%d) Got unexpected error '%s'.", i, err.Error())
		} else if !tests[i].valid && err == nil {
			t.Errorf("%d) Expected '%s' with levels %d..%d to fail.",
				i, tests[i].format, tests[i].min, tests[i].max)
		} else if tests[i].valid && !eq.Ints(levels, tests[i].levels) {
			t.Errorf("%d) Expected '%s' to expand to %d, got %d.",
				i, tests[i].format, tests[i].levels, levels)
		}
	}
}

func stringsEq(x, y []string) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}
