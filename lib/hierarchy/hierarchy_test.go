package hierarchy

import (
	"errors"
	"testing"

	"github.com/phil-mansfield/refmask/lib/eq"
)

func TestNew(t *testing.T) {
	tests := []struct{
		dims []uint32
		valid bool
	} {
		{[]uint32{16}, true},
		{[]uint32{16, 32, 64, 128}, true},
		{[]uint32{16, 16, 48}, true},
		{[]uint32{}, false},
		{[]uint32{0, 16}, false},
		{[]uint32{32, 16}, false},
		{[]uint32{16, 24}, false},
	}

	for i := range tests {
		h, err := New(tests[i].dims)
		if tests[i].valid && err != nil {
			t.Errorf("%d) Expected %d to be valid, got error '%s'.",
				i, tests[i].dims, err.Error())
		} else if !tests[i].valid && err == nil {
			t.Errorf("%d) Expected %d to be invalid, but got no error.",
				i, tests[i].dims)
		} else if err == nil && !eq.Uint32s(h.Dims(), tests[i].dims) {
			t.Errorf("%d) Expected dims %d, got %d.", i, tests[i].dims, h.Dims())
		}
	}

	if _, err := New([]uint32{16, 24}); !errors.Is(err, ErrInexact) {
		t.Errorf("Expected ErrInexact for non-multiple dimensions, got %v.", err)
	}
}

func TestNewGeometric(t *testing.T) {
	h, err := NewGeometric(16, 2, 4)
	if err != nil { t.Fatalf("Got unexpected error '%s'.", err.Error()) }

	if dims := h.Dims(); !eq.Uint32s(dims, []uint32{16, 32, 64, 128}) {
		t.Errorf("Expected dims [16 32 64 128], got %d.", dims)
	} else if h.Levels() != 4 {
		t.Errorf("Expected 4 levels, got %d.", h.Levels())
	}

	if _, err := NewGeometric(16, 2, 0); err == nil {
		t.Errorf("Expected zero levels to be rejected.")
	} else if _, err := NewGeometric(16, 0, 3); err == nil {
		t.Errorf("Expected a zero factor to be rejected.")
	} else if _, err := NewGeometric(1<<20, 1<<10, 3); err == nil {
		t.Errorf("Expected overflowing dimensions to be rejected.")
	}
}

func TestFactorBetween(t *testing.T) {
	h, _ := New([]uint32{16, 32, 64, 192})
	tests := []struct{
		a, b int
		factor uint64
		valid bool
	} {
		{0, 0, 1, true},
		{0, 1, 2, true},
		{1, 0, 2, true},
		{0, 3, 12, true},
		{3, 2, 3, true},
		{-1, 2, 0, false},
		{0, 4, 0, false},
	}

	for i := range tests {
		f, err := h.FactorBetween(tests[i].a, tests[i].b)
		if !tests[i].valid {
			if !errors.Is(err, ErrLevel) {
				t.Errorf("%d) Expected ErrLevel, got %v.", i, err)
			}
		} else if err != nil {
			t.Errorf("%d) Got unexpected error '%s'.", i, err.Error())
		} else if f != tests[i].factor {
			t.Errorf("%d) Expected factor %d between %d and %d, got %d.",
				i, tests[i].factor, tests[i].a, tests[i].b, f)
		}
	}

	if dim, err := h.Dim1D(2); err != nil || dim != 64 {
		t.Errorf("Expected Dim1D(2) = 64, got %d, %v.", dim, err)
	}
}

func TestRefs(t *testing.T) {
	h, _ := NewGeometric(8, 2, 2)
	if h.Refs() != 1 {
		t.Fatalf("Expected a new hierarchy to have 1 reference, got %d.", h.Refs())
	}

	h.Retain()
	if h.Release() {
		t.Errorf("Expected the first release not to free the hierarchy.")
	}
	if !h.Release() {
		t.Errorf("Expected the last release to free the hierarchy.")
	}

	defer func() {
		if recover() == nil {
			t.Errorf("Expected over-releasing to panic.")
		}
	}()
	h.Release()
}
