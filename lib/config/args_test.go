package config

import (
	"testing"

	"github.com/phil-mansfield/refmask/lib/eq"
)

func TestParseCommandLine(t *testing.T) {
	tests := []struct{
		args []string
		mode, configFile string
		over []Override
		valid bool
	} {
		{[]string{ }, "", "", nil, false},
		{[]string{"help"}, "help", "", nil, true},
		{[]string{"census", "mask.ini"}, "census", "mask.ini", nil, true},
		{[]string{"census", "mask.ini", "--Mask.MaxLevel", "2"}, "census", "mask.ini",
			[]Override{{"Mask", "MaxLevel", "2"}}, true},
		{[]string{"check", "--Report.Format", "csv"}, "check", "",
			[]Override{{"Report", "Format", "csv"}}, true},
		{[]string{"census", "mask.ini", "--Mask.MaxLevel"}, "", "", nil, false},
		{[]string{"census", "mask.ini", "--MaxLevel", "2"}, "", "", nil, false},
		{[]string{"census", "mask.ini", "extra"}, "", "", nil, false},
	}

	for i := range tests {
		mode, configFile, over, err := ParseCommandLine(tests[i].args)
		if tests[i].valid && err != nil {
			t.Errorf("%d) Got unexpected error '%s'.", i, err.Error())
		} else if !tests[i].valid && err == nil {
			t.Errorf("%d) Expected %q to be invalid, but got no error.",
				i, tests[i].args)
		} else if !tests[i].valid {
			continue
		} else if mode != tests[i].mode || configFile != tests[i].configFile {
			t.Errorf("%d) Expected mode '%s' and config file '%s', got '%s' and '%s'.",
				i, tests[i].mode, tests[i].configFile, mode, configFile)
		} else if !overridesEq(over, tests[i].over) {
			t.Errorf("%d) Expected overrides %v, got %v.", i, tests[i].over, over)
		}
	}
}

func TestOverwrite(t *testing.T) {
	c, err := ParseINI(ExampleConfig)
	if err != nil { t.Fatalf("Got unexpected error '%s'.", err.Error()) }

	err = c.Overwrite([]Override{
		{"Mask", "MaxLevel", "2"},
		{"Report", "Format", "CSV"},
		{"Hierarchy", "Dim1D", "8"},
		{"Hierarchy", "Dim1D", "16"},
		{"Hierarchy", "Dim1D", "32"},
	})
	if err != nil { t.Fatalf("Got unexpected error '%s'.", err.Error()) }

	if c.Mask.MaxLevel != 2 || c.Report.Format != "csv" ||
		!eq.Ints(c.Hierarchy.Dim1D, []int{8, 16, 32}) {
		t.Errorf("Overwrite gave %+v.", c)
	}

	if err = c.Overwrite([]Override{{"Mask", "MaxLevel", "1"}}); err == nil {
		t.Errorf("Expected MaxLevel below MaskLevel to be rejected.")
	}
	if err = c.Overwrite([]Override{{"Mask", "Colour", "red"}}); err == nil {
		t.Errorf("Expected an unknown variable to be rejected.")
	}
}

func overridesEq(x, y []Override) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}
