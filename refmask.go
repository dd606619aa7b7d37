package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/phil-mansfield/refmask/lib/config"
	g_error "github.com/phil-mansfield/refmask/lib/error"
	"github.com/phil-mansfield/refmask/lib/hierarchy"
	"github.com/phil-mansfield/refmask/lib/mask"
	"github.com/phil-mansfield/refmask/lib/report"
)

const helpText = `refmask reads a refinement mask and reports on it.

Usage:
    $ refmask <mode> [<config file>] [--<Section>.<Var> <Value>] ...

Modes:
    help     Print this message.
    example  Print an example config file.
    check    Check the config file (and its mask file, if any) for errors.
    census   Print the number of cells at each refinement level.
    patches  Print the empty patch layout that the mask's tiles map onto.

Any config variable can be overridden on the command line, e.g.
'--Mask.MaxLevel 3'.
`

func main() {
	mode, configFile, over, err := config.ParseCommandLine(os.Args[1:])
	if err != nil { g_error.External("%s", err.Error()) }

	switch mode {
	case "help":
		fmt.Print(helpText)
		return
	case "example":
		fmt.Print(config.ExampleConfig)
		return
	case "check", "census", "patches":
	default:
		g_error.External(
			"You attempted to run refmask in the mode '%s', but the only " +
				"valid modes are 'help', 'example', 'check', 'census', and " +
				"'patches'.", mode,
		)
	}

	if configFile == "" {
		g_error.External("The mode '%s' needs a config file.", mode)
	}
	c, err := config.ReadFile(configFile)
	if err != nil { g_error.External("%s", err.Error()) }
	if err = c.Overwrite(over); err != nil { g_error.External("%s", err.Error()) }

	h, m := Load(c)
	defer h.Release()
	defer m.Release()

	switch mode {
	case "check":
		Check(c, m)
	case "census":
		Census(c, m)
	case "patches":
		Patches(c, m)
	}
}

// Load builds the hierarchy and mask described by the config file.
func Load(c *config.Config) (*hierarchy.Hierarchy, *mask.Mask) {
	h, err := c.NewHierarchy()
	if err != nil { g_error.External("%s", err.Error()) }
	m, err := c.NewMask(h)
	if err != nil { g_error.External("%s", err.Error()) }
	return h, m
}

// Check runs refmask's "check" mode, which confirms that the mask's cell
// counts are consistent with one another.
func Check(c *config.Config, m *mask.Mask) {
	if _, err := report.NewCensus(m, cosmology(c), nil); err != nil {
		g_error.External("%s", err.Error())
	}
	fmt.Println("No errors detected.")
}

// Census runs refmask's "census" mode, which prints the number of cells at
// each of the requested levels.
func Census(c *config.Config, m *mask.Mask) {
	levels, err := c.ReportLevels()
	if err != nil { g_error.External("%s", err.Error()) }
	census, err := report.NewCensus(m, cosmology(c), levels)
	if err != nil { g_error.External("%s", err.Error()) }

	writeOutput(c, func(w io.Writer) error {
		if c.Report.Format == "csv" { return report.WriteCSV(w, census) }
		return report.WriteText(w, census)
	})
}

// Patches runs refmask's "patches" mode, which prints the patches of the
// mask's empty grid structure.
func Patches(c *config.Config, m *mask.Mask) {
	g, err := m.EmptyGridStructure()
	if err != nil { g_error.External("%s", err.Error()) }
	if err = g.CheckCoverage(); err != nil {
		g_error.Internal("Tile patches do not cover the grid: %s", err.Error())
	}
	writeOutput(c, func(w io.Writer) error { return report.WritePatches(w, g) })
}

func cosmology(c *config.Config) report.Cosmology {
	return report.Cosmology{
		BoxSize: c.Report.BoxSize, OmegaM: c.Report.OmegaM, H100: c.Report.H100,
	}
}

// writeOutput calls write on Report.Output, or stdout if it isn't set.
func writeOutput(c *config.Config, write func(io.Writer) error) {
	f := os.Stdout
	if c.Report.Output != "" {
		var err error
		if f, err = os.Create(c.Report.Output); err != nil {
			g_error.External("%s", err.Error())
		}
		defer f.Close()
	}

	w := bufio.NewWriter(f)
	if err := write(w); err != nil { g_error.External("%s", err.Error()) }
	if err := w.Flush(); err != nil { g_error.External("%s", err.Error()) }
}
