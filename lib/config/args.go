package config

import (
	"fmt"
	"strings"

	"gopkg.in/gcfg.v1"
)

// Override is a config variable set on the command line.
type Override struct {
	Section, Var, Value string
}

// ParseCommandLine parses the command line arguments (without the program
// name) and returns the mode refmask is being run in, the name of the config
// file, and any variables which were set. Expects that the arguments are
// presented in the order:
// $ refmask <mode> [<config file>] [--<Section>.<Var> <Value>] ...
func ParseCommandLine(args []string) (mode, configFile string, over []Override, err error) {
	if len(args) == 0 {
		return "", "", nil, fmt.Errorf("No mode was given. Run 'refmask help' to see the valid modes.")
	}
	mode, args = args[0], args[1:]

	if len(args) > 0 && !strings.HasPrefix(args[0], "--") {
		configFile, args = args[0], args[1:]
	}

	for i := 0; i < len(args); i += 2 {
		name := strings.TrimPrefix(args[i], "--")
		if name == args[i] {
			return "", "", nil, fmt.Errorf("Expected a '--<Section>.<Var>' flag, but got '%s'.", args[i])
		} else if i + 1 >= len(args) {
			return "", "", nil, fmt.Errorf("The flag '%s' was not given a value.", args[i])
		}

		tok := strings.Split(name, ".")
		if len(tok) != 2 || tok[0] == "" || tok[1] == "" {
			return "", "", nil, fmt.Errorf("The flag '%s' should have the form '--<Section>.<Var>', e.g. '--Mask.MaxLevel'.", args[i])
		}
		over = append(over, Override{ tok[0], tok[1], args[i+1] })
	}

	return mode, configFile, over, nil
}

// Overwrite sets the variables named in over and re-validates the config.
// Variables are named the same way they are in ini files, regardless of which
// format the config file was written in.
func (c *Config) Overwrite(over []Override) error {
	if len(over) == 0 { return nil }

	sb := &strings.Builder{ }
	reset := map[string]bool{ }
	for _, o := range over {
		fmt.Fprintf(sb, "[%s]\n", o.Section)
		// A value-less line empties a multi-valued variable, so flags replace
		// the config file's list instead of appending to it.
		key := strings.ToLower(o.Section + "." + o.Var)
		if key == "hierarchy.dim1d" && !reset[key] {
			fmt.Fprintf(sb, "%s\n", o.Var)
			reset[key] = true
		}
		fmt.Fprintf(sb, "%s = %s\n", o.Var, o.Value)
	}

	if err := gcfg.ReadStringInto(c, sb.String()); err != nil {
		return fmt.Errorf("Could not apply command line flags: %s", err.Error())
	}
	return c.Validate()
}
