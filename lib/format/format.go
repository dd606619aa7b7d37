/*package format handles refmask's sequence format, a miniature language for
selecting a set of refinement levels, e.g.:

   Levels = 0..3
   Levels = 0..10 - 4..6
   Levels = 2 + 7

A sequence format is a series of tokens separated by "+" or "-". Each token
is either a number or two numbers separated by "..", which stands for every
number between the two, inclusive. "+" adds a token's numbers to the sequence
and "-" removes them. A leading "+" may be dropped. Adding a number twice or
removing one that isn't there is an error, since it is almost certainly a
typo. Spaces around "+" and "-" are ignored.
*/
package format

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	g_error "github.com/phil-mansfield/refmask/lib/error"
)

const (
	// Any expanded sequences which would have more than BigNumber elements are
	// assumed to be bugs.
	BigNumber = 1<<16
)

// ExpandLevels expands a sequence format string into a sorted list of levels
// and checks that every level lies in [minLevel, maxLevel]. An empty format
// selects every level in that range.
func ExpandLevels(format string, minLevel, maxLevel int) ([]int, error) {
	if strings.TrimSpace(format) == "" {
		levels := []int{ }
		for l := minLevel; l <= maxLevel; l++ { levels = append(levels, l) }
		return levels, nil
	}

	levels, err := ExpandSequenceFormat(format)
	if err != nil { return nil, err }

	for _, l := range levels {
		if l < minLevel || l > maxLevel {
			return nil, fmt.Errorf("The level %d is outside the mask's range of levels, %d..%d.", l, minLevel, maxLevel)
		}
	}
	return levels, nil
}

// ExpandSequenceFormat expands a sequence format string into a sorted sequence
// of integers.
func ExpandSequenceFormat(format string) ([]int, error) {
	tok, err := tokeniseSequenceFormat(format)
	if err != nil { return nil, err }
	adds, subs, err := addsSubsSequenceFormat(tok)
	if err != nil { return nil, err }

	set := map[int]bool{ }
	for i := range adds {
		for _, n := range parseSequenceFormatToken(adds[i]) {
			if set[n] {
				return nil, fmt.Errorf("The number %d is added more than once.", n)
			}
			set[n] = true
		}
		if len(set) > BigNumber {
			return nil, fmt.Errorf("This sequence would have more than %d elements, which is almost certainly a bug.", BigNumber)
		}
	}

	for i := range subs {
		for _, n := range parseSequenceFormatToken(subs[i]) {
			if !set[n] {
				return nil, fmt.Errorf("The number %d is removed more times than it was added.", n)
			}
			delete(set, n)
		}
	}

	out := []int{ }
	for n := range set { out = append(out, n) }
	sort.Ints(out)

	return out, nil
}

// tokeniseSequenceFormat splits a sequence format string into numeric tokens
// and "+"/"-" operators.
func tokeniseSequenceFormat(format string) ([]string, error) {
	clean := strings.ReplaceAll(format, "+", " + ")
	clean = strings.ReplaceAll(clean, "-", " - ")

	tok := strings.Fields(clean)
	if len(tok) == 0 {
		return nil, fmt.Errorf("The format string is empty.")
	}
	return tok, nil
}

// addsSubsSequenceFormat sorts the numeric tokens into the ones which are
// added and the ones which are removed.
func addsSubsSequenceFormat(tok []string) (adds, subs []string, err error) {
	if len(tok) == 0 {
		return nil, nil, fmt.Errorf("Format string is empty")
	}

	adds, subs = []string{ }, []string{ }
	start := 0
	if tok[0] != "+" && tok[0] != "-" {
		if err := isSequenceFormatToken(tok[0]); err != nil {
			return nil, nil, fmt.Errorf("Element number 1, '%s', cannot be parsed because %s", tok[0], err.Error())
		}
		adds = append(adds, tok[0])
		start = 1
	}

	for i := start; i < len(tok); i += 2 {
		if tok[i] != "-" && tok[i] != "+" {
			return nil, nil, fmt.Errorf("Element number %d, '%s', should be a '-' or '+', but isn't.", i+1, tok[i])
		} else if i + 1 >= len(tok) {
			return nil, nil, fmt.Errorf("The format string ends in a trailing '%s'", tok[i])
		} else if err := isSequenceFormatToken(tok[i+1]); err != nil {
			return nil, nil, fmt.Errorf("Element number %d, '%s', cannot be parsed because %s", i+2, tok[i+1], err.Error())
		}

		if tok[i] == "+" {
			adds = append(adds, tok[i+1])
		} else {
			subs = append(subs, tok[i+1])
		}
	}

	return adds, subs, nil
}

// isSequenceFormatToken returns a nil error if tok is a valid numeric token
// and an error describing the problem otherwise. The error message is meant
// to follow the word "because".
func isSequenceFormatToken(tok string) error {
	if len(tok) == 0 {
		return fmt.Errorf("it is empty.")
	}

	bounds := strings.Split(tok, "..")
	if len(bounds) > 2 {
		return fmt.Errorf("it has more than one '..'.")
	}

	n := make([]int, len(bounds))
	for i := range bounds {
		var err error
		if n[i], err = strconv.Atoi(bounds[i]); err != nil {
			return fmt.Errorf("'%s' is not an integer.", bounds[i])
		}
	}

	if len(n) == 2 && n[1] < n[0] {
		return fmt.Errorf("lower bound %d is larger than upper bound %d.", n[0], n[1])
	} else if len(n) == 2 && n[1] - n[0] >= BigNumber {
		return fmt.Errorf("it has more than %d elements, which is almost certainly a bug.", BigNumber)
	}
	return nil
}

// parseSequenceFormatToken expands a single token which has already passed
// isSequenceFormatToken.
func parseSequenceFormatToken(tok string) []int {
	bounds := strings.Split(tok, "..")

	switch len(bounds) {
	case 1:
		n, _ := strconv.Atoi(tok)
		return []int{ n }
	case 2:
		start, _ := strconv.Atoi(bounds[0])
		end, _ := strconv.Atoi(bounds[1])
		out := []int{ }
		for n := start; n <= end; n++ { out = append(out, n) }
		return out
	}

	g_error.Internal(
		"Invalid sequence format token, '%s', passed isSequenceFormatToken()",
		tok,
	)
	return nil
}
