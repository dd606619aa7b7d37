/*package error contains the two ways the refmask binary gives up. Library
packages never call these for ordinary failures: they return errors, and the
root refmask.go decides which reporter to use.
*/
package error

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"
)

// External reports a problem the user can fix and exits with status 1. In
// refmask that means a missing or malformed config file, an unknown mode or
// command line flag, mask levels that don't fit the hierarchy, a mask file
// written for a different hierarchy, or a mask whose tiles fail the census
// checks. It has the same signature as fmt.Printf.
func External(format string, a ...interface{}) {
	log.Printf("refmask exited early with the following error:\n" + format, a...)
	os.Exit(1)
}

// Internal reports a broken invariant inside refmask itself, prints a stack
// trace, and exits with status 1. Examples are tile patches which don't
// cover the mask grid or a sequence format token that was accepted by the
// validator but can't be expanded. It has the same signature as fmt.Printf.
func Internal(format string, a ...interface{}) {
	log.Println("refmask exited early with the following internal error:")
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n\n")
	debug.PrintStack()
	os.Exit(1)
}
