// tumerge analyses every translation unit in a compilation database and
// emits the renames, implements edges, and symbol-table positions needed to
// merge a multi-TU C/C++ project into one.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
