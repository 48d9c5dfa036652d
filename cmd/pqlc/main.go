// Command pqlc is an example driver over pkg/compiler: parse, resolve,
// lower, and format a PQL project from the command line. It exercises
// the compiler library the way the teacher's cmd/leapsql exercises
// pkg/core — the production SQL-generation backend this IR feeds is an
// out-of-scope external collaborator, so this binary stops at RQ.
package main

import (
	"os"

	"github.com/leapstack-labs/pqlc/cmd/pqlc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
