// Command climbctl is the operator CLI for the climbing-gym backend: it seeds
// a document store from a YAML file and derives gym ids.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
