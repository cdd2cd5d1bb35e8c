// Command canonica-validate runs a declarative data-quality validation
// suite against a query engine and reports the outcome.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errExitFailure) {
			fmt.Fprintf(os.Stderr, "canonica-validate: %v\n", err)
		}
		os.Exit(1)
	}
}
