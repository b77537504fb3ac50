// Package main provides the autodoc CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/autodoc/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := newRootCmd().Execute()
	if err == nil {
		return
	}

	if !errors.Is(err, errFindings) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	os.Exit(1)
}
