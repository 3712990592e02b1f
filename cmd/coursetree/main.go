// coursetree filters, stores, and polls course content trees.
package main

import (
	"os"

	"github.com/hupe1980/coursetree/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
