// Command sitegen generates admin sites from model declarations.
package main

import (
	"os"

	"github.com/syssam/sitegen/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
