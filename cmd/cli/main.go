package main

import (
	"github.com/coderunners/reprod/pkg/cli"
)

// Set at build time via ldflags.
var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

func main() {
	cli.Execute(version, commit, date)
}
