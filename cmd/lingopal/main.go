// Package main is the single-binary entrypoint for lingopal, the reading
// companion's engagement engine.
package main

import "github.com/lingopal/lingopal/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
