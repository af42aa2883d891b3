// Package main is the single-binary entrypoint for HomeSolution.
package main

import "github.com/homesolution/homesolution/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
