// Package main provides the pond CLI.
package main

import "github.com/mesh-intelligence/datapond/internal/cli"

func main() {
	cli.Execute()
}
