// Package main is the entry point for the cricroster CLI tool, which folds
// Cricsheet ball-by-ball archives into a ranked roster of player careers.
package main

import "github.com/pable/cricroster/cmd"

func main() {
	cmd.Execute()
}
