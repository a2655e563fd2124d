// Package main is the entry point for the neuroweave CLI.
package main

import "neuroweave/orchestrator/cmd"

func main() {
	cmd.Execute()
}
