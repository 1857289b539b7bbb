// Package main is the entry point for the autoplay CLI.
package main

import "autoplay.dev/pkg/autoplay/cmd"

func main() {
	cmd.Execute()
}
