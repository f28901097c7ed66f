// The main package for the floorplan-crawler executable.
package main

import (
	"github.com/JakeFAU/floorplan-crawler/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
