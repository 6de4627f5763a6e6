// Command greetsend sends a personalized greeting image with a random
// caption to every contact in a CSV file.
package main

import (
	// Sender backends register themselves with pkg/sender
	_ "greetsend/pkg/sender/browser"
	_ "greetsend/pkg/sender/cloud"
	_ "greetsend/pkg/sender/dryrun"
)

func main() {
	Execute()
}
