// Command boardloop runs the cooperative control loop demos on an LED,
// button, accelerometer and display board.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
