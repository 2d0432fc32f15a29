// Command deckforge runs the deck pipeline from the terminal and converts decks.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorColor.Sprint("✗ "+err.Error()))
		os.Exit(1)
	}
}
