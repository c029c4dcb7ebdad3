// Command rgi talks to chat-completion APIs from the terminal.
package main

import (
	"fmt"
	"os"
)

func main() {
	a := newApp()
	if err := a.root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rgi:", a.redact(err.Error()))
		os.Exit(1)
	}
}
