package main

import (
	"fmt"
	"os"

	"github.com/FaisalFehad/imap-mail-mcp/cmd/imap-mail-mcp/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
