// Command pocketbook maintains the ledger store: seeding, reset, monthly
// summaries, aggregate rebuilds and snapshot export/import.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(cli.OpenFromEnv).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "pocketbook:", err)
		os.Exit(1)
	}
}
