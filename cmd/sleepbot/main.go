// Command sleepbot runs the sleep tracker backend.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tbourn/go-sleep-tracker/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "sleepbot:", err)
		os.Exit(1)
	}
}
