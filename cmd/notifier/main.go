package main

import (
	"context"
	"fmt"
	"os"

	"github.com/titanhq/notifier/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "notifier:", err)
		os.Exit(1)
	}
}
