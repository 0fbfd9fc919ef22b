package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dshills/eventbus/internal/cli"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "busctl:", err)
		os.Exit(cli.Code(err))
	}
}
