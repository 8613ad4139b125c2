// Command chatcli is a thin interactive console over the engine,
// wired with the mock LLM provider and in-memory repositories for
// manual testing. It is the one executable the core ships.
package main

import (
	"context"
	"os"

	"github.com/loomtale/engine/internal/cli"
)

func main() {
	if err := cli.RootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
