package main

import (
	"fmt"
	"os"

	"github.com/grenlab/grenlin/pkg/codec"
	"github.com/grenlab/grenlin/pkg/engine"
	"github.com/grenlab/grenlin/pkg/mcp"
)

func main() {
	eng := engine.New()

	// An optional positional argument pre-loads a network so the
	// assistant starts from an existing file instead of a blank canvas.
	if len(os.Args) > 1 {
		store, model, err := codec.Load(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "grenlin-mcp: failed to load %s: %v\n", os.Args[1], err)
			os.Exit(1)
		}
		eng = engine.NewWith(store, model)
	}

	srv := mcp.NewServer(eng)
	if err := srv.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "grenlin-mcp: %v\n", err)
		os.Exit(1)
	}
}
