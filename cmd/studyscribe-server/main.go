package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"studyscribe-server-go/internal/bootstrap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if err := bootstrap.Run(context.Background(), *configPath); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "studyscribe-server failed: %v\n", err)
		os.Exit(1)
	}
}
