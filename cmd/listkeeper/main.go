package main

import (
	"context"
	"os"

	"github.com/dukerupert/listkeeper/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:]))
}
