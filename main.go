package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/foxdriver/internal/cli"
	"github.com/sethvargo/go-envconfig"
)

const (
	exitOk = iota
	exitError
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitError)
	}

	os.Exit(exitOk)
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, envconfig.OsLookuper(), os.Stdout, os.Stderr, args)
}
