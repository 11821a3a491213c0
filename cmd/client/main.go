package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"gravpong/internal/client"
	"gravpong/internal/config"
)

func main() {
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if err := config.LoadConfig(path); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	config.SetupLogging(config.Config.LogLevel)

	fmt.Println("Welcome to gravpong!")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := client.Game(ctx, config.Config)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("game ended", slog.Any("error", err))
		os.Exit(1)
	}
}
