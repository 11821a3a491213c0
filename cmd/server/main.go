package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"gravpong/internal/config"
	"gravpong/internal/lobby"
	"gravpong/internal/netwrk"
	"gravpong/internal/pong"
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

	arena, err := config.Config.ArenaSettings()
	if err != nil {
		slog.Error("invalid arena", slog.Any("error", err))
		os.Exit(1)
	}
	field, _ := pong.ParseField(config.Config.Field)

	l := lobby.CreateLobby(lobby.Settings{
		Arena:       arena,
		Field:       field,
		Wells:       config.Config.GravityWells(),
		RandomWells: config.Config.RandomWells,
		Seed:        config.Config.Seed,
	})

	mux := http.NewServeMux()
	mux.Handle("/play", netwrk.Handler(l.HandleConnection))

	fmt.Println("Starting gravpong lobby on", config.Config.ListenAddr)
	if err := http.ListenAndServe(config.Config.ListenAddr, mux); err != nil {
		slog.Error("lobby stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
