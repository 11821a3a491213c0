package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gravpong/internal/pong"
)

var Config = Default()

type Well struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Radius uint32  `json:"radius"`
	Force  float32 `json:"force"`
}

type ArenaConfig struct {
	Width        float32 `json:"width"`
	Height       float32 `json:"height"`
	BallRadius   float32 `json:"ballRadius"`
	PaddleRadius float32 `json:"paddleRadius"`
	WinScore     uint8   `json:"winScore"`
	Restitution  float32 `json:"restitution"`
	SpeedLimit   float32 `json:"speedLimit"`
}

type Configuration struct {
	LogLevel int `json:"logLevel"`

	// Server side.
	ListenAddr  string `json:"listenAddr"`
	Field       string `json:"field"`
	Wells       []Well `json:"wells"`
	RandomWells int    `json:"randomWells"`
	Seed        uint64 `json:"seed"`

	// Peer side.
	ServerURL  string `json:"serverUrl"`
	CreateWith string `json:"createWith"`
	TickRate   int    `json:"tickRate"`
	ReplayPath string `json:"replayPath"`

	Arena ArenaConfig `json:"arena"`
}

func Default() Configuration {
	a := pong.DefaultArena()
	return Configuration{
		ListenAddr: "127.0.0.1:42069",
		ServerURL:  "ws://127.0.0.1:42069/play",
		Field:      string(pong.FieldNormal),
		TickRate:   60,
		Arena: ArenaConfig{
			Width:        a.Width,
			Height:       a.Height,
			BallRadius:   a.BallRadius,
			PaddleRadius: a.PaddleRadius,
			WinScore:     a.WinScore,
			Restitution:  a.Restitution,
			SpeedLimit:   a.SpeedLimit,
		},
	}
}

// LoadConfig reads path, or config.json when path is empty, over the
// defaults. A missing default file is not an error.
func LoadConfig(path string) error {
	c, err := Load(path)
	if err != nil {
		return err
	}
	Config = c
	return nil
}

func Load(path string) (Configuration, error) {
	c := Default()

	name := path
	if name == "" {
		name = "config.json"
	}
	cf, err := os.ReadFile(name)
	switch {
	case errors.Is(err, fs.ErrNotExist) && path == "":
		slog.Info("no config.json found, using default config")
		return c, nil
	case err != nil:
		return c, fmt.Errorf("reading config %s: %w", name, err)
	}

	if err := json.Unmarshal(cf, &c); err != nil {
		return c, fmt.Errorf("parsing config %s: %w", name, err)
	}
	if _, err := c.ArenaSettings(); err != nil {
		return c, err
	}
	if _, err := pong.ParseField(c.Field); err != nil {
		return c, err
	}
	return c, nil
}

// ArenaSettings builds the validated arena. The field variant is left at
// normal; it is decided per match.
func (c Configuration) ArenaSettings() (pong.Arena, error) {
	a := pong.DefaultArena()
	a.Width = c.Arena.Width
	a.Height = c.Arena.Height
	a.BallRadius = c.Arena.BallRadius
	a.PaddleRadius = c.Arena.PaddleRadius
	a.GoalRadius = c.Arena.PaddleRadius + 8
	a.WinScore = c.Arena.WinScore
	a.Restitution = c.Arena.Restitution
	a.SpeedLimit = c.Arena.SpeedLimit
	if err := a.Validate(); err != nil {
		return pong.Arena{}, err
	}
	return a, nil
}

func (c Configuration) GravityWells() []pong.GravityWell {
	if len(c.Wells) == 0 {
		return nil
	}
	wells := make([]pong.GravityWell, len(c.Wells))
	for i, w := range c.Wells {
		wells[i] = pong.GravityWell{Pos: pong.Vector{X: w.X, Y: w.Y}, Radius: w.Radius, Force: w.Force}
	}
	return wells
}
