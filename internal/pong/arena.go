package pong

import (
	"fmt"
	"strconv"
)

type Field string

const (
	FieldNormal  Field = "normal"
	FieldEllipse Field = "ellipse"
)

// ParseField validates a field variant name received at match start.
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case FieldNormal, FieldEllipse:
		return Field(s), nil
	}
	return "", &ConfigurationError{Field: "field", Value: strconv.Quote(s)}
}

const (
	DefaultWidth        = 1000
	DefaultHeight       = 1920
	DefaultBallRadius   = 36
	DefaultPaddleRadius = 80
	DefaultWinScore     = 5
	DefaultRestitution  = 1.05
	DefaultSpeedLimit   = 35

	// LaunchSpeed is the per-axis ball speed at kick-off and after a goal.
	LaunchSpeed = 15
)

// Arena holds the per-match constants. It is immutable once a match starts.
type Arena struct {
	Width        float32
	Height       float32
	BallRadius   float32
	PaddleRadius float32
	GoalRadius   float32
	WinScore     uint8
	Field        Field
	Restitution  float32
	SpeedLimit   float32
}

func DefaultArena() Arena {
	return Arena{
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		BallRadius:   DefaultBallRadius,
		PaddleRadius: DefaultPaddleRadius,
		GoalRadius:   DefaultPaddleRadius + 8,
		WinScore:     DefaultWinScore,
		Field:        FieldNormal,
		Restitution:  DefaultRestitution,
		SpeedLimit:   DefaultSpeedLimit,
	}
}

func (a Arena) Validate() error {
	switch {
	case a.Width <= 0:
		return &ConfigurationError{Field: "width", Value: fmt.Sprint(a.Width)}
	case a.Height <= 0:
		return &ConfigurationError{Field: "height", Value: fmt.Sprint(a.Height)}
	case a.BallRadius <= 0 || 2*a.BallRadius >= a.Width:
		return &ConfigurationError{Field: "ballRadius", Value: fmt.Sprint(a.BallRadius)}
	case a.PaddleRadius <= 0:
		return &ConfigurationError{Field: "paddleRadius", Value: fmt.Sprint(a.PaddleRadius)}
	case a.WinScore == 0:
		return &ConfigurationError{Field: "winScore", Value: "0"}
	case a.Restitution < 1.05 || a.Restitution > 1.1:
		return &ConfigurationError{Field: "restitution", Value: fmt.Sprint(a.Restitution)}
	case a.SpeedLimit <= 0:
		return &ConfigurationError{Field: "speedLimit", Value: fmt.Sprint(a.SpeedLimit)}
	}
	if _, err := ParseField(string(a.Field)); err != nil {
		return err
	}
	return nil
}

// Match is everything a peer needs to know to run its half of a game.
type Match struct {
	Arena  Arena
	Player uint8
	SetNo  uint8
	// Wells are in the local peer's coordinates.
	Wells []GravityWell
}

// NewMatch validates the match start parameters and flips the gravity wells
// into player 2's view. wells is not modified.
func NewMatch(arena Arena, player, setNo uint8, field string, wells []GravityWell) (Match, error) {
	if player != 1 && player != 2 {
		return Match{}, &ConfigurationError{Field: "player", Value: strconv.Itoa(int(player))}
	}
	f, err := ParseField(field)
	if err != nil {
		return Match{}, err
	}
	arena.Field = f
	if err := arena.Validate(); err != nil {
		return Match{}, err
	}

	local := make([]GravityWell, len(wells))
	copy(local, wells)
	if player == 2 {
		for i := range local {
			local[i].Pos = arena.PointSymmetry(local[i].Pos)
		}
	}
	return Match{Arena: arena, Player: player, SetNo: setNo, Wells: local}, nil
}

// Opponent returns the other player's number.
func (m Match) Opponent() uint8 {
	if m.Player == 1 {
		return 2
	}
	return 1
}
