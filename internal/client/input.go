package client

import (
	"errors"
	"log/slog"
	"os"

	"golang.org/x/term"

	"gravpong/internal/pong"
)

// PaddleStep is how far one key press moves the paddle.
const PaddleStep = 20

type Mover interface {
	NudgePaddle(d pong.Vector)
}

// ReadKeys puts the terminal in raw mode and turns key presses into paddle
// moves until quit is pressed. The returned func restores the terminal.
func ReadKeys(m Mover, quit func()) (func(), error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}
	prev, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}

	go func() {
		buf := make([]byte, 3)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				slog.Debug("error reading from stdin", slog.Any("error", err))
				return
			}
			if !HandleKey(m, buf[:n]) {
				quit()
				return
			}
		}
	}()

	return func() {
		if err := term.Restore(fd, prev); err != nil {
			slog.Debug("failed to restore terminal", slog.Any("error", err))
		}
	}, nil
}

// HandleKey applies one key press. It returns false on quit.
func HandleKey(m Mover, key []byte) bool {
	if len(key) == 0 {
		return true
	}
	var d pong.Vector
	switch key[0] {
	case 'w':
		d.Y = -PaddleStep
	case 's':
		d.Y = PaddleStep
	case 'a':
		d.X = -PaddleStep
	case 'd':
		d.X = PaddleStep
	case 'q', 3: // q or ctrl-c
		return false
	// Esc char
	case 27:
		if len(key) < 3 || key[1] != '[' {
			return true
		}
		// Arrow Keys
		switch key[2] {
		case 'A':
			d.Y = -PaddleStep
		case 'B':
			d.Y = PaddleStep
		case 'C':
			d.X = PaddleStep
		case 'D':
			d.X = -PaddleStep
		}
	default:
		return true
	}
	m.NudgePaddle(d)
	return true
}
