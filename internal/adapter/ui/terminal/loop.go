package terminal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// ErrNotTerminal is returned by MakeRaw when the file is not a terminal.
var ErrNotTerminal = errors.New("not a terminal")

// MakeRaw switches f into raw mode and returns the function that restores it.
func MakeRaw(f *os.File) (func(), error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() { _ = term.Restore(fd, oldState) }, nil
}

// Width returns the column count of f, or fallback when it is not a terminal.
func Width(f *os.File, fallback int) int {
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		return width
	}
	return fallback
}

// RunKeys reads key presses from in and dispatches them to controls until
// a quit key, the end of input, or ctx is done.
func RunKeys(ctx context.Context, logger *slog.Logger, in io.Reader, controls Controls) error {
	chunks := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		buf := make([]byte, 64)
		for {
			n, err := in.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				select {
				case chunks <- chunk:
				case <-done:
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	var decoder Decoder
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case chunk := <-chunks:
			for _, action := range decoder.Feed(chunk) {
				logger.Debug("key action", slog.String("action", action.String()))
				if !Dispatch(controls, action) {
					return nil
				}
			}
		}
	}
}
