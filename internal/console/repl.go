package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// REPL reads commands line by line, dispatches them and renders the
// resulting view. It is also the console's Notifier and Confirmer.
type REPL struct {
	in  *bufio.Scanner
	out io.Writer
	app *App
}

func NewREPL(in io.Reader, out io.Writer) *REPL {
	return &REPL{in: bufio.NewScanner(in), out: out}
}

// Attach binds the REPL to the app it drives.
func (r *REPL) Attach(app *App) { r.app = app }

func (r *REPL) Notify(level Level, message string) {
	prefix := "»"
	if level == LevelError {
		prefix = "!"
	}
	fmt.Fprintf(r.out, "%s %s\n", prefix, message)
}

// Confirm reads the next line; only "s", "si", "sí", "y" or "yes" accept.
func (r *REPL) Confirm(prompt string) bool {
	fmt.Fprintf(r.out, "%s [s/N] ", prompt)
	if !r.in.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(r.in.Text())) {
	case "s", "si", "sí", "y", "yes":
		return true
	}
	return false
}

// Run loads every collection, then serves commands until quit, EOF or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	r.app.Dispatch(ctx, Refresh{Collections: AllCollections})
	if err := Render(r.out, r.app.State()); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.out, "> ")
		if !r.in.Scan() {
			return r.in.Err()
		}

		msg, err := ParseCommand(r.in.Text())
		switch {
		case errors.Is(err, errEmpty):
			continue
		case errors.Is(err, errQuit):
			return nil
		case errors.Is(err, errHelp):
			fmt.Fprintln(r.out, helpText)
			continue
		case err != nil:
			r.Notify(LevelError, err.Error())
			continue
		}

		r.app.Dispatch(ctx, msg)
		if err := Render(r.out, r.app.State()); err != nil {
			return err
		}
	}
}
