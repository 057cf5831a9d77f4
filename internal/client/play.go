package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/taoreta-ed/redes2-25-2/internal/entity"
	"github.com/taoreta-ed/redes2-25-2/internal/transport/protocol"
)

var ErrUnknownCommand = errors.New("unknown command")

const usage = "Comandos: d <fila> <columna> destapar | b <fila> <columna> bandera | r <fila> <columna> retirar bandera | salir"

type commandKind string

const (
	commandReveal     commandKind = "d"
	commandFlag       commandKind = "b"
	commandUnflag     commandKind = "r"
	commandDisconnect commandKind = "salir"
)

type command struct {
	kind commandKind
	row  int
	col  int
}

func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}

	kind := commandKind(fields[0])

	switch kind {
	case commandDisconnect:
		return command{kind: kind}, nil
	case commandReveal, commandFlag, commandUnflag:
	default:
		return command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}

	if len(fields) != 3 {
		return command{}, fmt.Errorf("%w: %q needs a row and a column", ErrUnknownCommand, fields[0])
	}

	row, err := strconv.Atoi(fields[1])
	if err != nil {
		return command{}, fmt.Errorf("%w: bad row %q", ErrUnknownCommand, fields[1])
	}

	col, err := strconv.Atoi(fields[2])
	if err != nil {
		return command{}, fmt.Errorf("%w: bad column %q", ErrUnknownCommand, fields[2])
	}

	return command{kind: kind, row: row, col: col}, nil
}

// Play - interactive game on a text terminal. It returns when the game
// ends, the player leaves or in is exhausted.
func Play(ctx context.Context, client *Client, in io.Reader, out io.Writer) error {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	config := client.Config()
	fmt.Fprintf(out, "Partida %s: %dx%d con %d minas\n%s\n", config.Difficulty, config.Rows, config.Cols, config.Mines, usage)
	fmt.Fprint(out, client.Board().Render())

	events := client.Events()

	for {
		select {
		case <-ctx.Done():
			_ = client.Disconnect()
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				return client.Disconnect()
			}

			if done, err := execute(client, out, line); done || err != nil {
				return err
			}

		case msg, ok := <-events:
			if !ok {
				return client.Err()
			}

			if finished := describe(out, msg); finished {
				fmt.Fprint(out, client.Board().Render())
				return nil
			}

			if finished := drain(out, events); finished {
				fmt.Fprint(out, client.Board().Render())
				return nil
			}

			fmt.Fprint(out, client.Board().Render())
		}
	}
}

// execute - runs one typed command. Bad input and moves refused by the
// mirror are reported to the player; only a failed disconnect is returned.
func execute(client *Client, out io.Writer, line string) (bool, error) {
	cmd, err := parseCommand(line)
	if err != nil {
		fmt.Fprintf(out, "%v\n%s\n", err, usage)
		return false, nil
	}

	switch cmd.kind {
	case commandDisconnect:
		return true, client.Disconnect()
	case commandReveal:
		err = client.Reveal(cmd.row, cmd.col)
	case commandFlag:
		err = client.Flag(cmd.row, cmd.col, entity.FlagPlace)
	case commandUnflag:
		err = client.Flag(cmd.row, cmd.col, entity.FlagRemove)
	}

	if err != nil {
		client.logger.Debug("move not sent", "error", err)
		fmt.Fprintln(out, err)
	}

	return false, nil
}

// drain - prints every event already queued. True once the game is over.
func drain(out io.Writer, events <-chan protocol.Message) bool {
	for {
		select {
		case msg, ok := <-events:
			if !ok {
				return false
			}

			if describe(out, msg) {
				return true
			}
		default:
			return false
		}
	}
}

func describe(out io.Writer, msg protocol.Message) bool {
	switch m := msg.(type) {
	case protocol.Control:
		if m.Message != "" {
			fmt.Fprintln(out, m.Message)
		}
	case protocol.End:
		if m.Result == entity.OutcomeWin {
			fmt.Fprintf(out, "¡Victoria! Tiempo: %d segundos\n", m.Duration)
		} else {
			fmt.Fprintf(out, "Derrota. Tiempo: %d segundos\n", m.Duration)
		}

		return true
	}

	return false
}
