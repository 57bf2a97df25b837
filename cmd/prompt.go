package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

var errNoInput = errors.New("no password entered")

// terminalPrompter shows gate dialogs on the terminal and reads the password
// without echo. Without a terminal it reads one line from the input.
type terminalPrompter struct {
	in     *os.File
	out    io.Writer
	reader *bufio.Reader
}

func newTerminalPrompter() *terminalPrompter {
	return &terminalPrompter{in: os.Stdin, out: os.Stderr, reader: bufio.NewReader(os.Stdin)}
}

func (p *terminalPrompter) interactive() bool {
	return term.IsTerminal(int(p.in.Fd()))
}

func (p *terminalPrompter) Acknowledge(ctx context.Context, title, message string) {
	fmt.Fprintf(p.out, "%s: %s\n", title, message)
	if p.interactive() {
		fmt.Fprint(p.out, "Press Enter to continue...")
		p.reader.ReadString('\n')
	}
}

func (p *terminalPrompter) Password(ctx context.Context, enroll bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if enroll {
		fmt.Fprint(p.out, "No password is set yet. Choose one: ")
	} else {
		fmt.Fprint(p.out, "Password: ")
	}

	if p.interactive() {
		raw, err := term.ReadPassword(int(p.in.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", errNoInput
	}
	return strings.TrimRight(line, "\r\n"), nil
}
