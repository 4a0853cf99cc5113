package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrEmptyInput is returned when the user just presses Enter.
var ErrEmptyInput = errors.New("no input")

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// ReadLine prints prompt to w and reads one trimmed line from r.
func ReadLine(r io.Reader, w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ErrEmptyInput
	}
	return line, nil
}

// ReadSecret prompts on stdout and reads a line from stdin without echo.
// When stdin is not a terminal the line is read as-is, for piped input.
func ReadSecret(prompt string) (string, error) {
	if !IsInteractive() {
		return ReadLine(os.Stdin, os.Stdout, prompt)
	}
	fmt.Fprint(os.Stdout, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stdout)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}
	s := strings.TrimRight(string(b), "\r\n")
	if s == "" {
		return "", ErrEmptyInput
	}
	return s, nil
}
