package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers from the shell's input. Passwords are read with
// echo disabled when the input is the terminal's stdin.
type prompter struct {
	sc     *bufio.Scanner
	out    io.Writer
	masked bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	masked := in == os.Stdin && term.IsTerminal(int(os.Stdin.Fd()))
	return &prompter{sc: bufio.NewScanner(in), out: out, masked: masked}
}

// line prints prompt and returns the trimmed answer; ok is false at EOF.
func (p *prompter) line(prompt string) (string, bool) {
	answer, ok := p.raw(prompt)
	return strings.TrimSpace(answer), ok
}

// raw is line without trimming, apart from a CRLF line ending.
func (p *prompter) raw(prompt string) (string, bool) {
	fmt.Fprint(p.out, prompt)
	if !p.sc.Scan() {
		return "", false
	}
	return strings.TrimSuffix(p.sc.Text(), "\r"), true
}

// password reads a password, masked when possible. Whitespace is part of
// the password and is kept.
func (p *prompter) password(prompt string) (string, error) {
	if !p.masked {
		answer, ok := p.raw(prompt)
		if !ok {
			return "", errors.New("no password given")
		}
		return answer, nil
	}

	fmt.Fprint(p.out, prompt)
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(p.out) // Add newline after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}
