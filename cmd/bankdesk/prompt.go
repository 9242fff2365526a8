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

// errInputClosed is returned when input ends (EOF or Ctrl-D).
var errInputClosed = errors.New("input closed")

// prompter reads answers from the terminal. Secrets are read without echo when input is a terminal.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the terminal file descriptor, or -1 when input is not a terminal.
	fd int
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &prompter{in: bufio.NewReader(in), out: out, fd: fd}
}

// line prints label and returns the trimmed answer.
func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.readLine()
	return strings.TrimSpace(s), err
}

// secret prints label and reads an answer without echo. Only the line ending is stripped.
func (p *prompter) secret(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if p.fd < 0 {
		s, err := p.readLine()
		return strings.TrimRight(s, "\r\n"), err
	}
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (p *prompter) readLine() (string, error) {
	s, err := p.in.ReadString('\n')
	if err == nil {
		return s, nil
	}
	if errors.Is(err, io.EOF) {
		if s != "" {
			return s, nil
		}
		return "", errInputClosed
	}
	return "", err
}

// confirm asks a yes/no question; only y or yes count as yes.
func (p *prompter) confirm(label string) (bool, error) {
	s, err := p.line(label + " [y/N]: ")
	if err != nil {
		return false, err
	}
	s = strings.ToLower(s)
	return s == "y" || s == "yes", nil
}
