// Package ui is the terminal front end: blocking dialogs, a navigator that
// just remembers it was asked to go back, and text/json/yaml output.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/petsocial/petsocial/libs/config"
)

// Terminal implements the Alert/Confirm dialog and the Back navigator on a
// pair of streams.
type Terminal struct {
	mu        sync.Mutex
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
	backs     int
}

func NewTerminal(in io.Reader, out io.Writer, assumeYes bool) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

func (t *Terminal) Alert(title, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "[%s] %s\n", title, message)
}

// Confirm asks a yes/no question. Anything but an explicit yes is a no,
// including end of input.
func (t *Terminal) Confirm(title, message string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.assumeYes {
		return true
	}
	fmt.Fprintf(t.out, "%s\n%s [y/N]: ", title, message)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(t.out)
		return false
	}
	return config.IsTruthy(strings.TrimSpace(line))
}

func (t *Terminal) Back() {
	t.mu.Lock()
	t.backs++
	t.mu.Unlock()
}

// WentBack reports whether a screen asked to be closed.
func (t *Terminal) WentBack() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.backs > 0
}
