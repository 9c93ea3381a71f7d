// Package editor opens notes in the user's editor.
package editor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Launcher opens a file for interactive editing.
type Launcher interface {
	Open(ctx context.Context, file string) error
}

// Exec runs an external editor command attached to the terminal.
type Exec struct {
	Command string   // may carry leading arguments, e.g. "code --wait"
	Args    []string // appended after Command's own arguments
	Dir     string   // working directory, normally the base directory

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExec creates a launcher bound to the process's standard streams.
func NewExec(command string, args []string, dir string) *Exec {
	return &Exec{
		Command: command,
		Args:    args,
		Dir:     dir,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Open runs the editor on file and waits for it to exit.
func (e *Exec) Open(ctx context.Context, file string) error {
	fields := strings.Fields(e.Command)
	if len(fields) == 0 {
		return fmt.Errorf("editor: no command configured")
	}
	args := append(append(fields[1:len(fields):len(fields)], e.Args...), file)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Dir = e.Dir
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor: %s: %w", fields[0], err)
	}
	return nil
}
