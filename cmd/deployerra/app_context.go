package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/alexisbeaulieu97/deployerra/internal/hostexec"
	"github.com/alexisbeaulieu97/deployerra/internal/logger"
	"github.com/alexisbeaulieu97/deployerra/internal/probe"
)

// AppContext bundles the host-facing collaborators created at startup.
// Tests swap them for scripted fakes.
type AppContext struct {
	NewRunner    func(timeout time.Duration, log *logger.Logger, stdout, stderr io.Writer) hostexec.Runner
	ArchDetector probe.ArchDetector
	ReadPassword func(prompt string, out io.Writer) (string, error)
	IsTerminal   func(w io.Writer) bool
}

func defaultAppContext() *AppContext {
	return &AppContext{
		NewRunner: func(timeout time.Duration, log *logger.Logger, stdout, stderr io.Writer) hostexec.Runner {
			runner := hostexec.NewShellRunner(timeout, log)
			runner.Stdout = stdout
			runner.Stderr = stderr
			return runner
		},
		ArchDetector: probe.KernelArch,
		ReadPassword: readTerminalPassword,
		IsTerminal:   isTerminal,
	}
}

func readTerminalPassword(prompt string, out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--ask-password needs an interactive terminal")
	}
	fmt.Fprint(out, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
