package network_wifi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner abstracts the wireless tools we shell out to so the parsers
// and the radio can be tested without hardware.
type CommandRunner interface {
	// Run executes a command and returns its stdout.
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type ExecRunner struct{}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &CommandError{
			Command: strings.Join(append([]string{name}, args...), " "),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}

	return out.String(), nil
}

type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// MockResponse holds a predefined response for MockCommandRunner.
type MockResponse struct {
	Output string
	Err    error
}

// MockCommandRunner maps "name arg1 arg2" keys to predefined responses.
type MockCommandRunner struct {
	Responses map[string]MockResponse
	Calls     []string
}

func (m *MockCommandRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	m.Calls = append(m.Calls, key)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	resp, ok := m.Responses[key]
	if !ok {
		return "", fmt.Errorf("mock: no response for %q", key)
	}
	return resp.Output, resp.Err
}

// isNotFound reports whether err means the tool itself is missing.
func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}
