package processor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runner executes external tools. Implementations must honour ctx
// cancellation by killing the child process.
type Runner interface {
	// Run returns the command's stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// Stream feeds every stdout line to onLine while the command runs.
	Stream(ctx context.Context, onLine func(line string), name string, args ...string) error
}

type CommandRunner struct{}

func NewCommandRunner() *CommandRunner {
	return &CommandRunner{}
}

func (runner *CommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr tailBuffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return output, commandError(name, err, stderr.String())
	}
	return output, nil
}

func (runner *CommandRunner) Stream(ctx context.Context, onLine func(line string), name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr tailBuffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return commandError(name, err, "")
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		// Keep the pipe empty so the child can exit.
		_, _ = io.Copy(io.Discard, stdout)
	}

	if err := cmd.Wait(); err != nil {
		return commandError(name, err, stderr.String())
	}
	if scanErr != nil {
		return fmt.Errorf("%s: read output: %w", name, scanErr)
	}
	return nil
}

func commandError(name string, err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && stderr != "" {
		return fmt.Errorf("%s exited with code %d: %s", name, exitErr.ExitCode(), stderr)
	}
	if stderr != "" {
		return fmt.Errorf("%s: %w: %s", name, err, stderr)
	}
	return fmt.Errorf("%s: %w", name, err)
}

const stderrTailLimit = 4096

// tailBuffer keeps the last stderrTailLimit bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if over := t.buf.Len() - stderrTailLimit; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}
