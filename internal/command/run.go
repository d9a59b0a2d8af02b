package command

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// ToolError reports a non-zero exit from an external tool, with whatever the
// tool printed on stderr.
type ToolError struct {
	Name   string
	Args   []string
	Stderr string
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s %s failed", e.Name, strings.Join(e.Args, " "))
	}
	return fmt.Sprintf("%s %s failed: %s", e.Name, strings.Join(e.Args, " "), strings.TrimSpace(e.Stderr))
}

// Run executes an external tool and waits for it to exit. Stdout is discarded,
// stderr is captured for error reporting. There is no timeout: tools block
// until exit.
func Run(name string, args ...string) error {
	logrus.Infof("Running %s %s", name, strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return &ToolError{Name: name, Args: args, Stderr: stderr.String()}
		}
		return fmt.Errorf("run %s: %w", name, err)
	}

	logrus.Infof("Ran %s successfully", name)
	return nil
}

// Output executes an external tool and returns its stdout.
func Output(name string, args ...string) ([]byte, error) {
	logrus.Infof("Running %s %s", name, strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil, &ToolError{Name: name, Args: args, Stderr: stderr.String()}
		}
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// RunWithStdin executes an external tool with the given input piped to its
// stdin. Used for chpasswd, which reads credentials from its input stream.
func RunWithStdin(input io.Reader, name string, args ...string) error {
	logrus.Infof("Running %s %s (with stdin)", name, strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdin = input
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return &ToolError{Name: name, Args: args, Stderr: stderr.String()}
		}
		return fmt.Errorf("run %s: %w", name, err)
	}
	return nil
}
