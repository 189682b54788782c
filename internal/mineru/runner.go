package mineru

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// CommandRunner executes an external command and returns its stdout, stderr
// and error. env entries are appended to the current process environment.
type CommandRunner interface {
	Run(ctx context.Context, env []string, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// ExecRunner is the CommandRunner backed by os/exec.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
