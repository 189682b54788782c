package mineru

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

const versionTimeout = 30 * time.Second

// versionPattern matches the first semver-looking token, e.g. "1.3.12" in
// "magic-pdf, version 1.3.12".
var versionPattern = regexp.MustCompile(`v?(\d+\.\d+\.\d+(?:-[0-9A-Za-z.-]+)?)`)

// FindBinary resolves name through PATH. Names containing a path separator
// are checked as given.
func FindBinary(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w (%s)", ErrBinaryNotFound, name)
	}
	return path, nil
}

// ParseVersion extracts the version from `magic-pdf --version` output.
func ParseVersion(output string) (*semver.Version, error) {
	m := versionPattern.FindStringSubmatch(output)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrVersionUnparseable, strings.TrimSpace(output))
	}
	v, err := semver.NewVersion(m[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVersionUnparseable, err)
	}
	return v, nil
}

// CheckVersion runs `<binary> --version` and checks the result against
// constraint. An empty constraint skips the check and returns nil, nil.
func CheckVersion(ctx context.Context, runner CommandRunner, binary, constraint string) (*semver.Version, error) {
	if constraint == "" {
		return nil, nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("parsing version constraint %q: %w", constraint, err)
	}
	if runner == nil {
		runner = ExecRunner{}
	}

	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	stdout, stderr, err := runner.Run(ctx, nil, binary, "--version")
	if err != nil {
		return nil, fmt.Errorf("running %s --version: %w: %s", binary, err, strings.TrimSpace(string(stderr)))
	}

	v, err := ParseVersion(string(stdout) + "\n" + string(stderr))
	if err != nil {
		return nil, err
	}
	if !c.Check(v) {
		return v, fmt.Errorf("%w: %s does not satisfy %s", ErrVersionUnsupported, v, constraint)
	}
	return v, nil
}
