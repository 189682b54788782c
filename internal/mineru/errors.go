// Package mineru adapts the MinerU magic-pdf command line tool to the
// orchestrator's DatasetBuilder and Parser interfaces.
package mineru

import (
	"errors"
	"fmt"
	"strings"
)

// installURL is where users can get the MinerU toolchain.
const installURL = "https://github.com/opendatalab/MinerU"

// Sentinel errors for the MinerU adapter.
var (
	// ErrBinaryNotFound indicates the magic-pdf binary is not in PATH.
	ErrBinaryNotFound = fmt.Errorf("mineru binary not found in PATH; install from %s or set mineru.binary", installURL)

	// ErrNotPDF indicates an input file does not start with the PDF header.
	ErrNotPDF = errors.New("file is not a PDF")

	// ErrLengthMismatch indicates ids and datasets differ in length.
	ErrLengthMismatch = errors.New("identifier and dataset counts differ")

	// ErrUnknownDataset indicates a dataset handle not built by this package.
	ErrUnknownDataset = errors.New("dataset handle was not produced by the mineru builder")

	// ErrParseFailed indicates magic-pdf exited with a non-zero status.
	ErrParseFailed = errors.New("magic-pdf parse failed")

	// ErrParseTimeout indicates magic-pdf did not finish within the timeout.
	ErrParseTimeout = errors.New("magic-pdf parse timed out")

	// ErrVersionUnparseable indicates no version could be read from the binary.
	ErrVersionUnparseable = errors.New("could not determine mineru version")

	// ErrVersionUnsupported indicates the installed version fails the constraint.
	ErrVersionUnsupported = errors.New("unsupported mineru version")
)

// ParseError wraps ErrParseFailed with the document ID and the tool's stderr.
func ParseError(id, stderr string) error {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		return fmt.Errorf("%w for %s", ErrParseFailed, id)
	}
	return fmt.Errorf("%w for %s: %s", ErrParseFailed, id, msg)
}
