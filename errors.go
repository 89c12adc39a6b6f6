// errors.go
package brewlet

import (
	"errors"
	"fmt"

	"github.com/arc-language/brewlet/pkg/fetch"
	"github.com/arc-language/brewlet/pkg/formula"
	"github.com/arc-language/brewlet/pkg/keg"
	"github.com/arc-language/brewlet/pkg/smoketest"
	"github.com/arc-language/brewlet/pkg/tap"
)

var (
	// ErrInvalidFormula indicates the formula fails validation
	ErrInvalidFormula = formula.ErrInvalid

	// ErrFormulaNotFound indicates no tap provides the formula
	ErrFormulaNotFound = tap.ErrFormulaNotFound

	// ErrDownload indicates the source archive could not be fetched
	ErrDownload = fetch.ErrDownload

	// ErrHashMismatch indicates a hash verification failure
	ErrHashMismatch = fetch.ErrHashMismatch

	// ErrExtract indicates the archive could not be unpacked
	ErrExtract = errors.New("extraction failed")

	// ErrScriptNotFound indicates the source tree lacks the script to install
	ErrScriptNotFound = keg.ErrScriptNotFound

	// ErrFileWrite indicates a write to the prefix or startup file failed
	ErrFileWrite = errors.New("write failed")

	// ErrNotInstalled indicates an operation needs the formula installed first
	ErrNotInstalled = errors.New("formula not installed")

	// ErrTestFailed indicates the smoke test exited with an error or ended
	// in the wrong directory
	ErrTestFailed = smoketest.ErrFailed
)

// Error wraps an error with additional context
type Error struct {
	Op      string // Operation that failed
	Formula string // Formula name if applicable
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Formula != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Formula, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
