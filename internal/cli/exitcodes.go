package cli

import (
	"errors"

	"github.com/yaklabco/mdsync/internal/configloader"
	"github.com/yaklabco/mdsync/internal/export"
	"github.com/yaklabco/mdsync/pkg/edit"
	"github.com/yaklabco/mdsync/pkg/fsutil"
	"github.com/yaklabco/mdsync/pkg/selection"
)

// Exit codes for mdsync.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitFailure is any error without a more specific code.
	ExitFailure = 1

	// ExitNotFound indicates the selected text was not in the document.
	ExitNotFound = 2

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration file errors.
	ExitConfigError = 65

	// ExitUnavailable indicates a required external program is missing.
	ExitUnavailable = 69

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

// ErrConfig marks configuration loading failures.
var ErrConfig = errors.New("configuration error")

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	var validation *configloader.ValidationError

	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrConfig), errors.As(err, &validation):
		return ExitConfigError
	case errors.Is(err, edit.ErrUnknownFormat), errors.Is(err, ErrUsage):
		return ExitInvalidUsage
	case errors.Is(err, selection.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, export.ErrNoBrowser):
		return ExitUnavailable
	case errors.Is(err, fsutil.ErrNotFound),
		errors.Is(err, fsutil.ErrPermissionDenied),
		errors.Is(err, fsutil.ErrIsDirectory):
		return ExitIOError
	default:
		return ExitFailure
	}
}
