// Package launcher replaces the envin process with the validated command.
package launcher

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// Exit codes for exec failures, following shell conventions.
const (
	ExitNotFound         = 127
	ExitPermissionDenied = 126
)

// Exec replaces the current process with target, passing args and environ
// unchanged. It does not return on success.
func Exec(target string, args []string, environ []string) error {
	execPath, err := exec.LookPath(target)
	if err != nil {
		return err
	}

	argv := append([]string{target}, args...)
	return syscall.Exec(execPath, argv, environ)
}

// ExitCode maps an Exec error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsNotFound(err):
		return ExitNotFound
	case IsPermissionDenied(err):
		return ExitPermissionDenied
	}
	return 1
}

// IsNotFound checks if the error indicates the command was not found
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, exec.ErrNotFound)
}

// IsPermissionDenied checks if the error indicates permission was denied
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrPermission)
}
