package auth

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Biometric is the device's biometric verification capability.
type Biometric interface {
	// Available reports whether biometric verification can be attempted.
	Available() bool
	// Verify blocks until the user is verified (nil) or verification fails or is cancelled.
	Verify(ctx context.Context, reason string) error
}

// Unavailable is a Biometric for devices without a verifier.
type Unavailable struct{}

func (Unavailable) Available() bool { return false }

func (Unavailable) Verify(ctx context.Context, reason string) error {
	return ErrBiometryUnavailable
}

// Command verifies the user by running an external program such as
// fprintd-verify. Exit status 0 means verified.
type Command struct {
	Path string
	Args []string
}

// NewBiometric returns a Command for the given command line, or Unavailable when it is empty.
func NewBiometric(cmdline string) Biometric {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return Unavailable{}
	}
	return &Command{Path: fields[0], Args: fields[1:]}
}

// Available reports whether the program can be found.
func (c *Command) Available() bool {
	_, err := exec.LookPath(c.Path)
	return err == nil
}

// Verify runs the program. The reason is passed in NTF_AUTH_REASON.
func (c *Command) Verify(ctx context.Context, reason string) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...) //nolint:gosec // command comes from local configuration
	cmd.Env = append(os.Environ(), "NTF_AUTH_REASON="+reason)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v", ErrBiometricFailed, err)
	}
	return nil
}
