package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/names-to-faces/internal/config"
	"github.com/kozaktomas/names-to-faces/internal/storage"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Manage the fallback password",
}

var passwordResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the password so the next one entered becomes the password",
	Long: `Unlock the list, then forget the stored password. The next password
entered after a failed biometric verification is stored as the new password.`,
	Args: cobra.NoArgs,
	RunE: runPasswordReset,
}

func init() {
	rootCmd.AddCommand(passwordCmd)
	passwordCmd.AddCommand(passwordResetCmd)
}

func runPasswordReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()

	rt, err := newRuntime(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.unlock(ctx, newTerminalPrompter()); err != nil {
		return err
	}

	err = rt.backend.DeleteSecret(ctx, cfg.Defaults.Slots.Password)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("forgetting password: %w", err)
	}
	fmt.Println("Password forgotten. The next password entered becomes the password.")
	return nil
}
