package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/names-to-faces/internal/config"
	"github.com/kozaktomas/names-to-faces/internal/logging"
)

var dataDir string

var rootCmd = &cobra.Command{
	Use:   "names-to-faces",
	Short: "Remember the names that go with faces",
	Long: `Names to Faces keeps a private list of face photos and the names that go
with them. The list is unlocked with a biometric verifier, falling back to a
password when verification fails. The first password ever entered becomes
the password.

The verifier is the program in BIOMETRIC_COMMAND (default fprintd-verify).
Set it to "false" to always fall back to the password.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides NTF_DATA_DIR)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	if dataDir != "" {
		os.Setenv("NTF_DATA_DIR", dataDir)
	}
	logging.Setup(config.Load().LogLevel)
}
