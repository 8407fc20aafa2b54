// Command waitlistctl holds operator tooling for the waitlist service:
// referral code lookups, schema migrations, share links and social proof
// previews.
package main

import (
	"fmt"
	"os"

	"github.com/localplate/waitlist/internal/config"
	"github.com/localplate/waitlist/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// loadConfig is swapped in tests.
var loadConfig = config.Load

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "waitlistctl",
		Short:         "Operator tooling for the LocalPlate waitlist",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	newLogger := func() *zap.Logger {
		level := "warn"
		if verbose {
			level = "debug"
		}
		l, err := logger.New(logger.Config{Environment: "development", LogLevel: level, ServiceName: "waitlistctl"})
		if err != nil {
			return zap.NewNop()
		}
		return l
	}

	root.AddCommand(
		newRefcodeCmd(),
		newShareCmd(),
		newMigrateCmd(newLogger),
		newPreviewCmd(newLogger),
	)
	return root
}
